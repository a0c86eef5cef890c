package planner

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNormalizeObject(t *testing.T) {
	n := NewNormalizer(testLogger())
	ctx := context.Background()

	tests := []struct {
		name  string
		input interface{}
		want  map[string]interface{}
	}{
		{
			name:  "already a map",
			input: map[string]interface{}{"days": []interface{}{}},
			want:  map[string]interface{}{"days": []interface{}{}},
		},
		{
			name:  "plain json string",
			input: `{"title": "Lisbon Trip"}`,
			want:  map[string]interface{}{"title": "Lisbon Trip"},
		},
		{
			name:  "json fenced block",
			input: "Here is your itinerary:\n```json\n{\"title\": \"Tokyo\"}\n```\nEnjoy!",
			want:  map[string]interface{}{"title": "Tokyo"},
		},
		{
			name:  "bare fenced block",
			input: "```\n{\"title\": \"Rome\"}\n```",
			want:  map[string]interface{}{"title": "Rome"},
		},
		{
			name:  "object embedded in prose",
			input: `Sure! The plan is {"days": 3} which fits your budget.`,
			want:  map[string]interface{}{"days": float64(3)},
		},
		{
			name:  "fence markers without newlines",
			input: "```json{\"a\": 1}```",
			want:  map[string]interface{}{"a": float64(1)},
		},
		{
			name:  "non json text",
			input: "I'm sorry, I cannot help with that.",
			want:  map[string]interface{}{},
		},
		{
			name:  "empty string",
			input: "",
			want:  map[string]interface{}{},
		},
		{
			name:  "nil input",
			input: nil,
			want:  map[string]interface{}{},
		},
		{
			name:  "list when object expected",
			input: `[1, 2, 3]`,
			want:  map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.NormalizeObject(ctx, tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeList(t *testing.T) {
	n := NewNormalizer(testLogger())
	ctx := context.Background()

	tests := []struct {
		name  string
		input interface{}
		want  []interface{}
	}{
		{
			name:  "already a list",
			input: []interface{}{"a", "b"},
			want:  []interface{}{"a", "b"},
		},
		{
			name:  "plain json array",
			input: `["market", "museum"]`,
			want:  []interface{}{"market", "museum"},
		},
		{
			name:  "fenced array",
			input: "```json\n[{\"name\": \"Fado night\"}]\n```",
			want:  []interface{}{map[string]interface{}{"name": "Fado night"}},
		},
		{
			name:  "array embedded in prose",
			input: `Here you go: [1, 2] as requested.`,
			want:  []interface{}{float64(1), float64(2)},
		},
		{
			name:  "garbage",
			input: "no list here",
			want:  []interface{}{},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.NormalizeList(ctx, tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreviewKeepsRunesIntact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string untouched", "olá", 10, "olá"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"cut inside two byte rune", "café", 4, "caf"},
		{"cut on rune boundary", "café", 5, "café"},
		{"cut inside emoji", "a🎉b", 3, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preview(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestNormalizeObjectNeverPanics(t *testing.T) {
	n := NewNormalizer(testLogger())
	ctx := context.Background()

	for _, input := range []interface{}{42, 3.14, true, []byte("{}"), struct{}{}} {
		assert.NotPanics(t, func() {
			got := n.NormalizeObject(ctx, input)
			assert.NotNil(t, got)
		})
	}
}
