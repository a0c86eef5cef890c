package planner

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Normalizer extracts a well-formed JSON value out of arbitrary model text.
// It never returns an error: the pipeline must tolerate model unreliability,
// so every failure collapses to an explicit empty value the caller treats as
// "no data".
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")
	fencedRe     = regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n\\s*```")
	objectSpanRe = regexp.MustCompile(`\{[\s\S]*\}`)
	arraySpanRe  = regexp.MustCompile(`\[[\s\S]*\]`)
)

const previewLen = 300

// NormalizeObject coerces a model response into a JSON object. Accepts an
// already-structured map, a JSON string, fenced or prose-wrapped JSON.
// Returns an empty map when nothing parseable is found.
func (n *Normalizer) NormalizeObject(ctx context.Context, raw interface{}) map[string]interface{} {
	switch v := raw.(type) {
	case map[string]interface{}:
		return v
	case string:
		if obj, ok := n.extractObject(v); ok {
			return obj
		}
		n.logFallback(ctx, "object", v)
		return map[string]interface{}{}
	default:
		n.logFallback(ctx, "object", "")
		return map[string]interface{}{}
	}
}

// NormalizeList is the sequence-context counterpart of NormalizeObject.
func (n *Normalizer) NormalizeList(ctx context.Context, raw interface{}) []interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return v
	case string:
		if list, ok := n.extractList(v); ok {
			return list
		}
		n.logFallback(ctx, "list", v)
		return []interface{}{}
	default:
		n.logFallback(ctx, "list", "")
		return []interface{}{}
	}
}

// extractObject walks the fallback ladder: direct parse, fenced blocks,
// first balanced span, cleanup slice. First success wins.
func (n *Normalizer) extractObject(text string) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	if obj, ok := tryParseObject(trimmed); ok {
		return obj, true
	}

	for _, re := range []*regexp.Regexp{fencedJSONRe, fencedRe} {
		if m := re.FindStringSubmatch(trimmed); len(m) == 2 {
			if obj, ok := tryParseObject(strings.TrimSpace(m[1])); ok {
				return obj, true
			}
		}
	}

	if span := objectSpanRe.FindString(trimmed); span != "" {
		if obj, ok := tryParseObject(span); ok {
			return obj, true
		}
	}

	if obj, ok := tryParseObject(cleanupSlice(trimmed, '{', '}')); ok {
		return obj, true
	}
	return nil, false
}

func (n *Normalizer) extractList(text string) ([]interface{}, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	if list, ok := tryParseList(trimmed); ok {
		return list, true
	}

	for _, re := range []*regexp.Regexp{fencedJSONRe, fencedRe} {
		if m := re.FindStringSubmatch(trimmed); len(m) == 2 {
			if list, ok := tryParseList(strings.TrimSpace(m[1])); ok {
				return list, true
			}
		}
	}

	if span := arraySpanRe.FindString(trimmed); span != "" {
		if list, ok := tryParseList(span); ok {
			return list, true
		}
	}

	if list, ok := tryParseList(cleanupSlice(trimmed, '[', ']')); ok {
		return list, true
	}
	return nil, false
}

func tryParseObject(s string) (map[string]interface{}, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func tryParseList(s string) ([]interface{}, bool) {
	var list []interface{}
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, false
	}
	return list, true
}

// cleanupSlice strips fence markers and slices from the first opening
// delimiter to the last closing one.
func cleanupSlice(text string, open, close byte) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, close)
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}

func (n *Normalizer) logFallback(ctx context.Context, kind, text string) {
	n.logger.WarnContext(ctx, "Failed to extract JSON from model response, returning empty value",
		slog.String("expected", kind),
		slog.String("preview", preview(text, previewLen)),
	)
}

// preview truncates to at most max bytes without splitting a rune.
func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
