package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const (
	destinationResults = 1
	interestResults    = 10
	interestKeep       = 5
	experienceResults  = 15
	experienceKeep     = 10
	tipResults         = 5
)

// activitiesPerDay tunes prompt pacing per travel style.
var activitiesPerDay = map[types.TravelStyle]int{
	types.StyleRelaxation: 2,
	types.StyleAdventure:  4,
	types.StyleCultural:   4,
	types.StyleFoodTour:   4,
}

func ActivitiesPerDay(style types.TravelStyle) int {
	if n, ok := activitiesPerDay[style]; ok {
		return n
	}
	return 3
}

// Assembler builds the retrieval context block injected into generation
// prompts. Every retrieval failure is logged and skipped, so a cold or
// unreachable knowledge base simply yields a smaller block, down to the
// empty string.
type Assembler struct {
	service Service
	logger  *slog.Logger
}

func NewAssembler(service Service, logger *slog.Logger) *Assembler {
	return &Assembler{
		service: service,
		logger:  logger,
	}
}

func (a *Assembler) AssembleContext(ctx context.Context, trip *types.TripRequest) string {
	ctx, span := otel.Tracer("KnowledgeAssembler").Start(ctx, "AssembleContext")
	defer span.End()
	span.SetAttributes(attribute.String("destination", trip.Destination))

	var b strings.Builder

	a.appendSection(ctx, &b, "Destination knowledge", CollectionDestinations,
		fmt.Sprintf("%s travel destination information", trip.Destination),
		destinationResults, destinationResults)

	for _, interest := range trip.Interests {
		a.appendSection(ctx, &b,
			fmt.Sprintf("Recommendations for %s", interest), CollectionActivities,
			fmt.Sprintf("%s activities in %s for %s travelers",
				interest, trip.Destination, trip.TravelStyle),
			interestResults, interestKeep)
	}

	a.appendSection(ctx, &b, "Local experiences", CollectionLocalExperiences,
		fmt.Sprintf("authentic local experiences hidden gems %s %s",
			trip.Destination, trip.TravelStyle),
		experienceResults, experienceKeep)

	a.appendSection(ctx, &b, "Travel tips", CollectionTravelTips,
		fmt.Sprintf("travel tips advice for %s", trip.Destination),
		tipResults, tipResults)

	if b.Len() > 0 {
		fmt.Fprintf(&b, "Plan around %d activities per day for a %s trip.\n",
			ActivitiesPerDay(trip.TravelStyle), trip.TravelStyle)
	}

	span.SetStatus(codes.Ok, "Context assembled")
	span.SetAttributes(attribute.Int("context.length", b.Len()))
	return b.String()
}

func (a *Assembler) appendSection(ctx context.Context, b *strings.Builder,
	title, collection, query string, fetch, keep int) {

	docs, err := a.service.Search(ctx, collection, query, fetch)
	if err != nil {
		a.logger.WarnContext(ctx, "Knowledge retrieval failed, skipping section",
			slog.String("collection", collection), slog.Any("error", err))
		return
	}
	if len(docs) == 0 {
		return
	}
	if len(docs) > keep {
		docs = docs[:keep]
	}

	fmt.Fprintf(b, "%s:\n", title)
	for _, doc := range docs {
		fmt.Fprintf(b, "- %s\n", doc.Document)
	}
	b.WriteByte('\n')
}
