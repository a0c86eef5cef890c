package knowledge

import (
	"context"
	"fmt"
	"log/slog"
)

type seedDocument struct {
	collection string
	document   string
	metadata   map[string]interface{}
}

var seedDocuments = []seedDocument{
	{
		collection: CollectionDestinations,
		document:   "Lisbon, Portugal: hilly coastal capital known for pastel buildings, tram 28, Fado music, and day trips to Sintra. Best visited March to June and September to October. Metro and walking cover most neighborhoods.",
		metadata:   map[string]interface{}{"city": "Lisbon", "country": "Portugal"},
	},
	{
		collection: CollectionDestinations,
		document:   "Tokyo, Japan: dense megacity mixing Shinto shrines with neon districts like Shibuya and Shinjuku. The JR and metro networks make day planning easy. Cherry blossom season peaks late March to early April.",
		metadata:   map[string]interface{}{"city": "Tokyo", "country": "Japan"},
	},
	{
		collection: CollectionDestinations,
		document:   "Barcelona, Spain: Mediterranean city built around Gaudi architecture, the Gothic Quarter, and beach access at Barceloneta. Book Sagrada Familia tickets well in advance.",
		metadata:   map[string]interface{}{"city": "Barcelona", "country": "Spain"},
	},
	{
		collection: CollectionActivities,
		document:   "Walking food tour through a central market: sample regional specialties with a local guide, typically 2 to 3 hours, 40 to 80 per person. Works best late morning.",
		metadata:   map[string]interface{}{"category": "food"},
	},
	{
		collection: CollectionActivities,
		document:   "Sunrise hike to a city viewpoint: free, 1 to 2 hours, best in clear weather. Bring water and start before dawn in summer months.",
		metadata:   map[string]interface{}{"category": "adventure"},
	},
	{
		collection: CollectionActivities,
		document:   "Old-town museum circuit: cluster two or three museums within walking distance on one morning, with a long lunch after. Most European museums close Mondays.",
		metadata:   map[string]interface{}{"category": "cultural"},
	},
	{
		collection: CollectionLocalExperiences,
		document:   "Neighborhood morning market visits beat tourist markets for prices and conversation. Go before 10:00 and buy breakfast from a stall the locals queue at.",
		metadata:   map[string]interface{}{"category": "hidden_gem"},
	},
	{
		collection: CollectionLocalExperiences,
		document:   "Evening in a family-run tavern off the main square: ask for the unlisted daily special. Expect to pay half of what the plaza-front restaurants charge.",
		metadata:   map[string]interface{}{"category": "food"},
	},
	{
		collection: CollectionTravelTips,
		document:   "Carry a small amount of local cash for markets and small cafes; card acceptance varies outside city centers.",
		metadata:   map[string]interface{}{"topic": "money"},
	},
	{
		collection: CollectionTravelTips,
		document:   "Buy public-transport day passes on arrival; they usually pay for themselves after three rides and remove ticket friction from the day plan.",
		metadata:   map[string]interface{}{"topic": "transport"},
	},
}

// Seed loads the starter corpus. Intended for fresh environments; it does
// not deduplicate, so call Reset first when re-seeding.
func Seed(ctx context.Context, service Service, logger *slog.Logger) error {
	for _, doc := range seedDocuments {
		if err := service.AddDocument(ctx, doc.collection, doc.document, doc.metadata); err != nil {
			return fmt.Errorf("failed to seed %s document: %w", doc.collection, err)
		}
	}
	logger.InfoContext(ctx, "Knowledge base seeded", slog.Int("documents", len(seedDocuments)))
	return nil
}
