package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-trip-planner/internal/api/feedback"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/api/trip"
)

// Config contains the handlers the router wires up. Server-wide middleware
// (request ID, logging, recoverer) is applied before mounting this router in
// main.go.
type Config struct {
	TripHandler      *trip.HandlerImpl
	ItineraryHandler *itinerary.HandlerImpl
	FeedbackHandler  *feedback.HandlerImpl
}

// SetupRouter initializes and configures the main application router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/trips", func(r chi.Router) {
			r.Post("/", cfg.TripHandler.CreateTripRequestHandler)
			r.Get("/", cfg.TripHandler.ListTripRequestsHandler)
			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", cfg.TripHandler.GetTripRequestHandler)
				r.Delete("/", cfg.TripHandler.DeleteTripRequestHandler)
				r.Post("/retry", cfg.TripHandler.RetryGenerationHandler)
				r.Get("/itinerary", cfg.ItineraryHandler.GetActiveItineraryHandler)
				r.Get("/versions", cfg.ItineraryHandler.ListVersionsHandler)
				r.Get("/versions/compare", cfg.ItineraryHandler.CompareVersionsHandler)
				r.Post("/versions/{version}/restore", cfg.ItineraryHandler.RestoreVersionHandler)
			})
		})

		r.Route("/itineraries/{itineraryID}", func(r chi.Router) {
			r.Get("/", cfg.ItineraryHandler.GetItineraryHandler)
			r.Delete("/", cfg.ItineraryHandler.DeleteVersionHandler)
			r.Get("/activities", cfg.ItineraryHandler.GetActivitiesHandler)
			r.Get("/experiences", cfg.ItineraryHandler.GetExperiencesHandler)
			r.Post("/refine", cfg.ItineraryHandler.RefineItineraryHandler)
			r.Post("/weather/refresh", cfg.ItineraryHandler.RefreshWeatherHandler)
			r.Put("/rating", cfg.ItineraryHandler.RateItineraryHandler)
			r.Put("/favorite", cfg.ItineraryHandler.SetFavoriteHandler)

			r.Post("/feedback", cfg.FeedbackHandler.SubmitFeedbackHandler)
			r.Get("/feedback", cfg.FeedbackHandler.ListFeedbackHandler)
			r.Get("/feedback/stats", cfg.FeedbackHandler.RatingStatsHandler)
		})
	})

	return r
}
