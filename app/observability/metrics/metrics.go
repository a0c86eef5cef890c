package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the pipeline's metric instruments.
type AppMetrics struct {
	GenerationsTotal         metric.Int64Counter
	GenerationFailuresTotal  metric.Int64Counter
	GenerationDurationSecs   metric.Float64Histogram
	LLMCallDurationSecs      metric.Float64Histogram
	NormalizerFallbacksTotal metric.Int64Counter
	RefinementsTotal         metric.Int64Counter
	VersionsCreatedTotal     metric.Int64Counter
	DbQueryDurationSecs      metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments from the global MeterProvider, once.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("trip-planner")
		var err error
		m := &AppMetrics{}

		m.GenerationsTotal, err = meter.Int64Counter(
			"itinerary_generations_total",
			metric.WithDescription("Total itinerary generation pipeline runs"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create itinerary_generations_total: %v", err)
		}

		m.GenerationFailuresTotal, err = meter.Int64Counter(
			"itinerary_generation_failures_total",
			metric.WithDescription("Generation runs that ended in failed status"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create itinerary_generation_failures_total: %v", err)
		}

		m.GenerationDurationSecs, err = meter.Float64Histogram(
			"itinerary_generation_duration_seconds",
			metric.WithDescription("Duration of full generation pipeline runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create itinerary_generation_duration_seconds: %v", err)
		}

		m.LLMCallDurationSecs, err = meter.Float64Histogram(
			"llm_call_duration_seconds",
			metric.WithDescription("Duration of individual LLM calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create llm_call_duration_seconds: %v", err)
		}

		m.NormalizerFallbacksTotal, err = meter.Int64Counter(
			"response_normalizer_fallbacks_total",
			metric.WithDescription("Model responses that fell through all parse attempts"),
			metric.WithUnit("{response}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create response_normalizer_fallbacks_total: %v", err)
		}

		m.RefinementsTotal, err = meter.Int64Counter(
			"itinerary_refinements_total",
			metric.WithDescription("Chat refinement requests processed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create itinerary_refinements_total: %v", err)
		}

		m.VersionsCreatedTotal, err = meter.Int64Counter(
			"itinerary_versions_created_total",
			metric.WithDescription("New itinerary versions written"),
			metric.WithUnit("{version}"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create itinerary_versions_created_total: %v", err)
		}

		m.DbQueryDurationSecs, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized instruments; InitAppMetrics must run first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
