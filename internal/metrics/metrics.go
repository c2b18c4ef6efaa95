package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess      = "success"
	ResultNotFound     = "not_found"
	ResultInvalid      = "invalid"
	ResultUpstreamFail = "upstream_error"
	ResultError        = "error"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sports_viewing_build_info",
		Help: "Build information of the sports viewing api",
	}, []string{"version", "env"})

	LocationLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_viewing_location_lookups_total", Help: "ZIP code lookups by result.",
	}, []string{"result"})

	RightsResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_viewing_rights_resolutions_total", Help: "Streaming rights resolutions by league and result.",
	}, []string{"league", "result"})
	RightsOffers = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sports_viewing_rights_offers",
		Help:    "Number of stream offers returned per resolution.",
		Buckets: []float64{0, 1, 2, 4, 8, 16},
	}, []string{"league"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sports_viewing_rights_upstream_duration_seconds",
		Help:    "Latency of league rights source calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"league", "result"})
	UpstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_viewing_rights_upstream_retries_total", Help: "Retried league rights source requests.",
	}, []string{"league"})

	DatasetReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_viewing_dataset_reloads_total", Help: "Market dataset reload attempts by result.",
	}, []string{"result"})
	DatasetRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sports_viewing_dataset_rows", Help: "Rows in the active market snapshot.",
	})
	DatasetZips = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sports_viewing_dataset_zips", Help: "Distinct ZIP codes in the active market snapshot.",
	})
	DatasetBuiltAt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sports_viewing_dataset_built_at_seconds", Help: "Unix time the active market snapshot was built.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
