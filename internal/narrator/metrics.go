package narrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	narratorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nihilism_narrator_requests_total",
			Help: "Total number of requests to the narrative model.",
		},
		[]string{"provider", "model", "status"},
	)
	narratorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nihilism_narrator_request_duration_seconds",
			Help:    "Histogram of narrative model request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)
	narratorTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nihilism_narrator_tokens",
			Help:    "Token counts per request, by kind (prompt, completion).",
			Buckets: prometheus.LinearBuckets(100, 200, 15), // 100 .. 2900
		},
		[]string{"provider", "model", "kind"},
	)
	narratorFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nihilism_narrator_fallbacks_total",
			Help: "Responses that were not valid narrative JSON and fell back to plain narration.",
		},
		[]string{"provider", "model"},
	)
)

// UsageInfo holds token counts for one request. Estimated is set when the
// provider reported nothing and the counts come from the local tokenizer.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	Estimated        bool
}

func observeUsage(provider, model string, u UsageInfo) {
	if u.PromptTokens > 0 {
		narratorTokens.WithLabelValues(provider, model, "prompt").Observe(float64(u.PromptTokens))
	}
	if u.CompletionTokens > 0 {
		narratorTokens.WithLabelValues(provider, model, "completion").Observe(float64(u.CompletionTokens))
	}
}
