package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the metrics surface the rest of the module depends on.
// NoopRecorder satisfies it with zero cost, so standing up a metrics
// listener is opt-in, never required for the core to function.
type Recorder interface {
	TurnCompleted(model string)
	ToolInvoked(name, outcome string)
	LLMCallDuration(provider, model string, d time.Duration)
	CompactionPerformed()
}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

func (NoopRecorder) TurnCompleted(model string)                              {}
func (NoopRecorder) ToolInvoked(name, outcome string)                        {}
func (NoopRecorder) LLMCallDuration(provider, model string, d time.Duration) {}
func (NoopRecorder) CompactionPerformed()                                    {}

// PrometheusRecorder records the core's events as prometheus collectors
// registered against reg.
type PrometheusRecorder struct {
	turns       *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	compactions prometheus.Counter
}

// NewPrometheusRecorder creates and registers the collectors against reg;
// a nil reg registers them against prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcore",
			Name:      "turns_completed_total",
			Help:      "Number of turns completed, labelled by model.",
		}, []string{"model"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcore",
			Name:      "tool_invocations_total",
			Help:      "Number of tool invocations, labelled by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentcore",
			Name:      "llm_call_duration_seconds",
			Help:      "LLM call latency, labelled by provider and model.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "model"}),
		compactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentcore",
			Name:      "compactions_total",
			Help:      "Number of times a session's history was compacted.",
		}),
	}
	reg.MustRegister(r.turns, r.toolCalls, r.llmDuration, r.compactions)
	return r
}

func (r *PrometheusRecorder) TurnCompleted(model string) {
	r.turns.WithLabelValues(model).Inc()
}

func (r *PrometheusRecorder) ToolInvoked(name, outcome string) {
	r.toolCalls.WithLabelValues(name, outcome).Inc()
}

func (r *PrometheusRecorder) LLMCallDuration(provider, model string, d time.Duration) {
	r.llmDuration.WithLabelValues(provider, model).Observe(d.Seconds())
}

func (r *PrometheusRecorder) CompactionPerformed() {
	r.compactions.Inc()
}
