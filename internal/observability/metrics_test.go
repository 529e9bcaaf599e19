package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNoopRecorderNeverPanics(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.TurnCompleted("main")
	r.ToolInvoked("shell", "ok")
	r.LLMCallDuration("anthropic", "claude", 10*time.Millisecond)
	r.CompactionPerformed()
}

func TestPrometheusRecorderRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.TurnCompleted("main")
	r.ToolInvoked("shell", "ok")
	r.LLMCallDuration("anthropic", "claude", 5*time.Millisecond)
	r.CompactionPerformed()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected at least one registered metric family")
	}
}
