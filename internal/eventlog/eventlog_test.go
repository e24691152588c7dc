package eventlog

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

func TestEvent_ValidateRejectsBadOp(t *testing.T) {
	ev := Event{Version: 1, Op: "bogus", FeatureID: "f1", TS: time.Now()}
	if err := ev.Validate(); err == nil {
		t.Fatalf("expected validation error for bad op")
	}
}

func TestEvent_ValidateRejectsMissingFeatureID(t *testing.T) {
	ev := Event{Version: 1, Op: "create", TS: time.Now()}
	if err := ev.Validate(); err == nil {
		t.Fatalf("expected validation error for missing feature_id")
	}
}

func TestEvent_ValidateAcceptsWellFormed(t *testing.T) {
	ev := Event{Version: 1, Op: "update", FeatureID: "f1", TS: time.Now()}
	if err := ev.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	cfg := FromEnv()
	if cfg.Enabled {
		t.Fatalf("expected disabled by default")
	}
	if cfg.Topic != "terradraw-changes" {
		t.Fatalf("topic=%q want terradraw-changes", cfg.Topic)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != "localhost:9092" {
		t.Fatalf("brokers=%v want [localhost:9092]", cfg.Brokers)
	}
}

func TestProducer_DisabledPublishIsNoop(t *testing.T) {
	st := store.New()
	if _, err := st.Create([]store.CreateEntry{{
		Geometry:   model.NewPoint(geometry.Point{Lng: 1, Lat: 2}),
		Properties: model.Properties{model.PropMode: "point"},
	}}); err != nil {
		t.Fatalf("seed create: %v", err)
	}

	reg := prometheus.NewRegistry()
	p := New(Config{Enabled: false}, zerolog.Nop(), st, reg)

	// Publish must not panic or dial anything when disabled.
	p.Publish([]string{"whatever"}, "update")
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestProducer_UnreachableBrokerDegradesToNoop(t *testing.T) {
	st := store.New()
	reg := prometheus.NewRegistry()
	p := New(Config{Enabled: true, Brokers: []string{"127.0.0.1:1"}, Topic: "t"}, zerolog.Nop(), st, reg)

	// Dialing an unreachable broker must not error out of New; Publish
	// on the resulting no-op producer must be safe.
	p.Publish([]string{"f1"}, "create")
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
