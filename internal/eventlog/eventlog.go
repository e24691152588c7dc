// Package eventlog publishes a one-way audit feed of every store
// mutation to Kafka. Grounded on the teacher's pkg/invalidation/kafka
// producer-adjacent pieces (WireEvent schema, metricSet shape), adapted
// from the teacher's consumer role (reacting to upstream invalidation)
// to a producer role (announcing this module's own changes) since
// TerraDraw has no upstream cache to invalidate.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// Config controls whether and where the producer publishes.
type Config struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from the environment, in the teacher's
// FromEnv/getenv style.
func FromEnv() Config {
	enabled := strings.ToLower(os.Getenv("KAFKA_ENABLED")) == "true"
	brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokers == "" {
		brokers = "localhost:9092"
	}
	topic := strings.TrimSpace(os.Getenv("KAFKA_TOPIC"))
	if topic == "" {
		topic = "terradraw-changes"
	}
	return Config{Enabled: enabled, Brokers: split(brokers), Topic: topic}
}

func split(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}

// Event is the wire schema published for every changed feature id, one
// message per id, keyed on FeatureID so a consumer group partitions by
// feature. Mirrors the shape of the teacher's invalidation.Event but
// carries a feature's current geometry/properties rather than a
// bbox/cell-set to invalidate.
type Event struct {
	Version    int             `json:"version"`
	Op         string          `json:"op"`
	FeatureID  string          `json:"feature_id"`
	TS         time.Time       `json:"ts"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
	Properties model.Properties `json:"properties,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "create", "update", "delete":
	default:
		return fmt.Errorf("op must be create|update|delete")
	}
	if strings.TrimSpace(e.FeatureID) == "" {
		return fmt.Errorf("feature_id is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}

type metricSet struct {
	published *prometheus.CounterVec
}

func newMetricSet(r prometheus.Registerer) *metricSet {
	m := &metricSet{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventlog_published_total",
			Help: "Count of change events published by result.",
		}, []string{"result"}),
	}
	if r != nil {
		r.MustRegister(m.published)
	}
	return m
}

// Producer publishes one Event per changed feature id. A Producer built
// with Config.Enabled false (or whose sarama client failed to dial) is
// a safe no-op — Publish becomes a cheap discard rather than an error,
// so the coordinator can always install it as an OnChange callback.
type Producer struct {
	cfg   Config
	log   zerolog.Logger
	store store.Store
	sp    sarama.SyncProducer
	ms    *metricSet
}

// New dials a sarama synchronous producer when cfg.Enabled; on dial
// failure it logs a warning and returns a no-op Producer rather than an
// error, since the audit feed is not required for drawing to function.
func New(cfg Config, log zerolog.Logger, st store.Store, reg prometheus.Registerer) *Producer {
	p := &Producer{cfg: cfg, log: log, store: st, ms: newMetricSet(reg)}
	if !cfg.Enabled {
		return p
	}
	scfg := sarama.NewConfig()
	scfg.Version = sarama.V2_5_0_0
	scfg.Producer.RequiredAcks = sarama.WaitForLocal
	scfg.Producer.Return.Successes = true
	scfg.Producer.Retry.Max = 3

	sp, err := sarama.NewSyncProducer(cfg.Brokers, scfg)
	if err != nil {
		log.Warn().Err(err).Strs("brokers", cfg.Brokers).Msg("eventlog: sync producer dial failed, publishing disabled")
		return p
	}
	p.sp = sp
	return p
}

// Publish is installed as a Coordinator.OnChange callback: it emits one
// Event per id in ids, looking up the feature's current geometry (for
// create/update) from store. Errors are logged, never returned — a
// broker outage must not interrupt drawing.
func (p *Producer) Publish(ids []string, op string) {
	if p == nil || p.sp == nil {
		return
	}
	for _, id := range ids {
		ev := Event{Version: 1, Op: op, FeatureID: id, TS: time.Now().UTC()}
		if op != "delete" {
			if g, ok := p.store.GetGeometryCopy(id); ok {
				if b, err := json.Marshal(g); err == nil {
					ev.Geometry = b
				}
			}
			if props, ok := p.store.GetPropertiesCopy(id); ok {
				ev.Properties = props
			}
		}
		if err := ev.Validate(); err != nil {
			p.log.Warn().Err(err).Str("feature_id", id).Msg("eventlog: built an invalid event, skipping")
			p.ms.published.WithLabelValues("invalid").Inc()
			continue
		}
		b, err := json.Marshal(ev)
		if err != nil {
			p.log.Warn().Err(err).Str("feature_id", id).Msg("eventlog: marshal failed")
			p.ms.published.WithLabelValues("error").Inc()
			continue
		}
		msg := &sarama.ProducerMessage{
			Topic: p.cfg.Topic,
			Key:   sarama.StringEncoder(id),
			Value: sarama.ByteEncoder(b),
		}
		if _, _, err := p.sp.SendMessage(msg); err != nil {
			p.log.Warn().Err(err).Str("feature_id", id).Str("op", op).Msg("eventlog: publish failed")
			p.ms.published.WithLabelValues("error").Inc()
			continue
		}
		p.ms.published.WithLabelValues("ok").Inc()
	}
}

// Close releases the underlying sarama producer, if one was dialed.
func (p *Producer) Close() error {
	if p == nil || p.sp == nil {
		return nil
	}
	return p.sp.Close()
}
