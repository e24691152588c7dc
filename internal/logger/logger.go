// Package logger builds the structured zerolog.Logger every component
// in terradraw-core receives through its Config, and carries the
// request-scoped fields (mode, feature id, scope id) through
// context.Context the way the teacher's logger package does.
package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls Build's output shape.
type Config struct {
	Level   string
	Console bool
	SampleN int
	// Component names the subsystem (e.g. "coordinator", "httpapi").
	Component string
}

type ctxKey string

const (
	ctxRequestID ctxKey = "request_id"
	ctxMode      ctxKey = "mode"
	ctxFeatureID ctxKey = "feature_id"
	ctxScopeID   ctxKey = "scope_id"
)

func WithRequestID(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		reqID = NewID()
	}
	return context.WithValue(ctx, ctxRequestID, reqID)
}

func WithMode(ctx context.Context, mode string) context.Context {
	if mode == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxMode, mode)
}

func WithFeatureID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxFeatureID, id)
}

func WithScopeID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxScopeID, id)
}

// NewID returns a short random hex id, used for request and scope ids.
func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func safeUint32(n int) uint32 {
	if n <= 0 {
		return 0
	}
	if n > int(math.MaxUint32) {
		return math.MaxUint32
	}
	return uint32(n)
}

// Build constructs the base logger; out defaults to os.Stdout.
func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "msg"

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	base := zerolog.New(out)

	if cfg.SampleN > 0 {
		if n := safeUint32(cfg.SampleN); n > 0 {
			base = base.Sample(&zerolog.BasicSampler{N: n})
		}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := base.With().Timestamp()
	if cfg.Component != "" {
		ctx = ctx.Str("component", cfg.Component)
	}
	return ctx.Logger()
}

// FromContext returns a child of parent with any mode/feature/scope/
// request fields found on ctx attached.
func FromContext(ctx context.Context, parent *zerolog.Logger) *zerolog.Logger {
	var base zerolog.Logger
	if parent == nil {
		base = zerolog.New(io.Discard)
	} else {
		base = *parent
	}
	w := base.With()
	for key, field := range map[ctxKey]string{
		ctxRequestID: "request_id",
		ctxMode:      "mode",
		ctxFeatureID: "feature_id",
		ctxScopeID:   "scope_id",
	} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			w = w.Str(field, v)
		}
	}
	l := w.Logger()
	return &l
}
