// Package config loads terradraw-core's runtime configuration from the
// environment, in the teacher's FromEnv/getenv style.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the composition root's full runtime configuration.
type Config struct {
	Addr     string
	LogLevel string
	Console  bool

	RedisAddr string

	KafkaBrokers string
	KafkaTopic   string
	KafkaEnabled bool

	SpatialIndexRes int
	GeoCacheSize    int

	PointerDistancePx    float64
	SelectMinDragPx      float64
	MetricsNamespace     string
	FlagsPath            string
}

// FromEnv builds a Config from the environment, defaulting every field.
func FromEnv() Config {
	return Config{
		Addr:              getenv("ADDR", ":8090"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		Console:           getbool("LOG_CONSOLE", false),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:      getenv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:        getenv("KAFKA_TOPIC", "terradraw-changes"),
		KafkaEnabled:      getbool("KAFKA_ENABLED", false),
		SpatialIndexRes:   getint("SPATIAL_INDEX_RES", 9),
		GeoCacheSize:      getint("GEOCACHE_SIZE", 4096),
		PointerDistancePx: getfloat("POINTER_DISTANCE_PX", 40),
		SelectMinDragPx:   getfloat("SELECT_MIN_DRAG_PX", 8),
		MetricsNamespace:  getenv("METRICS_NAMESPACE", "terradraw"),
		FlagsPath:         getenv("FLAGS_PATH", ""),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}
