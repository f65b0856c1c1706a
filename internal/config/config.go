package config

import (
	"os"
	"strconv"
	"time"
)

// Config is read from the environment, with defaults that run the demo
// out of the box.
type Config struct {
	ListenAddr string
	DataFile   string

	MockLatencyMin  time.Duration
	MockLatencyMax  time.Duration
	MockFailureRate float64
}

func Load() *Config {
	return &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		DataFile:        getEnv("DATA_FILE", "tradeyard.json"),
		MockLatencyMin:  time.Duration(getEnvInt("MOCK_LATENCY_MIN_MS", 800)) * time.Millisecond,
		MockLatencyMax:  time.Duration(getEnvInt("MOCK_LATENCY_MAX_MS", 2500)) * time.Millisecond,
		MockFailureRate: getEnvFloat("MOCK_FAILURE_RATE", 0.1),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
