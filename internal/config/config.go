package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// TTS fallback delivery modes used when no realtime TTS stream is available.
const (
	TTSFallbackSingle  = "single"
	TTSFallbackChunked = "chunked"
)

// Config contains all runtime settings for the aria voice service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	AssemblyAIAPIKey  string
	MurfAPIKey        string
	GeminiAPIKey      string
	OpenWeatherAPIKey string

	DefaultPersonaID string
	FallbackText     string
	DefaultModel     string
	HistoryLimit     int

	// TTSFallbackMode selects "single" (one truncated clip) or "chunked"
	// (sentence-packed chunks with a small inter-chunk delay) when the
	// realtime TTS stream is unavailable.
	TTSFallbackMode    string
	TTSSingleCharLimit int
	TTSChunkCharLimit  int
	TTSChunkDelay      time.Duration
	TTSReceiveTimeout  time.Duration

	DefaultWeatherLocation string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "aria"),
		AllowAnyOrigin:    false,
		AssemblyAIAPIKey:  stringsTrimSpace("ASSEMBLYAI_API_KEY"),
		MurfAPIKey:        stringsTrimSpace("MURF_API_KEY"),
		GeminiAPIKey:      stringsTrimSpace("GEMINI_API_KEY"),
		OpenWeatherAPIKey: stringsTrimSpace("OPENWEATHER_API_KEY"),
		DefaultPersonaID:  envOrDefault("DEFAULT_PERSONA_ID", "default"),
		FallbackText:      envOrDefault("FALLBACK_TEXT", "I'm having trouble connecting right now. Please try again."),
		DefaultModel:      envOrDefault("LLM_DEFAULT_MODEL", "gemini-1.5-flash-8b"),
		HistoryLimit:      50,
		TTSFallbackMode:   envOrDefault("TTS_FALLBACK_MODE", TTSFallbackSingle),
		// 3000 is the Murf per-request character ceiling.
		TTSSingleCharLimit:     3000,
		TTSChunkCharLimit:      500,
		TTSChunkDelay:          100 * time.Millisecond,
		TTSReceiveTimeout:      5 * time.Second,
		DefaultWeatherLocation: envOrDefault("WEATHER_DEFAULT_LOCATION", "New York"),
		DatabaseURL:            stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:        15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("APP_HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.TTSReceiveTimeout, err = durationFromEnv("TTS_RECEIVE_TIMEOUT", cfg.TTSReceiveTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TTSChunkDelay, err = durationFromEnv("TTS_CHUNK_DELAY", cfg.TTSChunkDelay)
	if err != nil {
		return Config{}, err
	}

	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("APP_HISTORY_LIMIT must be positive")
	}
	if cfg.TTSFallbackMode != TTSFallbackSingle && cfg.TTSFallbackMode != TTSFallbackChunked {
		return Config{}, fmt.Errorf("TTS_FALLBACK_MODE must be %q or %q", TTSFallbackSingle, TTSFallbackChunked)
	}
	if cfg.TTSReceiveTimeout <= 0 {
		return Config{}, fmt.Errorf("TTS_RECEIVE_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
