package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.DefaultPersonaID != "default" {
		t.Fatalf("DefaultPersonaID = %q, want %q", cfg.DefaultPersonaID, "default")
	}
	if cfg.DefaultModel != "gemini-1.5-flash-8b" {
		t.Fatalf("DefaultModel = %q, want %q", cfg.DefaultModel, "gemini-1.5-flash-8b")
	}
	if cfg.HistoryLimit != 50 {
		t.Fatalf("HistoryLimit = %d, want 50", cfg.HistoryLimit)
	}
	if cfg.TTSFallbackMode != TTSFallbackSingle {
		t.Fatalf("TTSFallbackMode = %q, want %q", cfg.TTSFallbackMode, TTSFallbackSingle)
	}
	if cfg.TTSReceiveTimeout != 5*time.Second {
		t.Fatalf("TTSReceiveTimeout = %v, want 5s", cfg.TTSReceiveTimeout)
	}
	if cfg.FallbackText == "" {
		t.Fatalf("FallbackText is empty, want default fallback sentence")
	}
	if cfg.DefaultWeatherLocation != "New York" {
		t.Fatalf("DefaultWeatherLocation = %q, want %q", cfg.DefaultWeatherLocation, "New York")
	}
}

func TestLoadRejectsUnknownTTSFallbackMode(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("TTS_FALLBACK_MODE", "stream")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want TTS_FALLBACK_MODE validation error")
	}
}

func TestLoadUsesExplicitOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("TTS_FALLBACK_MODE", "chunked")
	t.Setenv("TTS_RECEIVE_TIMEOUT", "2s")
	t.Setenv("ASSEMBLYAI_API_KEY", "  key-with-padding  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9191")
	}
	if cfg.TTSFallbackMode != TTSFallbackChunked {
		t.Fatalf("TTSFallbackMode = %q, want %q", cfg.TTSFallbackMode, TTSFallbackChunked)
	}
	if cfg.TTSReceiveTimeout != 2*time.Second {
		t.Fatalf("TTSReceiveTimeout = %v, want 2s", cfg.TTSReceiveTimeout)
	}
	if cfg.AssemblyAIAPIKey != "key-with-padding" {
		t.Fatalf("AssemblyAIAPIKey = %q, want trimmed value", cfg.AssemblyAIAPIKey)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_HISTORY_LIMIT",
		"ASSEMBLYAI_API_KEY",
		"MURF_API_KEY",
		"GEMINI_API_KEY",
		"OPENWEATHER_API_KEY",
		"DEFAULT_PERSONA_ID",
		"FALLBACK_TEXT",
		"LLM_DEFAULT_MODEL",
		"TTS_FALLBACK_MODE",
		"TTS_RECEIVE_TIMEOUT",
		"TTS_CHUNK_DELAY",
		"WEATHER_DEFAULT_LOCATION",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
