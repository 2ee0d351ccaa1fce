// Package app assembles the service from configuration: providers, skills,
// session state, the turn orchestrator, and the HTTP surface.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ariavoice/aria/internal/apikeys"
	"github.com/ariavoice/aria/internal/archive"
	"github.com/ariavoice/aria/internal/config"
	"github.com/ariavoice/aria/internal/httpapi"
	"github.com/ariavoice/aria/internal/observability"
	"github.com/ariavoice/aria/internal/productivity"
	"github.com/ariavoice/aria/internal/session"
	"github.com/ariavoice/aria/internal/skills"
	"github.com/ariavoice/aria/internal/voice"
	"github.com/ariavoice/aria/internal/weather"
)

type BuildResult struct {
	Config       config.Config
	API          *httpapi.Server
	Sessions     *session.Manager
	Orchestrator *voice.Orchestrator
	Keys         *apikeys.Resolver
	Metrics      *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry, cfg.MetricsNamespace)
	turns := observability.NewTurnWindow(256)

	keys := apikeys.NewResolver(map[apikeys.Service]string{
		apikeys.ServiceAssemblyAI:  cfg.AssemblyAIAPIKey,
		apikeys.ServiceMurf:        cfg.MurfAPIKey,
		apikeys.ServiceGemini:      cfg.GeminiAPIKey,
		apikeys.ServiceOpenWeather: cfg.OpenWeatherAPIKey,
	})

	store, err := archive.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("archive store init failed: %w", err)
	}

	weatherClient := weather.NewClient(nil)
	manager := productivity.NewManager()
	dispatcher := skills.NewDispatcher(weatherClient, keys, manager, cfg.DefaultWeatherLocation)

	sessions := session.NewManager(cfg.HistoryLimit, cfg.DefaultPersonaID)

	stt := voice.NewAssemblyAIProvider(keys, voice.AssemblyAIConfig{})
	tts := voice.NewMurfProvider(keys, voice.MurfConfig{})
	llm := voice.NewGeminiProvider(keys)

	orchestrator := voice.NewOrchestrator(
		voice.OrchestratorConfig{
			FallbackText:       cfg.FallbackText,
			DefaultModel:       cfg.DefaultModel,
			TTSFallbackMode:    cfg.TTSFallbackMode,
			TTSSingleCharLimit: cfg.TTSSingleCharLimit,
			TTSChunkCharLimit:  cfg.TTSChunkCharLimit,
			TTSChunkDelay:      cfg.TTSChunkDelay,
			TTSReceiveTimeout:  cfg.TTSReceiveTimeout,
		},
		stt, tts, llm,
		dispatcher,
		sessions,
		store,
		metrics,
		turns,
	)

	api := httpapi.New(cfg, httpapi.Deps{
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Transcriber:  stt,
		Speech:       tts,
		LLM:          llm,
		Skills:       dispatcher,
		Weather:      weatherClient,
		Productivity: manager,
		Keys:         keys,
		Archive:      store,
		Metrics:      metrics,
		Gatherer:     registry,
	})

	cleanup := func() error {
		return store.Close()
	}

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Keys:         keys,
		Metrics:      metrics,
		Cleanup:      cleanup,
	}, nil
}
