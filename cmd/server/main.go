// Package main provides the entry point for the paper podcast service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/config"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/credentials"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/llm"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/observability"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/pdf"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/pipeline"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/podcast"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/searchapi"
	httpserver "github.com/Diego-Ornelas/Ai-paper-podcast/internal/server/http"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/tts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("paper-podcast service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	// API keys can be saved at runtime, so every client reads them through
	// the credentials manager instead of holding a copy.
	creds := credentials.NewManager(cfg.Credentials.EnvFile)
	if !creds.Configured() {
		logger.Warn().Msg("API credentials not configured, searches are deferred until keys are saved")
	}

	// Paper search backend client.
	backend := searchapi.NewClient(cfg.Backend.BaseURL, searchapi.HTTPClientConfig{
		Timeout:    cfg.Backend.Timeout,
		RateLimit:  cfg.Backend.RateLimit,
		BurstSize:  cfg.Backend.BurstSize,
		MaxRetries: cfg.Backend.MaxRetries,
	})

	// Model clients. Categorization runs on OpenAI chat with JSON mode;
	// titles and PDF-grounded scripts run on Gemini.
	openaiChat := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  creds.OpenAIKey,
		Model:   cfg.LLM.OpenAI.Model,
		BaseURL: cfg.LLM.OpenAI.BaseURL,
	}, cfg.LLM.Timeout, cfg.LLM.MaxRetries)

	gemini := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:  creds.GeminiKey,
		Model:   cfg.LLM.Gemini.Model,
		BaseURL: cfg.LLM.Gemini.BaseURL,
	}, cfg.LLM.Timeout, cfg.LLM.MaxRetries)

	scriptGemini := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:  creds.GeminiKey,
		Model:   cfg.LLM.Gemini.ScriptModel,
		BaseURL: cfg.LLM.Gemini.BaseURL,
	}, cfg.LLM.ScriptTimeout, cfg.LLM.MaxRetries)

	// Search pipeline.
	manager := pipeline.NewManager()
	runner := pipeline.NewRunner(
		backend,
		llm.NewCategorizer(openaiChat),
		llm.NewTitleEnricher(gemini),
		manager,
		logger,
		metrics,
		pipeline.Config{EnrichConcurrency: cfg.Pipeline.EnrichConcurrency},
	)

	// Podcast generation.
	downloader := pdf.NewDownloader(pdf.Config{
		Timeout: cfg.PDF.Timeout,
		MaxSize: cfg.PDF.MaxSizeMB * 1024 * 1024,
	})
	synthesizer := tts.NewSynthesizer(tts.SynthesizerConfig{
		APIKey:       creds.OpenAIKey,
		Model:        cfg.TTS.Model,
		Voice:        cfg.TTS.Voice,
		MaxChunkSize: cfg.TTS.MaxChunkSize,
		Concurrency:  cfg.TTS.Concurrency,
	})
	podcasts := podcast.NewService(
		downloader,
		llm.NewScriptGenerator(scriptGemini, ""),
		synthesizer,
		logger,
		metrics,
	)

	// HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, runner, manager, podcasts, creds, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: 30 * time.Second,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP REST API server in background.
	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("HTTP REST API server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("paper-podcast service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down paper-podcast service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("paper-podcast service shutdown complete")
	return nil
}
