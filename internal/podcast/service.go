// Package podcast turns a selected paper into a narrated episode: the PDF is
// fetched, summarized into a spoken-word script, and synthesized to audio.
package podcast

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/observability"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/pdf"
)

// Downloader fetches paper PDFs.
type Downloader interface {
	Download(ctx context.Context, url string) (*pdf.DownloadResult, error)
}

// ScriptWriter turns PDF bytes into a podcast script.
type ScriptWriter interface {
	Generate(ctx context.Context, pdf []byte) (string, error)
}

// AudioSynthesizer renders a script to audio bytes.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, script string) ([]byte, error)
	ChunkCount(script string) int
}

// Service generates podcast scripts and audio for papers.
type Service struct {
	downloader  Downloader
	scripts     ScriptWriter
	synthesizer AudioSynthesizer
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// NewService creates a podcast service.
func NewService(downloader Downloader, scripts ScriptWriter, synthesizer AudioSynthesizer, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		downloader:  downloader,
		scripts:     scripts,
		synthesizer: synthesizer,
		logger:      logger,
		metrics:     metrics,
	}
}

// GenerateScript downloads the paper's PDF and produces a podcast script.
// A failure at either stage is fatal for the request.
func (s *Service) GenerateScript(ctx context.Context, paperID, pdfLink string) (string, error) {
	if strings.TrimSpace(paperID) == "" {
		return "", domain.NewValidationError("paper_id", "paper_id is required")
	}
	if strings.TrimSpace(pdfLink) == "" {
		return "", domain.NewValidationError("pdf_link", "pdf_link is required")
	}

	logger := observability.WithPodcastContext(s.logger, paperID, pdfLink)

	result, err := s.downloader.Download(ctx, pdfLink)
	if err != nil {
		s.metrics.RecordPodcastFailed()
		return "", domain.NewServiceError("script", 0, fmt.Sprintf("downloading paper PDF: %v", err), err)
	}
	logger.Debug().Int64("pdf_bytes", result.SizeBytes).Msg("paper PDF downloaded")

	script, err := s.scripts.Generate(ctx, result.Content)
	if err != nil {
		s.metrics.RecordPodcastFailed()
		return "", domain.NewServiceError("script", 0, fmt.Sprintf("generating podcast script: %v", err), err)
	}

	s.metrics.RecordPodcastGenerated()
	logger.Info().Int("script_chars", len(script)).Msg("podcast script generated")
	return script, nil
}

// SynthesizeAudio renders a script to MP3 bytes.
func (s *Service) SynthesizeAudio(ctx context.Context, paperID, script string) ([]byte, error) {
	if strings.TrimSpace(script) == "" {
		return nil, domain.NewValidationError("script", "script is required")
	}

	chunks := s.synthesizer.ChunkCount(script)
	audio, err := s.synthesizer.Synthesize(ctx, script)
	if err != nil {
		s.metrics.RecordAudioSynthesis(false, chunks)
		return nil, domain.NewServiceError("audio", 0, fmt.Sprintf("synthesizing audio: %v", err), err)
	}

	s.metrics.RecordAudioSynthesis(true, chunks)
	paperLogger := observability.WithPaperContext(s.logger, paperID)
	paperLogger.Info().
		Int("chunks", chunks).
		Int("audio_bytes", len(audio)).
		Msg("podcast audio synthesized")
	return audio, nil
}
