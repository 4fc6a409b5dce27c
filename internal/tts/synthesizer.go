package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/sync/errgroup"
)

// SynthesizerConfig configures audio synthesis.
type SynthesizerConfig struct {
	// APIKey returns the current OpenAI API key. A function is used so that
	// keys saved at runtime take effect without a restart.
	APIKey func() string
	// Model is the TTS model. Default: tts-1.
	Model string
	// Voice is the speaking voice. Default: alloy.
	Voice string
	// MaxChunkSize caps the characters per synthesis request.
	MaxChunkSize int
	// Concurrency is the number of chunks synthesized in parallel. Default: 4.
	Concurrency int
	// BaseURL overrides the API base URL (for tests).
	BaseURL string
}

// Synthesizer converts scripts into MP3 audio using the OpenAI speech API.
// Long scripts are split at sentence boundaries, synthesized in parallel,
// and merged back in order.
type Synthesizer struct {
	cfg SynthesizerConfig
}

// NewSynthesizer creates a synthesizer with defaults applied.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	if cfg.APIKey == nil {
		cfg.APIKey = func() string { return "" }
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SpeechModelTTS1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Synthesizer{cfg: cfg}
}

// Synthesize renders the script to MP3 bytes. Chunk order is preserved in
// the output regardless of completion order.
func (s *Synthesizer) Synthesize(ctx context.Context, script string) ([]byte, error) {
	chunks := SplitScript(script, s.cfg.MaxChunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("tts: empty script")
	}

	client := s.newClient()

	if len(chunks) == 1 {
		return s.speak(ctx, client, chunks[0])
	}

	segments := make([][]byte, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			audio, err := s.speak(gctx, client, chunk)
			if err != nil {
				return fmt.Errorf("tts: chunk %d of %d: %w", i+1, len(chunks), err)
			}
			segments[i] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return bytes.Join(segments, nil), nil
}

// ChunkCount reports how many synthesis requests a script would need.
func (s *Synthesizer) ChunkCount(script string) int {
	return len(SplitScript(script, s.cfg.MaxChunkSize))
}

func (s *Synthesizer) newClient() openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(s.cfg.APIKey()),
		option.WithMaxRetries(3),
	}
	if s.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.cfg.BaseURL))
	}
	return openai.NewClient(opts...)
}

func (s *Synthesizer) speak(ctx context.Context, client openai.Client, chunk string) ([]byte, error) {
	resp, err := client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(s.cfg.Model),
		Voice: openai.AudioSpeechNewParamsVoice(s.cfg.Voice),
		Input: chunk,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
