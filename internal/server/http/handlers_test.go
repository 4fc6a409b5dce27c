package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/credentials"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/llm"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/observability"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/pdf"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/pipeline"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/podcast"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

type mockBackend struct {
	byCategory map[string][]*domain.Paper
	top        []*domain.Paper
}

func (m *mockBackend) Collect(_ context.Context, _, _ string) (map[string][]*domain.Paper, error) {
	return m.byCategory, nil
}

func (m *mockBackend) TopResults(_ context.Context, _ string) ([]*domain.Paper, error) {
	return m.top, nil
}

type mockCategorizer struct {
	result *llm.CategorizationResult
	err    error
}

func (m *mockCategorizer) Categorize(_ context.Context, _ string) (*llm.CategorizationResult, error) {
	return m.result, m.err
}

type mockTitler struct{}

func (mockTitler) PlainTitle(_ context.Context, title, _ string) (string, error) {
	return "plain " + title, nil
}

type mockDownloader struct {
	content []byte
	err     error
}

func (m *mockDownloader) Download(_ context.Context, _ string) (*pdf.DownloadResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &pdf.DownloadResult{Content: m.content, SizeBytes: int64(len(m.content))}, nil
}

type mockScriptWriter struct {
	script string
	err    error
}

func (m *mockScriptWriter) Generate(_ context.Context, _ []byte) (string, error) {
	return m.script, m.err
}

type mockSynthesizer struct {
	audio []byte
	err   error
}

func (m *mockSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return m.audio, m.err
}

func (m *mockSynthesizer) ChunkCount(_ string) int { return 1 }

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// testDeps overrides server dependencies; nil fields get working defaults.
type testDeps struct {
	backend     pipeline.Backend
	categorizer pipeline.Categorizer
	downloader  podcast.Downloader
	scripts     podcast.ScriptWriter
	synthesizer podcast.AudioSynthesizer
	creds       *credentials.Manager
}

type testEnv struct {
	server  *Server
	manager *pipeline.Manager
}

func newTestEnv(t *testing.T, deps testDeps) *testEnv {
	t.Helper()

	if deps.backend == nil {
		deps.backend = &mockBackend{}
	}
	if deps.categorizer == nil {
		deps.categorizer = &mockCategorizer{result: &llm.CategorizationResult{
			Categories:  []string{"cs.LG", "cs.AI", "stat.ML"},
			CategoryMap: domain.CategoryMap{"cs.LG": "Machine Learning", "cs.AI": "AI", "stat.ML": "Statistics"},
		}}
	}
	if deps.downloader == nil {
		deps.downloader = &mockDownloader{content: []byte("%PDF-1.4 test")}
	}
	if deps.scripts == nil {
		deps.scripts = &mockScriptWriter{script: "Welcome to the show."}
	}
	if deps.synthesizer == nil {
		deps.synthesizer = &mockSynthesizer{audio: []byte("mp3-bytes")}
	}
	if deps.creds == nil {
		deps.creds = configuredCreds(t)
	}

	logger := zerolog.Nop()
	metrics := observability.NewMetricsWithRegistry("papercast_test", prometheus.NewRegistry())
	manager := pipeline.NewManager()
	runner := pipeline.NewRunner(deps.backend, deps.categorizer, mockTitler{}, manager, logger, metrics, pipeline.Config{})
	podcasts := podcast.NewService(deps.downloader, deps.scripts, deps.synthesizer, logger, metrics)

	srv := NewServer(Config{Address: "127.0.0.1:0"}, runner, manager, podcasts, deps.creds, logger)
	return &testEnv{server: srv, manager: manager}
}

// configuredCreds returns a manager with both provider keys set.
func configuredCreds(t *testing.T) *credentials.Manager {
	t.Helper()
	t.Setenv(credentials.GeminiKeyEnv, "gemini-test-key")
	t.Setenv(credentials.OpenAIKeyEnv, "sk-openai-test-key")
	return credentials.NewManager("")
}

// unconfiguredCreds returns a manager with no keys set.
func unconfiguredCreds(t *testing.T) *credentials.Manager {
	t.Helper()
	t.Setenv(credentials.GeminiKeyEnv, "")
	t.Setenv(credentials.OpenAIKeyEnv, "")
	return credentials.NewManager("")
}

// serveHTTP dispatches a request through the test server's router and
// returns the recorder.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, r)
	return rr
}

// decodeJSON decodes a JSON response body into the given target.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(target))
}

// startAndFinishSearch submits a search and waits for the session to reach a
// terminal state.
func startAndFinishSearch(t *testing.T, env *testEnv, body string) string {
	t.Helper()

	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/searches", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var resp startSearchResponse
	decodeJSON(t, rr, &resp)
	require.NotEmpty(t, resp.SearchID)

	entry, ok := env.manager.Get(uuid.MustParse(resp.SearchID))
	require.True(t, ok)
	require.Eventually(t, entry.Tracker.Terminal, 5*time.Second, 5*time.Millisecond)
	return resp.SearchID
}

func score(v int) *int { return &v }

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, testDeps{})
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListTopics(t *testing.T) {
	env := newTestEnv(t, testDeps{})
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/api/v1/topics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Topics []domain.Topic `json:"topics"`
	}
	decodeJSON(t, rr, &resp)
	assert.Len(t, resp.Topics, len(domain.DefaultTopics))
	assert.Equal(t, "cs.AI", resp.Topics[0].Code)
}

func TestStartSearch_QuerySuccess(t *testing.T) {
	backend := &mockBackend{
		byCategory: map[string][]*domain.Paper{
			"cs.LG": {
				{ID: "lg1", Title: "Graph Networks", Abstract: "About graphs", RelevanceScore: score(91)},
				{ID: "lg2", Title: "Deep Learning", Abstract: "About depth", RelevanceScore: score(84)},
			},
			"cs.AI":   {{ID: "ai1", Title: "Planning", Abstract: "About plans", RelevanceScore: score(77)}},
			"stat.ML": {},
		},
		top: []*domain.Paper{{ID: "lg1", Title: "Graph Networks", Abstract: "About graphs", RelevanceScore: score(91)}},
	}
	env := newTestEnv(t, testDeps{backend: backend})

	searchID := startAndFinishSearch(t, env, `{"query":"graph neural networks"}`)

	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/api/v1/searches/"+searchID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp searchResponse
	decodeJSON(t, rr, &resp)
	assert.Equal(t, "graph neural networks", resp.Query)
	assert.Equal(t, string(pipeline.ViewGrouped), resp.View)
	require.Len(t, resp.Categories, 3)
	assert.Equal(t, "cs.LG", resp.Categories[0].Code)
	assert.Equal(t, "Machine Learning", resp.Categories[0].Label)
	require.Len(t, resp.Categories[0].Papers, 2)
	assert.True(t, resp.Categories[0].Papers[0].InTopResults)
	assert.Equal(t, "plain Graph Networks", resp.Categories[0].Papers[0].PlainTitle)
	assert.Equal(t, string(domain.PlainTitleReady), resp.Categories[0].Papers[0].PlainTitleState)
	assert.Empty(t, resp.Categories[2].Papers)
	require.Len(t, resp.TopResults, 1)
	assert.Equal(t, 3, resp.Enrichment.Total)
	assert.Equal(t, 3, resp.Enrichment.Done)

	for _, step := range resp.Progress {
		assert.Equal(t, "complete", string(step.Status))
	}
}

func TestStartSearch_TopicsFallbackView(t *testing.T) {
	backend := &mockBackend{
		byCategory: map[string][]*domain.Paper{
			"cs.LG":    {{ID: "lg1", Title: "Kernels", Abstract: "About kernels", RelevanceScore: score(60)}},
			"quant-ph": {{ID: "q1", Title: "Qubits", Abstract: "About qubits", RelevanceScore: score(70)}},
		},
	}
	env := newTestEnv(t, testDeps{backend: backend})

	searchID := startAndFinishSearch(t, env, `{"topics":["Machine Learning","Quantum Physics"]}`)

	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/api/v1/searches/"+searchID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp searchResponse
	decodeJSON(t, rr, &resp)
	assert.Equal(t, string(pipeline.ViewFallback), resp.View)
	assert.Empty(t, resp.Categories)
	require.Len(t, resp.Papers, 2)
}

func TestStartSearch_RequiresExactlyOneOfQueryOrTopics(t *testing.T) {
	env := newTestEnv(t, testDeps{})

	for name, body := range map[string]string{
		"neither": `{}`,
		"both":    `{"query":"x","topics":["Machine Learning"]}`,
		"blank":   `{"query":"   "}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/searches", bytes.NewBufferString(body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestStartSearch_UnknownTopicsRejected(t *testing.T) {
	env := newTestEnv(t, testDeps{})
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/searches", bytes.NewBufferString(`{"topics":["Underwater Basket Weaving"]}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStartSearch_CredentialsGate(t *testing.T) {
	env := newTestEnv(t, testDeps{creds: unconfiguredCreds(t)})
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/searches", bytes.NewBufferString(`{"query":"graph neural networks"}`)))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestStartSearch_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, testDeps{})
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/searches", bytes.NewBufferString(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetSearch_NotFound(t *testing.T) {
	env := newTestEnv(t, testDeps{})
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/api/v1/searches/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetSearch_InvalidID(t *testing.T) {
	env := newTestEnv(t, testDeps{})
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/api/v1/searches/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGenerateScript_Success(t *testing.T) {
	env := newTestEnv(t, testDeps{scripts: &mockScriptWriter{script: "Today we discuss qubits."}})

	body := `{"paper_id":"p1","pdf_link":"https://arxiv.org/pdf/1234.5678"}`
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/podcasts", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp podcastResponse
	decodeJSON(t, rr, &resp)
	assert.Equal(t, "p1", resp.PaperID)
	assert.Equal(t, "Today we discuss qubits.", resp.Script)
}

func TestGenerateScript_Validation(t *testing.T) {
	env := newTestEnv(t, testDeps{})

	for name, body := range map[string]string{
		"missing paper_id": `{"pdf_link":"https://arxiv.org/pdf/1234.5678"}`,
		"missing pdf_link": `{"paper_id":"p1"}`,
		"bad pdf_link":     `{"paper_id":"p1","pdf_link":"not-a-url"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/podcasts", bytes.NewBufferString(body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGenerateScript_DownloadFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t, testDeps{downloader: &mockDownloader{err: pdf.ErrDownloadFailed}})

	body := `{"paper_id":"p1","pdf_link":"https://arxiv.org/pdf/1234.5678"}`
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/podcasts", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestSynthesizeAudio_Success(t *testing.T) {
	env := newTestEnv(t, testDeps{synthesizer: &mockSynthesizer{audio: []byte("mp3-data")}})

	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/api/v1/podcasts/p1/audio?script=Hello+world", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "audio/mpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="p1.mp3"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, []byte("mp3-data"), rr.Body.Bytes())
}

func TestSynthesizeAudio_RequiresScript(t *testing.T) {
	env := newTestEnv(t, testDeps{})
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/api/v1/podcasts/p1/audio", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCredentials_GetStatus(t *testing.T) {
	env := newTestEnv(t, testDeps{creds: unconfiguredCreds(t)})

	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodGet, "/api/v1/credentials", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var status credentials.Status
	decodeJSON(t, rr, &status)
	assert.False(t, status.GeminiConfigured)
	assert.False(t, status.OpenAIConfigured)
	assert.False(t, status.AllConfigured)
}

func TestCredentials_SaveThenConfigured(t *testing.T) {
	env := newTestEnv(t, testDeps{creds: unconfiguredCreds(t)})

	body := `{"gemini_api_key":"gm-key","openai_api_key":"sk-key"}`
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPut, "/api/v1/credentials", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var status credentials.Status
	decodeJSON(t, rr, &status)
	assert.True(t, status.AllConfigured)

	// The gate opens without a restart.
	rr = serveHTTP(env.server, httptest.NewRequest(http.MethodPost, "/api/v1/searches", bytes.NewBufferString(`{"query":"graph neural networks"}`)))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestCredentials_SaveRequiresBothKeys(t *testing.T) {
	env := newTestEnv(t, testDeps{creds: unconfiguredCreds(t)})

	body := `{"gemini_api_key":"gm-key"}`
	rr := serveHTTP(env.server, httptest.NewRequest(http.MethodPut, "/api/v1/credentials", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
