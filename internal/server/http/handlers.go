package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/pipeline"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/progress"
)

// maxRequestBodySize caps JSON request bodies at 1 MB.
const maxRequestBodySize = 1 << 20

// startSearchRequest is the JSON request body for starting a search.
// Exactly one of query or topics must be provided.
type startSearchRequest struct {
	Query  string   `json:"query,omitempty" validate:"omitempty,max=500"`
	Topics []string `json:"topics,omitempty" validate:"omitempty,max=10,dive,required"`
}

// startSearchResponse is returned when a search is accepted.
type startSearchResponse struct {
	SearchID string `json:"search_id"`
	Status   string `json:"status"`
}

// podcastRequest is the JSON request body for generating a podcast script.
type podcastRequest struct {
	PaperID string `json:"paper_id" validate:"required"`
	PDFLink string `json:"pdf_link" validate:"required,url"`
}

// podcastResponse carries the generated script.
type podcastResponse struct {
	PaperID string `json:"paper_id"`
	Script  string `json:"script"`
}

// credentialsRequest is the JSON request body for saving API keys.
type credentialsRequest struct {
	GeminiAPIKey string `json:"gemini_api_key" validate:"required"`
	OpenAIAPIKey string `json:"openai_api_key" validate:"required"`
}

// paperResponse is the client view of a single paper.
type paperResponse struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Abstract             string `json:"abstract,omitempty"`
	PDFLink              string `json:"pdf_link,omitempty"`
	RelevanceScore       *int   `json:"relevance_score,omitempty"`
	RelevanceExplanation string `json:"relevance_explanation,omitempty"`
	PlainTitle           string `json:"plain_title,omitempty"`
	PlainTitleState      string `json:"plain_title_state"`
	InTopResults         bool   `json:"in_top_results"`
}

// categoryResponse is one category tab of the grouped view.
type categoryResponse struct {
	Code   string          `json:"code"`
	Label  string          `json:"label"`
	Papers []paperResponse `json:"papers"`
}

// enrichmentResponse is the title enrichment completion counter.
type enrichmentResponse struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// searchResponse is the full view model for one search session.
type searchResponse struct {
	SearchID   string               `json:"search_id"`
	Query      string               `json:"query"`
	View       string               `json:"view"`
	Progress   []progress.StepState `json:"progress"`
	Error      string               `json:"error,omitempty"`
	Enrichment enrichmentResponse   `json:"enrichment"`
	Categories []categoryResponse   `json:"categories,omitempty"`
	TopResults []paperResponse      `json:"top_results,omitempty"`
	Papers     []paperResponse      `json:"papers,omitempty"`
}

// listTopics handles GET /topics.
func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topics": domain.DefaultTopics,
	})
}

// startSearch handles POST /searches. It validates the request, checks that
// API credentials are configured, and starts the pipeline in the background.
func (s *Server) startSearch(w http.ResponseWriter, r *http.Request) {
	var req startSearchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	hasQuery := req.Query != ""
	hasTopics := len(req.Topics) > 0
	if hasQuery == hasTopics {
		writeError(w, http.StatusBadRequest, "exactly one of query or topics is required")
		return
	}

	if err := s.creds.RequireConfigured(); err != nil {
		writeDomainError(w, err)
		return
	}

	var (
		entry *pipeline.Entry
		err   error
	)
	if hasQuery {
		entry, err = s.searches.Start(r.Context(), req.Query)
	} else {
		entry, err = s.searches.StartTopics(r.Context(), req.Topics)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, startSearchResponse{
		SearchID: entry.Session.ID.String(),
		Status:   "started",
	})
}

// getSearch handles GET /searches/{searchID}.
func (s *Server) getSearch(w http.ResponseWriter, r *http.Request) {
	searchID, ok := parseUUID(w, chi.URLParam(r, "searchID"), "search_id")
	if !ok {
		return
	}

	entry, found := s.sessions.Get(searchID)
	if !found {
		writeDomainError(w, domain.NewNotFoundError("search", searchID.String()))
		return
	}

	writeJSON(w, http.StatusOK, buildSearchResponse(entry))
}

// generateScript handles POST /podcasts.
func (s *Server) generateScript(w http.ResponseWriter, r *http.Request) {
	var req podcastRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.creds.RequireConfigured(); err != nil {
		writeDomainError(w, err)
		return
	}

	script, err := s.podcasts.GenerateScript(r.Context(), req.PaperID, req.PDFLink)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, podcastResponse{
		PaperID: req.PaperID,
		Script:  script,
	})
}

// synthesizeAudio handles GET /podcasts/{paperID}/audio. The script travels
// as a query parameter and MP3 bytes come back as an attachment.
func (s *Server) synthesizeAudio(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")
	if strings.TrimSpace(paperID) == "" {
		writeError(w, http.StatusBadRequest, "paper_id is required")
		return
	}
	script := r.URL.Query().Get("script")
	if strings.TrimSpace(script) == "" {
		writeError(w, http.StatusBadRequest, "script is required")
		return
	}

	if err := s.creds.RequireConfigured(); err != nil {
		writeDomainError(w, err)
		return
	}

	audio, err := s.podcasts.SynthesizeAudio(r.Context(), paperID, script)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", paperID+".mp3"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// getCredentials handles GET /credentials. Key values are never returned.
func (s *Server) getCredentials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.creds.Check())
}

// saveCredentials handles PUT /credentials.
func (s *Server) saveCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.creds.Save(req.GeminiAPIKey, req.OpenAIAPIKey); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.creds.Check())
}

// decodeAndValidate reads a JSON request body into v and validates it,
// writing a 400 response on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// parseUUID parses a UUID from a string, writing a 400 error response if
// invalid. The parse error details are not included to avoid echoing
// potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// buildSearchResponse converts a session entry into the client view model.
// The grouped view carries per-category tabs plus the top-results shortlist;
// the fallback view carries a single flat list.
func buildSearchResponse(entry *pipeline.Entry) searchResponse {
	session := entry.Session
	done, total := session.EnrichProgress()

	resp := searchResponse{
		SearchID:   session.ID.String(),
		Query:      session.Query,
		View:       string(entry.View()),
		Progress:   entry.Tracker.Snapshot(),
		Error:      entry.Tracker.ErrorMessage(),
		Enrichment: enrichmentResponse{Done: done, Total: total},
	}

	switch entry.View() {
	case pipeline.ViewGrouped:
		categoryMap := session.CategoryMap()
		for _, code := range session.Categories() {
			label, ok := categoryMap.Label(code)
			if !ok {
				label = code
			}
			resp.Categories = append(resp.Categories, categoryResponse{
				Code:   code,
				Label:  label,
				Papers: toPaperResponses(session.CopyPapers(session.CategoryResults(code))),
			})
		}
		resp.TopResults = toPaperResponses(session.CopyPapers(session.TopResults()))
	case pipeline.ViewFallback:
		resp.Papers = toPaperResponses(session.CopyPapers(pipeline.FallbackPapers(session)))
	}

	return resp
}

func toPaperResponses(papers []domain.Paper) []paperResponse {
	out := make([]paperResponse, 0, len(papers))
	for _, p := range papers {
		out = append(out, paperResponse{
			ID:                   p.ID,
			Title:                p.Title,
			Abstract:             p.Abstract,
			PDFLink:              p.PDFLink,
			RelevanceScore:       p.RelevanceScore,
			RelevanceExplanation: p.RelevanceExplanation,
			PlainTitle:           p.PlainTitle,
			PlainTitleState:      string(p.PlainTitleState),
			InTopResults:         p.InTopResults,
		})
	}
	return out
}
