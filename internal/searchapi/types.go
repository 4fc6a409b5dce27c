package searchapi

import (
	"encoding/json"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
)

// paperRaw is the wire representation of a single paper.
type paperRaw struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Abstract             string `json:"abstract"`
	PDFLink              string `json:"pdf_link"`
	RelevanceScore       *int   `json:"relevance_score"`
	RelevanceExplanation string `json:"relevance_explanation"`
}

func (r paperRaw) toDomain() *domain.Paper {
	return &domain.Paper{
		ID:                   r.ID,
		Title:                r.Title,
		Abstract:             r.Abstract,
		PDFLink:              r.PDFLink,
		RelevanceScore:       r.RelevanceScore,
		RelevanceExplanation: r.RelevanceExplanation,
		PlainTitleState:      domain.PlainTitlePending,
	}
}

// NormalizeByCategory interprets a backend response body into a mapping of
// category code to papers. The backend is loose about shape; three forms are
// accepted:
//
//   - a flat array of papers, attributed entirely to requestedCategory
//   - an object with a "by_category" key mapping categories to paper arrays
//   - a flat object mapping categories directly to paper arrays
//
// Anything else, including malformed JSON, yields an empty mapping rather
// than an error: a response that cannot be interpreted contributes no
// results, it does not fail the collection.
func NormalizeByCategory(body []byte, requestedCategory string) map[string][]*domain.Paper {
	out := make(map[string][]*domain.Paper)

	// Flat array form.
	var flat []paperRaw
	if err := json.Unmarshal(body, &flat); err == nil {
		out[requestedCategory] = toDomainList(flat)
		return out
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return out
	}

	// Wrapped form takes precedence when the key is present.
	if rawByCat, ok := probe["by_category"]; ok {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(rawByCat, &env); err != nil {
			return out
		}
		return decodeCategoryLists(env)
	}

	// Flat map form: every value must itself be a paper array.
	return decodeCategoryLists(probe)
}

func decodeCategoryLists(env map[string]json.RawMessage) map[string][]*domain.Paper {
	out := make(map[string][]*domain.Paper)
	for category, raw := range env {
		var papers []paperRaw
		if err := json.Unmarshal(raw, &papers); err != nil {
			continue
		}
		out[category] = toDomainList(papers)
	}
	return out
}

func toDomainList(raws []paperRaw) []*domain.Paper {
	out := make([]*domain.Paper, 0, len(raws))
	for _, r := range raws {
		p := r.toDomain()
		if !p.Valid() {
			continue
		}
		out = append(out, p)
	}
	return out
}
