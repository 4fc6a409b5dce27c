package pipeline

import "github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"

// ViewMode is the rendering decision for a finished reconciliation.
type ViewMode string

const (
	// ViewGrouped is the primary tabbed-by-category presentation.
	ViewGrouped ViewMode = "grouped"
	// ViewFallback is the flat emergency presentation used when the grouped
	// view cannot be confirmed but papers exist.
	ViewFallback ViewMode = "fallback"
	// ViewEmpty is the no-results terminal state.
	ViewEmpty ViewMode = "empty"
)

// DecideView picks the presentation for a reconciled session. The grouped
// view requires the expected category cardinality and at least one category
// with papers; otherwise any existing paper forces the fallback view so data
// is never silently dropped. With no papers at all the empty state stands
// and no fallback is triggered.
func DecideView(session *domain.SearchSession) ViewMode {
	if session.PaperCount() == 0 {
		return ViewEmpty
	}

	categories := session.Categories()
	if len(categories) != domain.ExpectedCategoryCount {
		return ViewFallback
	}

	for _, label := range categories {
		if len(session.CategoryResults(label)) > 0 {
			return ViewGrouped
		}
	}
	return ViewFallback
}

// FallbackPapers flattens a session for the fallback view: every top result
// first, then each category's papers in category order. Papers appearing in
// several lists appear once per list, matching what the grouped view would
// have shown.
func FallbackPapers(session *domain.SearchSession) []*domain.Paper {
	var out []*domain.Paper
	out = append(out, session.TopResults()...)
	for _, label := range session.Categories() {
		out = append(out, session.CategoryResults(label)...)
	}
	return out
}
