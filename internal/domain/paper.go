// Package domain provides domain models for the paper podcast service.
package domain

import "strings"

// PlainTitleState represents the lifecycle of a paper's lazily generated
// plain-language title.
type PlainTitleState string

const (
	// PlainTitlePending means no enrichment result has arrived yet.
	PlainTitlePending PlainTitleState = "pending"

	// PlainTitleReady means a plain-language title is available.
	PlainTitleReady PlainTitleState = "ready"

	// PlainTitleFailed is the permanent terminal state for a paper whose
	// title generation request failed. It is never retried.
	PlainTitleFailed PlainTitleState = "failed"
)

// Paper represents a single academic paper discovered during a search.
//
// Within one search session a Paper is a shared record: every category list
// and the top-results list that reference the same id alias the same *Paper,
// so a plain-title write-back is observed by all views at once.
type Paper struct {
	// ID is the stable, source-assigned identifier, unique within a search.
	ID string

	// Title is the original academic title.
	Title string

	// Abstract may be empty.
	Abstract string

	// PDFLink is the optional link to the full-text PDF.
	PDFLink string

	// RelevanceScore is the backend-assigned score in [0, 100].
	// Nil means "not yet scored" and sorts as 0.
	RelevanceScore *int

	// RelevanceExplanation is the backend's optional justification.
	RelevanceExplanation string

	// PlainTitle is the lazily generated plain-language title.
	PlainTitle string

	// PlainTitleState tracks the enrichment lifecycle for this paper.
	PlainTitleState PlainTitleState

	// InTopResults is derived by the reconciler: true when this id also
	// appears in the top-results list.
	InTopResults bool
}

// Score returns the relevance score, treating a missing score as 0.
func (p *Paper) Score() int {
	if p.RelevanceScore == nil {
		return 0
	}
	return *p.RelevanceScore
}

// Valid reports whether the paper carries the minimum required fields.
func (p *Paper) Valid() bool {
	return strings.TrimSpace(p.ID) != "" && strings.TrimSpace(p.Title) != ""
}

// CategorySet is an ordered sequence of category codes. The grouped view
// expects exactly ExpectedCategoryCount entries but any size is tolerated.
type CategorySet []string

// ExpectedCategoryCount is the cardinality the grouped tab view is built for.
const ExpectedCategoryCount = 3

// CategoryMap maps a category code to its human-readable label. The mapping
// is partial; codes without an entry are simply not annotated.
type CategoryMap map[string]string

// Label returns the human-readable label for a code, if one is known.
func (m CategoryMap) Label(code string) (string, bool) {
	label, ok := m[code]
	return label, ok
}
