package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SearchSession holds all mutable state for one query cycle. It is created
// when a query is submitted and discarded when a new query supersedes it.
//
// Field ownership is split by pipeline stage: the collector populates the
// raw category and top-results lists, the reconciler derives cross-membership
// and sort order, and the title enricher writes plain titles. The mutex only
// exists because enrichment write-backs race with HTTP reads; stage writes
// never overlap each other.
type SearchSession struct {
	// ID identifies this session. Late asynchronous callbacks compare it
	// against the current session and no-op on mismatch.
	ID uuid.UUID

	// Query is the free-text query that started the session.
	Query string

	// CreatedAt is the session creation time.
	CreatedAt time.Time

	mu sync.RWMutex

	categories  CategorySet
	categoryMap CategoryMap

	// resultsByCategory and topResults alias the shared records in papers.
	resultsByCategory map[string][]*Paper
	topResults        []*Paper

	// papers is the unique-paper registry keyed by id.
	papers map[string]*Paper

	enrichTotal int
	enrichDone  int
}

// NewSearchSession creates an empty session for the given query.
func NewSearchSession(query string) *SearchSession {
	return &SearchSession{
		ID:                uuid.New(),
		Query:             query,
		CreatedAt:         time.Now(),
		resultsByCategory: make(map[string][]*Paper),
		papers:            make(map[string]*Paper),
	}
}

// SetCategories records the resolved category set and label-to-code map.
func (s *SearchSession) SetCategories(categories CategorySet, categoryMap CategoryMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = categories
	s.categoryMap = categoryMap
	for _, label := range categories {
		if _, ok := s.resultsByCategory[label]; !ok {
			s.resultsByCategory[label] = nil
		}
	}
}

// Categories returns the resolved category labels in order.
func (s *SearchSession) Categories() CategorySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(CategorySet, len(s.categories))
	copy(out, s.categories)
	return out
}

// CategoryMap returns the code-to-label map.
func (s *SearchSession) CategoryMap() CategoryMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(CategoryMap, len(s.categoryMap))
	for k, v := range s.categoryMap {
		out[k] = v
	}
	return out
}

// register returns the shared record for a paper, creating it on first
// sight. Two records sharing an id are the same logical paper; attribute
// fields are taken from the first arrival and never overwritten, so every
// view referencing the id aliases one record.
func (s *SearchSession) register(p *Paper) *Paper {
	if existing, ok := s.papers[p.ID]; ok {
		return existing
	}
	record := *p
	record.PlainTitleState = PlainTitlePending
	s.papers[p.ID] = &record
	return &record
}

// SetCategoryResults stores the collected papers for one category.
// Owned by the collector.
func (s *SearchSession) SetCategoryResults(label string, papers []*Paper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shared := make([]*Paper, 0, len(papers))
	for _, p := range papers {
		shared = append(shared, s.register(p))
	}
	s.resultsByCategory[label] = shared
}

// SetTopResults stores the pre-ranked cross-category shortlist.
// Owned by the collector.
func (s *SearchSession) SetTopResults(papers []*Paper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shared := make([]*Paper, 0, len(papers))
	for _, p := range papers {
		shared = append(shared, s.register(p))
	}
	s.topResults = shared
}

// CategoryResults returns the papers collected for one category.
func (s *SearchSession) CategoryResults(label string) []*Paper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Paper(nil), s.resultsByCategory[label]...)
}

// TopResults returns the top-results shortlist.
func (s *SearchSession) TopResults() []*Paper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Paper(nil), s.topResults...)
}

// Reconcile tags cross-membership and sorts every list. Owned by the
// reconciler; sortFn must be a stable descending-by-score sort.
func (s *SearchSession) Reconcile(sortFn func([]*Paper)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topIDs := make(map[string]struct{}, len(s.topResults))
	for _, p := range s.topResults {
		topIDs[p.ID] = struct{}{}
	}
	for id := range topIDs {
		if p, ok := s.papers[id]; ok {
			p.InTopResults = true
		}
	}

	sortFn(s.topResults)
	for _, papers := range s.resultsByCategory {
		sortFn(papers)
	}
}

// UniquePapers returns one shared record per distinct id across the
// top-results list and every category list, in deterministic order: top
// results first, then each category in resolved order.
func (s *SearchSession) UniquePapers() []*Paper {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.papers))
	out := make([]*Paper, 0, len(s.papers))
	appendUnique := func(papers []*Paper) {
		for _, p := range papers {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	appendUnique(s.topResults)
	for _, label := range s.categories {
		appendUnique(s.resultsByCategory[label])
	}
	return out
}

// CopyPapers returns value snapshots of the given shared records, taken
// under the session lock so enrichment write-backs never interleave with
// reads.
func (s *SearchSession) CopyPapers(papers []*Paper) []Paper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Paper, len(papers))
	for i, p := range papers {
		out[i] = *p
	}
	return out
}

// PaperCount returns the number of unique papers in the session.
func (s *SearchSession) PaperCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.papers)
}

// Paper returns the shared record for an id.
func (s *SearchSession) Paper(id string) (*Paper, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.papers[id]
	return p, ok
}

// SetEnrichTotal records how many enrichment requests will run.
// Owned by the title enricher.
func (s *SearchSession) SetEnrichTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrichTotal = total
}

// CompleteEnrichment records the outcome of one enrichment request and
// advances the monotonically increasing completion counter. The first
// arriving result for an id wins; later results are ignored so all views of
// that id converge to one value. Returns true if the write was applied.
func (s *SearchSession) CompleteEnrichment(id, plainTitle string, ok bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enrichDone++
	p, found := s.papers[id]
	if !found || p.PlainTitleState != PlainTitlePending {
		return false
	}
	if !ok {
		p.PlainTitleState = PlainTitleFailed
		return true
	}
	p.PlainTitle = plainTitle
	p.PlainTitleState = PlainTitleReady
	return true
}

// EnrichProgress returns the completed and total enrichment counts.
func (s *SearchSession) EnrichProgress() (done, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enrichDone, s.enrichTotal
}
