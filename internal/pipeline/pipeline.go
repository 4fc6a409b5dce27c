// Package pipeline runs the multi-stage search flow: categorize a query,
// collect papers per category, reconcile and rank the results, decide the
// view, and enrich titles in the background.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/llm"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/observability"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/progress"
)

// Backend is the paper search backend consumed by the collector.
type Backend interface {
	Collect(ctx context.Context, query, category string) (map[string][]*domain.Paper, error)
	TopResults(ctx context.Context, query string) ([]*domain.Paper, error)
}

// Categorizer resolves a query to category codes.
type Categorizer interface {
	Categorize(ctx context.Context, query string) (*llm.CategorizationResult, error)
}

// Titler generates a plain-language title for a paper.
type Titler interface {
	PlainTitle(ctx context.Context, title, abstract string) (string, error)
}

// Config tunes pipeline concurrency.
type Config struct {
	// EnrichConcurrency caps concurrent title enrichment calls. Default: 8.
	EnrichConcurrency int
}

// Runner executes search sessions. Stages own their session fields: the
// collector writes raw lists, reconciliation writes flags and order, and
// enrichment writes plain titles.
type Runner struct {
	backend     Backend
	categorizer Categorizer
	titler      Titler
	manager     *Manager
	logger      zerolog.Logger
	metrics     *observability.Metrics
	cfg         Config
}

// NewRunner creates a pipeline runner.
func NewRunner(backend Backend, categorizer Categorizer, titler Titler, manager *Manager, logger zerolog.Logger, metrics *observability.Metrics, cfg Config) *Runner {
	if cfg.EnrichConcurrency <= 0 {
		cfg.EnrichConcurrency = 8
	}
	return &Runner{
		backend:     backend,
		categorizer: categorizer,
		titler:      titler,
		manager:     manager,
		logger:      logger,
		metrics:     metrics,
		cfg:         cfg,
	}
}

// Start validates the query, creates a superseding session, and runs it in
// the background. It returns the new entry immediately.
func (r *Runner) Start(ctx context.Context, query string) (*Entry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query", "query must not be empty")
	}

	entry, superseded := r.manager.Begin(query)
	if superseded {
		r.metrics.RecordSearchSuperseded()
	}
	r.metrics.RecordSearchStarted()

	// The session outlives the submitting request, so its context must not
	// die with it.
	go r.run(context.WithoutCancel(ctx), entry, nil)
	return entry, nil
}

// StartTopics runs a search over pre-selected topics from the catalog. The
// categorize step completes immediately with the resolved codes instead of
// calling the model.
func (r *Runner) StartTopics(ctx context.Context, labels []string) (*Entry, error) {
	categories, categoryMap := domain.ResolveTopics(labels)
	if len(categories) == 0 {
		return nil, domain.NewValidationError("topics", "no recognized topics selected")
	}

	resolved := &llm.CategorizationResult{
		Categories:  categories,
		CategoryMap: categoryMap,
	}

	resolvedLabels := make([]string, 0, len(categories))
	for _, code := range categories {
		resolvedLabels = append(resolvedLabels, categoryMap[code])
	}
	entry, superseded := r.manager.Begin(strings.Join(resolvedLabels, ", "))
	if superseded {
		r.metrics.RecordSearchSuperseded()
	}
	r.metrics.RecordSearchStarted()

	go r.run(context.WithoutCancel(ctx), entry, resolved)
	return entry, nil
}

// run drives one session through every step. A fatal step error marks the
// step failed and stops; a superseded session stops silently at the next
// checkpoint. A non-nil resolved result skips the categorization call.
func (r *Runner) run(ctx context.Context, entry *Entry, resolved *llm.CategorizationResult) {
	session := entry.Session
	tracker := entry.Tracker
	logger := observability.WithSearchContext(r.logger, session.ID.String(), session.Query)
	started := time.Now()

	fail := func(step progress.Step, err error) {
		logger.Error().Err(err).Str("step", string(step)).Msg("search step failed")
		_ = tracker.Fail(step, err.Error())
		r.metrics.RecordSearchFailed(time.Since(started).Seconds())
	}
	stale := func() bool {
		if r.manager.IsCurrent(session.ID) {
			return false
		}
		logger.Debug().Msg("session superseded, dropping late results")
		return true
	}

	// Categorize.
	_ = tracker.Activate(progress.StepCategorize)
	catResult := resolved
	if catResult == nil {
		var err error
		catResult, err = r.categorizer.Categorize(ctx, session.Query)
		if err != nil {
			fail(progress.StepCategorize, err)
			return
		}
	}
	if stale() {
		return
	}
	session.SetCategories(catResult.Categories, catResult.CategoryMap)
	logger.Info().Strs("categories", catResult.Categories).Msg("query categorized")
	_ = tracker.Complete(progress.StepCategorize)

	// Collect, fan-out per category plus the top-results call. Every branch
	// degrades to empty on failure; nothing here fails the session.
	_ = tracker.Activate(progress.StepCollect)
	byCategory, topResults := r.collect(ctx, session.Query, catResult.Categories, logger)
	if stale() {
		return
	}
	for _, label := range catResult.Categories {
		session.SetCategoryResults(label, byCategory[label])
	}
	session.SetTopResults(topResults)
	_ = tracker.Complete(progress.StepCollect)

	// Rank: stable descending sort of every list by relevance score.
	_ = tracker.Activate(progress.StepRank)
	session.Reconcile(SortByRelevance)
	_ = tracker.Complete(progress.StepRank)

	// Filter: the view decision over the reconciled data.
	_ = tracker.Activate(progress.StepFilter)
	view := DecideView(session)
	entry.SetView(view)
	if view == ViewFallback {
		logger.Warn().Msg("grouped view unavailable, using flat fallback")
		r.metrics.RecordFallbackRendered()
	}
	_ = tracker.Complete(progress.StepFilter)

	// Titles: background enrichment of every unique paper, joined only for
	// the completion signal. Individual failures are terminal per paper.
	_ = tracker.Activate(progress.StepTitles)
	r.enrichTitles(ctx, session, logger)
	if stale() {
		return
	}
	_ = tracker.Complete(progress.StepTitles)

	r.metrics.RecordSearchCompleted(time.Since(started).Seconds())
	logger.Info().
		Int("papers", session.PaperCount()).
		Str("view", string(view)).
		Dur("duration", time.Since(started)).
		Msg("search completed")
}

// collect fans out one backend call per category plus the top-results call
// and joins them all. Failed calls degrade their category (or the top list)
// to empty with a warning.
func (r *Runner) collect(ctx context.Context, query string, categories domain.CategorySet, logger zerolog.Logger) (map[string][]*domain.Paper, []*domain.Paper) {
	var (
		mu         sync.Mutex
		byCategory = make(map[string][]*domain.Paper, len(categories))
		topResults []*domain.Paper
	)

	var wg sync.WaitGroup
	for _, category := range categories {
		category := category
		wg.Add(1)
		go func() {
			defer wg.Done()
			catLogger := observability.WithCategoryContext(logger, category)

			resp, err := r.backend.Collect(ctx, query, category)
			if err != nil {
				catLogger.Warn().Err(err).Msg("collect failed, degrading category to empty")
				r.metrics.RecordCollect(0, true)
				return
			}
			papers := resp[category]
			r.metrics.RecordCollect(len(papers), false)
			catLogger.Debug().Int("papers", len(papers)).Msg("category collected")

			mu.Lock()
			byCategory[category] = papers
			mu.Unlock()
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		papers, err := r.backend.TopResults(ctx, query)
		if err != nil {
			logger.Warn().Err(err).Msg("top results unavailable, degrading to empty")
			return
		}
		mu.Lock()
		topResults = papers
		mu.Unlock()
	}()

	wg.Wait()
	return byCategory, topResults
}

// enrichTitles requests a plain title for every unique paper and writes the
// result back to the shared record. The first write for an id wins; failures
// leave the paper in the failed terminal state.
func (r *Runner) enrichTitles(ctx context.Context, session *domain.SearchSession, logger zerolog.Logger) {
	papers := session.UniquePapers()
	session.SetEnrichTotal(len(papers))
	if len(papers) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.EnrichConcurrency)
	for _, paper := range papers {
		paper := paper
		g.Go(func() error {
			plain, err := r.titler.PlainTitle(gctx, paper.Title, paper.Abstract)
			if !r.manager.IsCurrent(session.ID) {
				return nil
			}
			if err != nil {
				paperLogger := observability.WithPaperContext(logger, paper.ID)
				paperLogger.Warn().Err(err).Msg("title enrichment failed")
				session.CompleteEnrichment(paper.ID, "", false)
				r.metrics.RecordTitleEnriched(false)
				return nil
			}
			session.CompleteEnrichment(paper.ID, plain, true)
			r.metrics.RecordTitleEnriched(true)
			return nil
		})
	}
	_ = g.Wait()
}
