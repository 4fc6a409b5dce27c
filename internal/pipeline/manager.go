package pipeline

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/progress"
)

// Entry pairs a search session with its progress tracker and the view
// decision made for it.
type Entry struct {
	Session *domain.SearchSession
	Tracker *progress.Tracker

	mu   sync.RWMutex
	view ViewMode
}

// View returns the current view decision for the entry.
func (e *Entry) View() ViewMode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// SetView records the view decision.
func (e *Entry) SetView(v ViewMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = v
}

// maxRetainedSessions bounds how many sessions the manager keeps readable.
// Superseded entries beyond the bound are evicted oldest first.
const maxRetainedSessions = 8

// Manager owns the current search session. Submitting a new query supersedes
// the previous session: its entry stays readable until evicted, but stale
// asynchronous callbacks checking IsCurrent become no-ops against it.
type Manager struct {
	mu      sync.RWMutex
	current uuid.UUID
	entries map[uuid.UUID]*Entry
	order   []uuid.UUID
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[uuid.UUID]*Entry)}
}

// Begin creates a session for the query and makes it current, superseding
// any previous session. It returns the new entry and whether an earlier
// session was superseded.
func (m *Manager) Begin(query string) (*Entry, bool) {
	entry := &Entry{
		Session: domain.NewSearchSession(query),
		Tracker: progress.NewTracker(nil),
		view:    ViewEmpty,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	superseded := m.current != uuid.Nil
	m.current = entry.Session.ID
	m.entries[entry.Session.ID] = entry
	m.order = append(m.order, entry.Session.ID)
	for len(m.order) > maxRetainedSessions {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	return entry, superseded
}

// Get returns the entry for a session ID.
func (m *Manager) Get(id uuid.UUID) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	return entry, ok
}

// Current returns the entry for the current session, if any.
func (m *Manager) Current() (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == uuid.Nil {
		return nil, false
	}
	entry, ok := m.entries[m.current]
	return entry, ok
}

// IsCurrent reports whether the given session is still the active one.
// Stage code checks this after every remote call so late results for a
// superseded session are dropped instead of merged.
func (m *Manager) IsCurrent(id uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current == id
}

// Reset discards the current session without starting a new one.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = uuid.Nil
}
