package feed

import (
	"net/url"
	"sync"

	"github.com/rs/zerolog"
)

// Manager owns the canonical filter state. Resolution order on first read:
// URL query parameters, then the persisted snapshot, then hard defaults.
// Every mutation re-persists the full state and hands back the canonical
// query string so the caller can replace (not push) its URL entry.
type Manager struct {
	mu      sync.Mutex
	store   *Store
	current FilterState
	loaded  bool
	log     zerolog.Logger
}

// NewManager creates a new filter manager
func NewManager(store *Store, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		log:   log.With().Str("component", "filter_manager").Logger(),
	}
}

// Resolve constructs the active state for a request. Recognized URL
// parameters always win and become the new canonical state.
func (m *Manager) Resolve(values url.Values) FilterState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, present := DecodeFilters(values); present {
		m.current = f
		m.loaded = true
		m.persistLocked()
		return f
	}

	if !m.loaded {
		m.current = m.loadInitialLocked()
		m.loaded = true
	}

	return m.current
}

// Current returns the active state without consulting a URL.
func (m *Manager) Current() FilterState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		m.current = m.loadInitialLocked()
		m.loaded = true
	}

	return m.current
}

// Replace swaps in a full state.
func (m *Manager) Replace(f FilterState) (FilterState, string) {
	f.Normalize()
	return m.apply(f)
}

// SetPeriod updates the lookback window.
func (m *Manager) SetPeriod(days int) (FilterState, string) {
	f := m.Current()
	f.Period = days
	f.Normalize()
	return m.apply(f)
}

// SetSource updates the source filter.
func (m *Manager) SetSource(source SourceFilter) (FilterState, string) {
	f := m.Current()
	f.Source = source
	f.Normalize()
	return m.apply(f)
}

// SetSentiment updates the sentiment filter.
func (m *Manager) SetSentiment(sentiment SentimentFilter) (FilterState, string) {
	f := m.Current()
	f.Sentiment = sentiment
	f.Normalize()
	return m.apply(f)
}

// SetSearch updates the free-text search.
func (m *Manager) SetSearch(search string) (FilterState, string) {
	f := m.Current()
	f.Search = search
	return m.apply(f)
}

// SetAuthor updates the author filter; nil clears it.
func (m *Manager) SetAuthor(author *string) (FilterState, string) {
	f := m.Current()
	f.Author = author
	f.Normalize()
	return m.apply(f)
}

// AddHashtag selects a tag; adding a present tag is a no-op.
func (m *Manager) AddHashtag(tag string) (FilterState, string) {
	return m.apply(m.Current().WithHashtag(tag))
}

// RemoveHashtag deselects a tag; removing an absent tag is a no-op.
func (m *Manager) RemoveHashtag(tag string) (FilterState, string) {
	return m.apply(m.Current().WithoutHashtag(tag))
}

// Reset returns to the hard defaults.
func (m *Manager) Reset() (FilterState, string) {
	return m.apply(DefaultFilters())
}

func (m *Manager) apply(f FilterState) (FilterState, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = f
	m.loaded = true
	m.persistLocked()

	return f, f.Encode()
}

// persistLocked writes the snapshot; storage failure is non-fatal, the
// in-memory state stays correct for the session.
func (m *Manager) persistLocked() {
	if err := m.store.Save(m.current); err != nil {
		m.log.Warn().Err(err).Msg("Failed to persist filter state")
	}
}

func (m *Manager) loadInitialLocked() FilterState {
	stored, err := m.store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("Failed to load persisted filter state")
		return DefaultFilters()
	}
	if stored == nil {
		return DefaultFilters()
	}
	return *stored
}
