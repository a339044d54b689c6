package watchlist

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/zanger_agent/internal/backend"
)

// Entry is one persisted watchlist card. Fields carries the refreshed
// detail values for display and is never persisted.
type Entry struct {
	Symbol    string    `json:"symbol"`
	Collapsed bool      `json:"collapsed"`
	SavedAt   time.Time `json:"timestamp"`
	Fields    Fields    `json:"-"`
}

// Fields are the five refreshed detail values shown on a card.
type Fields struct {
	Price        string `json:"price"`
	PERatio      string `json:"pe_ratio"`
	MarketCap    string `json:"market_cap"`
	Week52Range  string `json:"week_52_range"`
	QuarterlyEPS string `json:"quarterly_eps"`
}

// Listener receives watchlist changes. Implementations must not call
// back into the Store.
type Listener interface {
	EntryUpserted(e Entry, created bool)
	EntryRemoved(symbol string, remaining int)
	EntryCollapsed(symbol string, collapsed bool)
	EntryFields(symbol string, f Fields)
}

// NopListener discards all notifications.
type NopListener struct{}

func (NopListener) EntryUpserted(Entry, bool)   {}
func (NopListener) EntryRemoved(string, int)    {}
func (NopListener) EntryCollapsed(string, bool) {}
func (NopListener) EntryFields(string, Fields)  {}

// Snapshotter is the persistence surface the store needs.
type Snapshotter interface {
	Save(key string, value any) error
	Load(key string, out any) (bool, error)
	Delete(key string) error
}

// snapshotDoc is the persisted watchlist shape: the symbol-keyed map
// plus an explicit ordered symbol list so restore order is stable.
type snapshotDoc struct {
	Entries map[string]Entry `json:"entries"`
	Order   []string         `json:"order"`
}

// Store is the keyed, persisted collection of watchlist entries.
// Every mutation rewrites the full snapshot under the configured key.
type Store struct {
	snaps    Snapshotter
	key      string
	listener Listener

	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
}

// NewStore creates a watchlist store persisting under key.
func NewStore(snaps Snapshotter, key string, listener Listener) *Store {
	if listener == nil {
		listener = NopListener{}
	}
	return &Store{
		snaps:    snaps,
		key:      key,
		listener: listener,
		entries:  make(map[string]*Entry),
	}
}

// NormalizeSymbol maps raw user/backend input to the canonical key form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Upsert adds symbol or updates its existing entry in place. An
// existing collapsed entry is force-expanded, since a fresh analysis
// implies renewed interest. It reports whether the entry was created.
func (s *Store) Upsert(symbol string) (bool, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return false, backend.NewError(backend.CodeValidation, "symbol is required", nil)
	}

	s.mu.Lock()
	e, exists := s.entries[symbol]
	if exists {
		e.SavedAt = time.Now()
		e.Collapsed = false
	} else {
		e = &Entry{Symbol: symbol, SavedAt: time.Now()}
		s.entries[symbol] = e
		s.order = append(s.order, symbol)
	}
	snapshot := *e
	err := s.persistLocked()
	s.mu.Unlock()

	s.listener.EntryUpserted(snapshot, !exists)
	return !exists, err
}

// Remove deletes the entry for symbol. Removing an unknown symbol is a
// no-op.
func (s *Store) Remove(symbol string) error {
	symbol = NormalizeSymbol(symbol)

	s.mu.Lock()
	_, exists := s.entries[symbol]
	var err error
	remaining := len(s.entries)
	if exists {
		delete(s.entries, symbol)
		for i, sym := range s.order {
			if sym == symbol {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		remaining = len(s.entries)
		err = s.persistLocked()
	}
	s.mu.Unlock()

	if exists {
		s.listener.EntryRemoved(symbol, remaining)
	}
	return err
}

// SetCollapsed writes the collapse state for symbol, persisting
// synchronously. The stored flag is the sole source of truth for a
// card's expand state.
func (s *Store) SetCollapsed(symbol string, collapsed bool) error {
	symbol = NormalizeSymbol(symbol)

	s.mu.Lock()
	e, exists := s.entries[symbol]
	var err error
	if exists {
		e.Collapsed = collapsed
		err = s.persistLocked()
	}
	s.mu.Unlock()

	if !exists {
		return backend.NewError(backend.CodeValidation, fmt.Sprintf("symbol not in watchlist: %s", symbol), nil)
	}
	s.listener.EntryCollapsed(symbol, collapsed)
	return err
}

// SetFields writes refreshed detail fields for symbol. Fields are
// display state only and are not persisted.
func (s *Store) SetFields(symbol string, f Fields) {
	symbol = NormalizeSymbol(symbol)

	s.mu.Lock()
	e, exists := s.entries[symbol]
	if exists {
		e.Fields = f
	}
	s.mu.Unlock()

	if exists {
		s.listener.EntryFields(symbol, f)
	}
}

// RestoreAll loads the persisted watchlist once at startup and returns
// the restored symbols in persisted order. Symbols present in the map
// but missing from the ordered list are appended in sorted order.
func (s *Store) RestoreAll() ([]string, error) {
	var doc snapshotDoc
	ok, err := s.snaps.Load(s.key, &doc)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*Entry)
	var order []string
	if ok {
		seen := make(map[string]bool)
		for _, sym := range doc.Order {
			if e, exists := doc.Entries[sym]; exists && !seen[sym] {
				copied := e
				entries[sym] = &copied
				order = append(order, sym)
				seen[sym] = true
			}
		}
		var unordered []string
		for sym := range doc.Entries {
			if !seen[sym] {
				unordered = append(unordered, sym)
			}
		}
		sort.Strings(unordered)
		for _, sym := range unordered {
			copied := doc.Entries[sym]
			entries[sym] = &copied
			order = append(order, sym)
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.order = order
	s.mu.Unlock()

	for _, sym := range order {
		s.listener.EntryUpserted(*entries[sym], true)
	}
	return append([]string(nil), order...), nil
}

// Get returns a copy of the entry for symbol.
func (s *Store) Get(symbol string) (Entry, bool) {
	symbol = NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.entries[symbol]
	if !exists {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns copies of all entries in persisted order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.order))
	for _, sym := range s.order {
		out = append(out, *s.entries[sym])
	}
	return out
}

func (s *Store) persistLocked() error {
	doc := snapshotDoc{
		Entries: make(map[string]Entry, len(s.entries)),
		Order:   append([]string(nil), s.order...),
	}
	for sym, e := range s.entries {
		doc.Entries[sym] = *e
	}
	if err := s.snaps.Save(s.key, doc); err != nil {
		return fmt.Errorf("persist watchlist: %w", err)
	}
	return nil
}
