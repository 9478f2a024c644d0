// Package reconcile implements the balance-reconciliation engine: a draft
// store tracking pending edits against a baseline row collection, a bulk
// paste parser, filter/sort/group views, and a bounded-concurrency
// submission coordinator.
//
// The package is a library: it never speaks HTTP or SQL itself. Callers
// inject the row collection and a domain.DataService.
package reconcile

import (
	"sort"
	"sync"

	"github.com/nestegg-app/nestegg/internal/domain"
	"github.com/nestegg-app/nestegg/internal/infra/observability"
)

// ─── Draft Store ────────────────────────────────────────────────────────────

// Store owns the Draft lifecycle: an in-memory overlay of pending replacement
// values keyed by row key. The authoritative row collection is read-only
// input; it is refreshed wholesale after submission, never mutated here.
//
// All mutation goes through the store's setters so the epsilon auto-clear
// invariant holds: typing the original value back removes the draft.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]domain.Draft
}

// NewStore creates an empty draft store.
func NewStore() *Store {
	return &Store{drafts: make(map[string]domain.Draft)}
}

// Set parses raw as a number (tolerating currency symbols, thousands
// separators, and parentheses-negatives) and records it as the pending value
// for the row. An unparseable raw value is treated as 0. If the parsed value
// is within the row's epsilon of the original, any existing draft is removed
// instead; edited-back rows must not linger as "changed".
func (s *Store) Set(row domain.Row, raw string) {
	v, err := ParseNumber(raw)
	if err != nil {
		v = 0
	}
	s.SetValue(row, v)
}

// SetValue records value as the pending value for the row, applying the same
// epsilon auto-clear rule as Set.
func (s *Store) SetValue(row domain.Row, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original := row.BaselineValue
	if prev, ok := s.drafts[row.Key]; ok {
		original = prev.OriginalValue
	}

	if row.ValuesEqual(value, original) {
		delete(s.drafts, row.Key)
		observability.DraftCount.Set(float64(len(s.drafts)))
		return
	}
	s.drafts[row.Key] = domain.Draft{NewValue: value, OriginalValue: original}
	observability.DraftCount.Set(float64(len(s.drafts)))
}

// Get returns the draft for a key, if any.
func (s *Store) Get(key string) (domain.Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[key]
	return d, ok
}

// Has reports whether a draft exists for the key.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Clear removes the draft for a key. A no-op on missing keys.
func (s *Store) Clear(key string) {
	s.mu.Lock()
	delete(s.drafts, key)
	observability.DraftCount.Set(float64(len(s.drafts)))
	s.mu.Unlock()
}

// ClearAll removes every draft.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.drafts = make(map[string]domain.Draft)
	observability.DraftCount.Set(0)
	s.mu.Unlock()
}

// ClearKeys removes the drafts for the given keys, typically after the rows
// they cover were submitted successfully.
func (s *Store) ClearKeys(keys []string) {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.drafts, k)
	}
	observability.DraftCount.Set(float64(len(s.drafts)))
	s.mu.Unlock()
}

// Len returns the number of pending drafts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Snapshot returns a copy of the draft map, ordered-independent.
func (s *Store) Snapshot() map[string]domain.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Draft, len(s.drafts))
	for k, v := range s.drafts {
		out[k] = v
	}
	return out
}

// Keys returns the drafted keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.drafts))
	for k := range s.drafts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ─── Derived Views ──────────────────────────────────────────────────────────

// ChangedRows returns the rows whose draft differs from the current baseline,
// each annotated with delta and delta-percent, in the input rows' order.
// Pure given (rows, drafts): identical inputs yield identical output.
func (s *Store) ChangedRows(rows []domain.Row) []domain.ChangedRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ChangedRow
	for _, row := range rows {
		d, ok := s.drafts[row.Key]
		if !ok || row.ValuesEqual(d.NewValue, row.BaselineValue) {
			continue
		}
		out = append(out, domain.NewChangedRow(row, d.NewValue))
	}
	return out
}

// CurrentValue returns the row's draft value when one exists, else baseline.
func (s *Store) CurrentValue(row domain.Row) float64 {
	if d, ok := s.Get(row.Key); ok {
		return d.NewValue
	}
	return row.BaselineValue
}

// Totals recomputes the per-class and net totals from scratch with drafts
// applied. O(rows).
func (s *Store) Totals(rows []domain.Row) domain.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t domain.Totals
	for _, row := range rows {
		current := row.BaselineValue
		if d, ok := s.drafts[row.Key]; ok {
			current = d.NewValue
		}
		t.Accumulate(row.Kind, row.BaselineValue, current)
	}
	return t
}
