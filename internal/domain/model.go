// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the application; it depends on nothing.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ─── Row Kinds ──────────────────────────────────────────────────────────────

// RowKind tags the variant of a reconciliation row.
type RowKind string

const (
	KindCash      RowKind = "cash"
	KindLiability RowKind = "liability"
	KindOther     RowKind = "other"
	KindSecurity  RowKind = "security"
	KindCrypto    RowKind = "crypto"
	KindMetal     RowKind = "metal"
)

// QuantityEpsilon is the tolerance used when comparing quantity values.
// Currency values compare exactly.
const QuantityEpsilon = 1e-7

// Valid reports whether k is one of the known row kinds.
func (k RowKind) Valid() bool {
	switch k {
	case KindCash, KindLiability, KindOther, KindSecurity, KindCrypto, KindMetal:
		return true
	}
	return false
}

// Quantity reports whether rows of this kind hold a unit quantity
// (shares, coins, ounces) rather than a currency amount.
func (k RowKind) Quantity() bool {
	return k == KindSecurity || k == KindCrypto || k == KindMetal
}

// Epsilon returns the comparison tolerance for values of this kind.
func (k RowKind) Epsilon() float64 {
	if k.Quantity() {
		return QuantityEpsilon
	}
	return 0
}

// ─── Row ────────────────────────────────────────────────────────────────────

// FallbackInstitution groups rows whose source record carries no institution.
const FallbackInstitution = "Other Assets"

// Row is the unit of reconciliation: one balance or quantity the user can
// edit against its last known authoritative value.
type Row struct {
	Key           string    `json:"key"`
	Kind          RowKind   `json:"kind"`
	ID            string    `json:"id"`
	Identifier    string    `json:"identifier"`
	Name          string    `json:"name"`
	SubLabel      string    `json:"sub_label,omitempty"`
	Institution   string    `json:"institution"`
	BaselineValue float64   `json:"baseline_value"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RowKey derives the stable identity key for a row.
// Keys are unique per normalized collection; duplicates are dropped
// first-seen-wins at normalization time.
func RowKey(kind RowKind, idOrIdentifier, institution string) string {
	return fmt.Sprintf("%s:%s:%s", kind, idOrIdentifier, institution)
}

// ValuesEqual compares two values under the row's kind-specific tolerance:
// 1e-7 for quantities, exact equality for currency amounts.
func (r Row) ValuesEqual(a, b float64) bool {
	eps := r.Kind.Epsilon()
	if eps == 0 {
		return a == b
	}
	return math.Abs(a-b) <= eps
}

// MatchesSearch reports whether the row matches a case-insensitive substring
// query across name, identifier, institution, and sub-label.
// An empty query matches everything.
func (r Row) MatchesSearch(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.Identifier), q) ||
		strings.Contains(strings.ToLower(r.Institution), q) ||
		strings.Contains(strings.ToLower(r.SubLabel), q)
}

// ─── Draft ──────────────────────────────────────────────────────────────────

// Draft is a pending user-entered replacement value for exactly one row.
type Draft struct {
	NewValue      float64 `json:"new_value"`
	OriginalValue float64 `json:"original_value"` // snapshot at draft creation
}

// ─── Changed Rows ───────────────────────────────────────────────────────────

// ChangedRow is a row joined with its draft. Derived on demand, never stored.
type ChangedRow struct {
	Row
	NewValue     float64 `json:"new_value"`
	Delta        float64 `json:"delta"`
	DeltaPercent float64 `json:"delta_percent"`
}

// NewChangedRow builds the derived view for a row whose draft value differs
// from baseline. DeltaPercent is relative to baseline, or 100 when baseline
// is zero and the new value is not.
func NewChangedRow(row Row, newValue float64) ChangedRow {
	delta := newValue - row.BaselineValue
	var pct float64
	switch {
	case row.BaselineValue != 0:
		pct = delta / row.BaselineValue * 100
	case newValue != 0:
		pct = 100
	}
	return ChangedRow{Row: row, NewValue: newValue, Delta: delta, DeltaPercent: pct}
}

// ─── Totals ─────────────────────────────────────────────────────────────────

// KindTotal aggregates original and drafted values for one contribution class.
type KindTotal struct {
	Original float64 `json:"original"`
	New      float64 `json:"new"`
	Delta    float64 `json:"delta"`
}

func (t *KindTotal) add(original, current float64) {
	t.Original += original
	t.New += current
	t.Delta = t.New - t.Original
}

// Totals summarizes a collection with drafts applied. Assets covers cash and
// quantity kinds, Liabilities contributes negatively to the net, Other covers
// generic tracked assets.
type Totals struct {
	Assets      KindTotal `json:"assets"`
	Liabilities KindTotal `json:"liabilities"`
	Other       KindTotal `json:"other"`
	Net         KindTotal `json:"net"`
}

// Accumulate folds one row's original and current value into the totals.
func (t *Totals) Accumulate(kind RowKind, original, current float64) {
	switch kind {
	case KindLiability:
		t.Liabilities.add(original, current)
		t.Net.add(-original, -current)
	case KindOther:
		t.Other.add(original, current)
		t.Net.add(original, current)
	default:
		t.Assets.add(original, current)
		t.Net.add(original, current)
	}
}

// ─── Submission Results ─────────────────────────────────────────────────────

// SubmissionResult records the outcome of one attempted row update.
type SubmissionResult struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchResult aggregates a submission batch. FailedKeys are retained until a
// retry succeeds or the user clears them, never silently dropped.
type BatchResult struct {
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	FailedKeys   []string           `json:"failed_keys,omitempty"`
	Results      []SubmissionResult `json:"results,omitempty"`
}

// Progress is an incremental batch progress report, suitable for a live
// progress bar. Current is monotonically non-decreasing and reaches Total
// exactly once per batch.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}
