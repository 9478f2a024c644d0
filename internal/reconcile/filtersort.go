package reconcile

import (
	"math"
	"sort"

	"github.com/nestegg-app/nestegg/internal/domain"
)

// ─── Filter / Sort / Group ──────────────────────────────────────────────────
// Pure functions over (rows, drafts, filter state). No caching: derived
// stats are recomputed on every call. Stale totals are the one failure
// mode this engine exists to prevent.

// Filter describes the active row predicates. Kind toggles apply per
// contribution class: Cash covers cash and the quantity kinds
// (security/crypto/metal), Liabilities covers liability rows, Other covers
// generic assets.
type Filter struct {
	Cash        bool   `json:"cash"`
	Liabilities bool   `json:"liabilities"`
	Other       bool   `json:"other"`
	Search      string `json:"search"`
	HideZeros   bool   `json:"hide_zeros"`
	ChangedOnly bool   `json:"changed_only"`
	Institution string `json:"institution"` // exact match, empty = all
}

// DefaultFilter includes every row.
func DefaultFilter() Filter {
	return Filter{Cash: true, Liabilities: true, Other: true}
}

// kindEnabled maps a row kind onto its class toggle.
func (f Filter) kindEnabled(k domain.RowKind) bool {
	switch k {
	case domain.KindLiability:
		return f.Liabilities
	case domain.KindOther:
		return f.Other
	default:
		return f.Cash
	}
}

// FilterRows returns the rows passing every active predicate, preserving
// input order.
func FilterRows(rows []domain.Row, store *Store, f Filter) []domain.Row {
	var out []domain.Row
	for _, row := range rows {
		if !f.kindEnabled(row.Kind) {
			continue
		}
		if !row.MatchesSearch(f.Search) {
			continue
		}
		if f.Institution != "" && row.Institution != f.Institution {
			continue
		}
		hasDraft := store.Has(row.Key)
		if f.HideZeros && row.BaselineValue == 0 && !hasDraft {
			continue
		}
		if f.ChangedOnly {
			if !hasDraft || row.ValuesEqual(store.CurrentValue(row), row.BaselineValue) {
				continue
			}
		}
		out = append(out, row)
	}
	return out
}

// ─── Sorting ────────────────────────────────────────────────────────────────

// SortKey names a sortable column.
type SortKey string

const (
	SortInstitution SortKey = "institution"
	SortValue       SortKey = "value"
	SortChange      SortKey = "change"
	SortName        SortKey = "name"
	SortType        SortKey = "type"
)

// SortRows returns a stably sorted copy of rows. Ties keep insertion order;
// institution-grouped secondary ordering depends on this.
func SortRows(rows []domain.Row, store *Store, key SortKey, descending bool) []domain.Row {
	out := make([]domain.Row, len(rows))
	copy(out, rows)

	less := func(a, b domain.Row) bool {
		switch key {
		case SortValue:
			return store.CurrentValue(a) < store.CurrentValue(b)
		case SortChange:
			return store.CurrentValue(a)-a.BaselineValue < store.CurrentValue(b)-b.BaselineValue
		case SortName:
			return a.Name < b.Name
		case SortType:
			return a.Kind < b.Kind
		default:
			return a.Institution < b.Institution
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// ─── Grouping ───────────────────────────────────────────────────────────────

// GroupBy names a grouping mode.
type GroupBy string

const (
	GroupNone        GroupBy = ""
	GroupInstitution GroupBy = "institution"
	GroupType        GroupBy = "type"
	GroupAccount     GroupBy = "account"
)

// AllItemsGroup names the single bucket used when grouping is disabled.
const AllItemsGroup = "All Items"

// Group is a named bucket of rows.
type Group struct {
	Name string       `json:"name"`
	Rows []domain.Row `json:"rows"`

	// AbsBaseline is the sum of absolute baseline values in the bucket;
	// buckets are ordered by it, descending.
	AbsBaseline float64 `json:"abs_baseline"`
}

// GroupRows partitions rows into named buckets. Row order within a bucket
// follows the input order; buckets are ordered by descending sum of
// absolute baseline value.
func GroupRows(rows []domain.Row, by GroupBy) []Group {
	if by == GroupNone {
		g := Group{Name: AllItemsGroup, Rows: rows}
		for _, row := range rows {
			g.AbsBaseline += math.Abs(row.BaselineValue)
		}
		return []Group{g}
	}

	index := make(map[string]int)
	var groups []Group
	for _, row := range rows {
		name := groupName(row, by)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Rows = append(groups[i].Rows, row)
		groups[i].AbsBaseline += math.Abs(row.BaselineValue)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].AbsBaseline > groups[j].AbsBaseline
	})
	return groups
}

func groupName(row domain.Row, by GroupBy) string {
	switch by {
	case GroupType:
		return string(row.Kind)
	case GroupAccount:
		if row.SubLabel != "" {
			return row.SubLabel
		}
		return row.Institution
	default:
		if row.Institution == "" {
			return domain.FallbackInstitution
		}
		return row.Institution
	}
}

// ─── Derived Stats ──────────────────────────────────────────────────────────

// Stats summarizes a filtered row set.
type Stats struct {
	Count        int           `json:"count"`
	ChangedCount int           `json:"changed_count"`
	DeltaSum     float64       `json:"delta_sum"`
	Totals       domain.Totals `json:"totals"`
}

// ComputeStats recomputes stats for the given rows in a single O(n) pass.
func ComputeStats(rows []domain.Row, store *Store) Stats {
	s := Stats{Count: len(rows)}
	for _, row := range rows {
		current := store.CurrentValue(row)
		s.Totals.Accumulate(row.Kind, row.BaselineValue, current)
		if store.Has(row.Key) && !row.ValuesEqual(current, row.BaselineValue) {
			s.ChangedCount++
			s.DeltaSum += current - row.BaselineValue
		}
	}
	return s
}
