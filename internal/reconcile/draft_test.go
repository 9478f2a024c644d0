package reconcile

import (
	"testing"

	"github.com/nestegg-app/nestegg/internal/domain"
)

func cashRow(key string, baseline float64) domain.Row {
	return domain.Row{Key: key, Kind: domain.KindCash, ID: "1", Institution: "Chase", BaselineValue: baseline}
}

func qtyRow(key string, baseline float64) domain.Row {
	return domain.Row{Key: key, Kind: domain.KindSecurity, ID: "2", Institution: "Fidelity", BaselineValue: baseline}
}

// ─── Epsilon auto-clear ─────────────────────────────────────────────────────

func TestStore_SetBackToOriginal_RemovesDraft(t *testing.T) {
	store := NewStore()
	row := cashRow("cash:1:Chase", 1000.00)

	store.SetValue(row, 1200)
	if !store.Has(row.Key) {
		t.Fatal("draft should exist after edit")
	}

	store.SetValue(row, 1000.00)
	if store.Has(row.Key) {
		t.Error("typing the original value back must remove the draft")
	}
}

func TestStore_QuantityEpsilon(t *testing.T) {
	store := NewStore()
	row := qtyRow("security:2:Fidelity", 1000.0)

	store.SetValue(row, 1000.0000001)
	if store.Has(row.Key) {
		t.Error("value within 1e-7 of original should not create a draft")
	}

	store.SetValue(row, 1000.01)
	if !store.Has(row.Key) {
		t.Error("value outside epsilon should create a draft")
	}
}

func TestStore_CurrencyExactEquality(t *testing.T) {
	store := NewStore()
	row := cashRow("cash:1:Chase", 1000.00)

	store.SetValue(row, 1000.01)
	if !store.Has(row.Key) {
		t.Error("1000.01 vs 1000.00 on a currency row must be a draft")
	}
}

func TestStore_Set_ParsesRawValues(t *testing.T) {
	store := NewStore()
	row := cashRow("cash:1:Chase", 500)

	tests := []struct {
		raw  string
		want float64
	}{
		{"650", 650},
		{"$1,250.75", 1250.75},
		{"(300)", -300},
		{"garbage", 0}, // unparseable raw is treated as 0
	}
	for _, tt := range tests {
		store.Set(row, tt.raw)
		d, ok := store.Get(row.Key)
		if !ok {
			t.Fatalf("Set(%q): no draft", tt.raw)
		}
		if d.NewValue != tt.want {
			t.Errorf("Set(%q) = %v, want %v", tt.raw, d.NewValue, tt.want)
		}
	}
}

func TestStore_OriginalValueSnapshot(t *testing.T) {
	store := NewStore()
	row := cashRow("cash:1:Chase", 500)

	store.SetValue(row, 600)
	store.SetValue(row, 700)

	d, _ := store.Get(row.Key)
	if d.OriginalValue != 500 {
		t.Errorf("OriginalValue = %v, want snapshot 500 from draft creation", d.OriginalValue)
	}
}

// ─── Idempotent clears ──────────────────────────────────────────────────────

func TestStore_IdempotentClear(t *testing.T) {
	store := NewStore()

	store.Clear("no-such-key") // must not panic
	store.ClearAll()

	row := cashRow("cash:1:Chase", 100)
	store.SetValue(row, 200)
	store.ClearAll()
	if store.Len() != 0 {
		t.Errorf("Len = %d after ClearAll, want 0", store.Len())
	}
	store.ClearAll() // still a no-op
}

func TestStore_ClearKeys(t *testing.T) {
	store := NewStore()
	a := cashRow("cash:1:Chase", 100)
	b := cashRow("cash:2:Chase", 100)
	store.SetValue(a, 150)
	store.SetValue(b, 150)

	store.ClearKeys([]string{a.Key, "missing"})
	if store.Has(a.Key) || !store.Has(b.Key) {
		t.Error("ClearKeys should remove only the named keys")
	}
}

// ─── Changed-row derivation ─────────────────────────────────────────────────

func TestStore_ChangedRows_Pure(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{cashRow("cash:1:Chase", 500), cashRow("cash:2:Chase", 300)}

	store.SetValue(rows[0], 650)

	first := store.ChangedRows(rows)
	second := store.ChangedRows(rows)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one changed row, got %d and %d", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Error("identical inputs must yield identical output")
	}
	if first[0].Delta != 150 || first[0].DeltaPercent != 30 {
		t.Errorf("Delta=%v DeltaPercent=%v, want 150 / 30", first[0].Delta, first[0].DeltaPercent)
	}

	store.SetValue(rows[1], 400)
	third := store.ChangedRows(rows)
	if len(third) != 2 {
		t.Errorf("after second draft, expected 2 changed rows, got %d", len(third))
	}
}

func TestStore_ChangedRows_DraftEqualToRefreshedBaseline(t *testing.T) {
	store := NewStore()
	row := cashRow("cash:1:Chase", 500)
	store.SetValue(row, 650)

	// Baseline refreshed to match the draft; no longer a change.
	refreshed := row
	refreshed.BaselineValue = 650
	if got := store.ChangedRows([]domain.Row{refreshed}); len(got) != 0 {
		t.Errorf("expected no changed rows, got %d", len(got))
	}
}

// ─── Totals ─────────────────────────────────────────────────────────────────

func TestStore_Totals(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{
		cashRow("cash:1:Chase", 1000),
		{Key: "liability:1:Chase", Kind: domain.KindLiability, ID: "3", Institution: "Chase", BaselineValue: 400},
		{Key: "other:1:Home", Kind: domain.KindOther, ID: "4", Institution: "Home", BaselineValue: 250},
	}
	store.SetValue(rows[0], 1100)
	store.SetValue(rows[1], 350)

	tot := store.Totals(rows)
	if tot.Assets.Original != 1000 || tot.Assets.New != 1100 {
		t.Errorf("Assets = %+v", tot.Assets)
	}
	if tot.Liabilities.New != 350 {
		t.Errorf("Liabilities.New = %v, want 350", tot.Liabilities.New)
	}
	// Net original: 1000 + 250 − 400 = 850; new: 1100 + 250 − 350 = 1000.
	if tot.Net.Original != 850 || tot.Net.New != 1000 || tot.Net.Delta != 150 {
		t.Errorf("Net = %+v", tot.Net)
	}
}
