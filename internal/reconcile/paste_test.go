package reconcile

import (
	"strings"
	"testing"

	"github.com/nestegg-app/nestegg/internal/domain"
)

func tickerRow(key, ident, institution string, baseline float64) domain.Row {
	return domain.Row{
		Key: key, Kind: domain.KindSecurity, ID: key,
		Identifier: ident, Institution: institution, BaselineValue: baseline,
	}
}

// ─── ParseNumber ────────────────────────────────────────────────────────────

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"150", 150, false},
		{"  42.5 ", 42.5, false},
		{"$1,234.56", 1234.56, false},
		{"€999", 999, false},
		{"(1,234.56)", -1234.56, false},
		{"-17", -17, false},
		{"12%", 12, false},
		{"", 0, true},
		{"abc", 0, true},
		{"Quantity", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNumber(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ─── Identifier paste ───────────────────────────────────────────────────────

func TestApplyPaste_RoundTrip(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{
		tickerRow("s:1", "AAPL", "Fidelity", 100),
		tickerRow("s:2", "MSFT", "Fidelity", 200),
	}

	res := ApplyPaste(store, rows, "AAPL\t150\nMSFT\t300", "")
	if res.SuccessCount != 2 || res.FailedCount != 0 {
		t.Fatalf("success=%d failed=%d, want 2/0 (errors: %v)", res.SuccessCount, res.FailedCount, res.Errors)
	}

	if d, _ := store.Get("s:1"); d.NewValue != 150 {
		t.Errorf("AAPL draft = %v, want 150", d.NewValue)
	}
	if d, _ := store.Get("s:2"); d.NewValue != 300 {
		t.Errorf("MSFT draft = %v, want 300", d.NewValue)
	}
}

func TestApplyPaste_CommaDelimited(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{tickerRow("s:1", "BTC", "Coinbase", 1)}

	res := ApplyPaste(store, rows, "btc, 2.5", "")
	if res.SuccessCount != 1 {
		t.Fatalf("success=%d, errors=%v", res.SuccessCount, res.Errors)
	}
	if d, _ := store.Get("s:1"); d.NewValue != 2.5 {
		t.Errorf("draft = %v, want 2.5 (case-insensitive match)", d.NewValue)
	}
}

func TestApplyPaste_HeaderSkipped(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{tickerRow("s:1", "AAPL", "Fidelity", 100)}

	res := ApplyPaste(store, rows, "Ticker\tQuantity\nAAPL\t150", "")
	if !res.HeaderSkipped {
		t.Error("header line should be detected and skipped")
	}
	if res.SuccessCount != 1 || res.FailedCount != 0 {
		t.Errorf("success=%d failed=%d, want 1/0; header is neither", res.SuccessCount, res.FailedCount)
	}
	if d, _ := store.Get("s:1"); d.NewValue != 150 {
		t.Errorf("draft = %v, want 150", d.NewValue)
	}
}

func TestApplyPaste_HeaderHeuristic(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{tickerRow("s:1", "AAPL", "Fidelity", 100)}

	// Unknown header word: detected because its value cell is non-numeric
	// while a later line's value cell parses.
	res := ApplyPaste(store, rows, "Holding\tUnits\nAAPL\t150", "")
	if !res.HeaderSkipped {
		t.Error("heuristic should skip a first line with a non-numeric value cell")
	}

	// Single line, non-numeric value: not a header, a parse failure.
	store = NewStore()
	res = ApplyPaste(store, rows, "AAPL\tabc", "")
	if res.HeaderSkipped {
		t.Error("a lone unparseable line is not a header")
	}
	if res.FailedCount != 1 {
		t.Errorf("failed=%d, want 1", res.FailedCount)
	}
}

func TestApplyPaste_BroadcastWithoutHint(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{
		tickerRow("s:1", "AAPL", "Fidelity", 100),
		tickerRow("s:2", "AAPL", "Schwab", 50),
	}

	res := ApplyPaste(store, rows, "AAPL\t150", "")
	if res.SuccessCount != 1 {
		t.Fatalf("success=%d, errors=%v", res.SuccessCount, res.Errors)
	}
	// No account hint: applied uniformly to every AAPL row (stock-split
	// semantics).
	if !store.Has("s:1") || !store.Has("s:2") {
		t.Error("value should broadcast to all rows matching the identifier")
	}
}

func TestApplyPaste_AccountHintNarrows(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{
		tickerRow("s:1", "AAPL", "Fidelity", 100),
		tickerRow("s:2", "AAPL", "Schwab", 50),
	}

	ApplyPaste(store, rows, "AAPL\t150", "schwab")
	if store.Has("s:1") {
		t.Error("hinted paste must not touch the other account")
	}
	if d, _ := store.Get("s:2"); d.NewValue != 150 {
		t.Errorf("hinted row draft = %v, want 150", d.NewValue)
	}
}

func TestApplyPaste_ThirdColumnHint(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{
		tickerRow("s:1", "AAPL", "Fidelity", 100),
		tickerRow("s:2", "AAPL", "Schwab", 50),
	}

	ApplyPaste(store, rows, "AAPL\t150\tFidelity", "")
	if store.Has("s:2") {
		t.Error("line-level hint must not touch the other account")
	}
	if !store.Has("s:1") {
		t.Error("line-level hint should target the named account")
	}
}

func TestApplyPaste_PerLineErrors(t *testing.T) {
	store := NewStore()
	rows := []domain.Row{tickerRow("s:1", "AAPL", "Fidelity", 100)}

	res := ApplyPaste(store, rows, "AAPL\t150\nXYZ\t10\nMSFT\tnope", "")
	if res.SuccessCount != 1 {
		t.Errorf("success=%d, want 1", res.SuccessCount)
	}
	if res.FailedCount != 2 {
		t.Errorf("failed=%d, want 2", res.FailedCount)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("errors=%v, want 2 line-indexed messages", res.Errors)
	}
	for _, e := range res.Errors {
		if !strings.HasPrefix(e, "line ") {
			t.Errorf("error %q should be line-indexed", e)
		}
	}
}

func TestApplyPaste_NoParseableData(t *testing.T) {
	store := NewStore()
	res := ApplyPaste(store, nil, "   \n  ", "")
	if res.SuccessCount != 0 || len(res.Errors) == 0 {
		t.Errorf("empty paste should yield zero successes with errors, got %+v", res)
	}
}

// ─── Grid paste ─────────────────────────────────────────────────────────────

func TestApplyGridPaste_Positional(t *testing.T) {
	store := NewStore()
	visible := []domain.Row{
		cashRow("c:1", 100),
		cashRow("c:2", 200),
		cashRow("c:3", 300),
	}

	res := ApplyGridPaste(store, visible, "110\n220")
	if res.Applied != 2 {
		t.Fatalf("applied=%d, want 2", res.Applied)
	}
	if d, _ := store.Get("c:1"); d.NewValue != 110 {
		t.Errorf("first row draft = %v, want 110", d.NewValue)
	}
	if store.Has("c:3") {
		t.Error("rows beyond the pasted values must stay untouched")
	}
}

func TestApplyGridPaste_ExcessIgnored(t *testing.T) {
	store := NewStore()
	visible := []domain.Row{cashRow("c:1", 100)}

	res := ApplyGridPaste(store, visible, "110\n220\n330")
	if res.Applied != 1 || res.Ignored != 2 {
		t.Errorf("applied=%d ignored=%d, want 1/2", res.Applied, res.Ignored)
	}
}

func TestApplyGridPaste_HeaderWarning(t *testing.T) {
	store := NewStore()
	visible := []domain.Row{cashRow("c:1", 100), cashRow("c:2", 200)}

	res := ApplyGridPaste(store, visible, "Balance\n220")
	if !res.HeaderWarning {
		t.Error("non-numeric first value over numeric rest should warn")
	}
	// Not skipped: the first position fails, the second applies.
	if res.Failed != 1 || res.Applied != 1 {
		t.Errorf("failed=%d applied=%d, want 1/1", res.Failed, res.Applied)
	}
}
