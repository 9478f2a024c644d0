package normalize

import (
	"testing"
	"time"

	"github.com/nestegg-app/nestegg/internal/domain"
)

func TestRows_PositionVariants(t *testing.T) {
	rows := Rows(Collections{
		Positions: []domain.Record{
			{"id": "p1", "ticker": "AAPL", "asset_type": "security", "quantity": 10.0, "institution": "Fidelity"},
			{"position_id": "p2", "symbol": "BTC", "type": "crypto", "units": 0.5, "brokerage": "Coinbase"},
			{"id": "p3", "name": "Checking", "asset_type": "cash", "amount": 1200.50, "institution": "Chase"},
			{"id": "p4", "identifier": "GLD", "kind": "metal", "shares": "3.2", "institution": "Vault"},
		},
	})
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}

	tests := []struct {
		kind  domain.RowKind
		ident string
		value float64
	}{
		{domain.KindSecurity, "AAPL", 10},
		{domain.KindCrypto, "BTC", 0.5},
		{domain.KindCash, "", 1200.50},
		{domain.KindMetal, "GLD", 3.2},
	}
	for i, tt := range tests {
		if rows[i].Kind != tt.kind {
			t.Errorf("row %d kind = %s, want %s", i, rows[i].Kind, tt.kind)
		}
		if rows[i].Identifier != tt.ident {
			t.Errorf("row %d identifier = %q, want %q", i, rows[i].Identifier, tt.ident)
		}
		if rows[i].BaselineValue != tt.value {
			t.Errorf("row %d value = %v, want %v", i, rows[i].BaselineValue, tt.value)
		}
	}
}

func TestRows_KindInferredFromShape(t *testing.T) {
	rows := Rows(Collections{
		Positions: []domain.Record{
			{"id": "p1", "ticker": "VTI", "quantity": 5.0}, // no type field
			{"id": "p2", "name": "Wallet", "amount": 80.0}, // amount only
		},
	})
	if rows[0].Kind != domain.KindSecurity {
		t.Errorf("quantity-bearing record should default to security, got %s", rows[0].Kind)
	}
	if rows[1].Kind != domain.KindCash {
		t.Errorf("amount-only record should default to cash, got %s", rows[1].Kind)
	}
}

func TestRows_LiabilityAndOtherAsset(t *testing.T) {
	rows := Rows(Collections{
		Liabilities: []domain.Record{
			{"id": "l1", "name": "Mortgage", "current_balance": 250000.0, "lender": "Wells Fargo"},
		},
		OtherAssets: []domain.Record{
			{"id": "a1", "asset_name": "Car", "current_value": 18000.0},
		},
	})
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	liab := rows[0]
	if liab.Kind != domain.KindLiability || liab.BaselineValue != 250000 || liab.Institution != "Wells Fargo" {
		t.Errorf("liability row = %+v", liab)
	}

	other := rows[1]
	if other.Kind != domain.KindOther || other.BaselineValue != 18000 {
		t.Errorf("other row = %+v", other)
	}
	if other.Institution != domain.FallbackInstitution {
		t.Errorf("missing institution should fall back to %q, got %q", domain.FallbackInstitution, other.Institution)
	}
}

func TestRows_AccountLookup(t *testing.T) {
	rows := Rows(Collections{
		Accounts: []domain.Record{
			{"id": "acc1", "account_name": "Brokerage", "institution": "Schwab"},
		},
		Positions: []domain.Record{
			{"id": "p1", "ticker": "MSFT", "asset_type": "stock", "quantity": 2.0, "account_id": "acc1"},
		},
	})
	if rows[0].Institution != "Schwab" {
		t.Errorf("institution = %q, want resolved from account", rows[0].Institution)
	}
	if rows[0].SubLabel != "Brokerage" {
		t.Errorf("sub-label = %q, want account name", rows[0].SubLabel)
	}
}

func TestRows_DuplicateKeysFirstSeenWins(t *testing.T) {
	rows := Rows(Collections{
		Positions: []domain.Record{
			{"id": "p1", "ticker": "AAPL", "asset_type": "security", "quantity": 10.0, "institution": "Fidelity"},
			{"id": "p1", "ticker": "AAPL", "asset_type": "security", "quantity": 99.0, "institution": "Fidelity"},
		},
	})
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want de-duplicated 1", len(rows))
	}
	if rows[0].BaselineValue != 10 {
		t.Errorf("value = %v, first-seen should win", rows[0].BaselineValue)
	}
}

func TestRows_SkipsRecordsWithoutID(t *testing.T) {
	rows := Rows(Collections{
		Positions:   []domain.Record{{"ticker": "AAPL", "quantity": 1.0}},
		Liabilities: []domain.Record{{"name": "Loan", "balance": 5.0}},
	})
	if len(rows) != 0 {
		t.Errorf("records without ids should be dropped, got %d rows", len(rows))
	}
}

func TestRows_Timestamp(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := Rows(Collections{
		Positions: []domain.Record{
			{"id": "p1", "amount": 1.0, "updated_at": now.Format(time.RFC3339)},
		},
	})
	if !rows[0].UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", rows[0].UpdatedAt, now)
	}
}
