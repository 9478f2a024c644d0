// Package normalize converts loosely-typed backend records into strict
// domain.Row values. Backends ship the same concept under many field names
// (amount / balance / current_value, ticker / symbol / identifier); all of
// that coalescing happens here, at the boundary, so reconciliation logic
// never sees a raw record.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/nestegg-app/nestegg/internal/domain"
)

// Collections groups the raw record sets fetched from the backend.
type Collections struct {
	Accounts    []domain.Record
	Positions   []domain.Record
	Liabilities []domain.Record
	OtherAssets []domain.Record
}

// Rows normalizes every record into the uniform row shape. Row keys are
// unique within the output: duplicates are dropped first-seen-wins.
func Rows(c Collections) []domain.Row {
	accounts := indexAccounts(c.Accounts)

	var out []domain.Row
	seen := make(map[string]bool)
	add := func(r domain.Row) {
		if r.Key == "" || seen[r.Key] {
			return
		}
		seen[r.Key] = true
		out = append(out, r)
	}

	for _, rec := range c.Positions {
		add(positionRow(rec, accounts))
	}
	for _, rec := range c.Liabilities {
		add(liabilityRow(rec))
	}
	for _, rec := range c.OtherAssets {
		add(otherAssetRow(rec))
	}
	return out
}

// accountInfo is the slice of an account record the normalizer needs.
type accountInfo struct {
	Name        string
	Institution string
}

func indexAccounts(records []domain.Record) map[string]accountInfo {
	idx := make(map[string]accountInfo, len(records))
	for _, rec := range records {
		id := str(rec, "id", "account_id")
		if id == "" {
			continue
		}
		idx[id] = accountInfo{
			Name:        str(rec, "account_name", "name"),
			Institution: str(rec, "institution", "brokerage"),
		}
	}
	return idx
}

// positionRow maps one position record. Cash positions become cash rows
// valued by amount; everything quantity-bearing becomes a security, crypto,
// or metal row valued by quantity.
func positionRow(rec domain.Record, accounts map[string]accountInfo) domain.Row {
	id := str(rec, "id", "position_id")
	if id == "" {
		return domain.Row{}
	}

	kind := positionKind(rec)
	identifier := str(rec, "ticker", "symbol", "identifier", "coin_symbol", "metal_type")
	name := str(rec, "name", "security_name", "coin_name", "description")
	if name == "" {
		name = identifier
	}

	acct := accounts[str(rec, "account_id")]
	institution := str(rec, "institution", "brokerage")
	if institution == "" {
		institution = acct.Institution
	}
	subLabel := str(rec, "account_name")
	if subLabel == "" {
		subLabel = acct.Name
	}

	value := num(rec, "amount", "balance", "cash_amount")
	if kind.Quantity() {
		value = num(rec, "quantity", "shares", "units")
	}

	return domain.Row{
		Key:           domain.RowKey(kind, id, institution),
		Kind:          kind,
		ID:            id,
		Identifier:    identifier,
		Name:          name,
		SubLabel:      subLabel,
		Institution:   institution,
		BaselineValue: value,
		UpdatedAt:     timestamp(rec),
	}
}

func liabilityRow(rec domain.Record) domain.Row {
	id := str(rec, "id", "liability_id")
	if id == "" {
		return domain.Row{}
	}
	institution := str(rec, "institution", "lender")
	name := str(rec, "name", "liability_name")
	return domain.Row{
		Key:           domain.RowKey(domain.KindLiability, id, institution),
		Kind:          domain.KindLiability,
		ID:            id,
		Identifier:    name,
		Name:          name,
		SubLabel:      str(rec, "liability_type", "type"),
		Institution:   institution,
		BaselineValue: num(rec, "current_balance", "balance", "amount"),
		UpdatedAt:     timestamp(rec),
	}
}

func otherAssetRow(rec domain.Record) domain.Row {
	id := str(rec, "id", "asset_id")
	if id == "" {
		return domain.Row{}
	}
	institution := str(rec, "institution")
	if institution == "" {
		institution = domain.FallbackInstitution
	}
	name := str(rec, "asset_name", "name")
	return domain.Row{
		Key:           domain.RowKey(domain.KindOther, id, institution),
		Kind:          domain.KindOther,
		ID:            id,
		Identifier:    name,
		Name:          name,
		SubLabel:      str(rec, "asset_type", "type"),
		Institution:   institution,
		BaselineValue: num(rec, "current_value", "value", "amount"),
		UpdatedAt:     timestamp(rec),
	}
}

// positionKind resolves a position's kind from its type field, defaulting by
// shape: records carrying a quantity are securities, records carrying only
// an amount are cash.
func positionKind(rec domain.Record) domain.RowKind {
	switch strings.ToLower(str(rec, "asset_type", "type", "kind")) {
	case "cash", "money_market", "cd":
		return domain.KindCash
	case "security", "stock", "equity", "etf", "bond", "fund", "mutual_fund":
		return domain.KindSecurity
	case "crypto", "cryptocurrency", "coin":
		return domain.KindCrypto
	case "metal", "precious_metal", "commodity":
		return domain.KindMetal
	}
	if _, ok := lookupNum(rec, "quantity", "shares", "units"); ok {
		return domain.KindSecurity
	}
	return domain.KindCash
}

// ─── Field coalescing ───────────────────────────────────────────────────────

// str returns the first non-empty string value among the candidate keys.
func str(rec domain.Record, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// num returns the first numeric value among the candidate keys, or 0.
func num(rec domain.Record, keys ...string) float64 {
	v, _ := lookupNum(rec, keys...)
	return v
}

func lookupNum(rec domain.Record, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case string:
			// Some backends ship numerics as strings.
			if s := strings.TrimSpace(n); s != "" {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}

// timestamp coalesces the last-update field, accepting time.Time or RFC 3339.
func timestamp(rec domain.Record) time.Time {
	for _, k := range []string{"updated_at", "last_update", "last_updated", "timestamp"} {
		switch v := rec[k].(type) {
		case time.Time:
			return v
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
