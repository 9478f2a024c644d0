package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the reconciliation engine depends on them.

// Record is a loosely-typed backend record. The normalizer coalesces the
// many possible field-name variants into a strict Row at the boundary;
// reconciliation logic never touches Records directly.
type Record map[string]any

// DataService abstracts the portfolio backend the engine reconciles against.
// All update operations are idempotent single-item upserts, safe to retry.
type DataService interface {
	FetchAccounts(ctx context.Context) ([]Record, error)
	FetchPositions(ctx context.Context) ([]Record, error)
	FetchLiabilities(ctx context.Context) ([]Record, error)
	FetchOtherAssets(ctx context.Context) ([]Record, error)

	UpdateCashPosition(ctx context.Context, id string, amount float64) error
	UpdateLiability(ctx context.Context, id string, currentBalance float64) error
	UpdateOtherAsset(ctx context.Context, id string, currentValue float64) error
	UpdatePosition(ctx context.Context, id string, quantity float64, kind RowKind) error

	// RefreshAll re-derives any cached aggregates after a batch lands.
	// A refresh failure is logged by the caller, never treated as batch failure.
	RefreshAll(ctx context.Context) error
}
