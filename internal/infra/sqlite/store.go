package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/nestegg-app/nestegg/internal/domain"
)

// Timestamps are stored as RFC 3339 strings, matching what the API serves.
const timeFormat = time.RFC3339

// ─── Record Types ───────────────────────────────────────────────────────────

// Account is a container grouping positions under an institution.
type Account struct {
	ID          string    `json:"id"`
	AccountName string    `json:"account_name"`
	Institution string    `json:"institution"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Position is a holding inside an account: either a cash balance (Amount)
// or a quantity of a ticker (Quantity).
type Position struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id,omitempty"`
	Ticker    string    `json:"ticker,omitempty"`
	Name      string    `json:"name"`
	AssetType string    `json:"asset_type"`
	Quantity  float64   `json:"quantity"`
	Amount    float64   `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Liability is a debt with a current balance.
type Liability struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	LiabilityType  string    `json:"liability_type,omitempty"`
	Institution    string    `json:"institution"`
	CurrentBalance float64   `json:"current_balance"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OtherAsset is a generically tracked asset (real estate, vehicles, ...).
type OtherAsset struct {
	ID           string    `json:"id"`
	AssetName    string    `json:"asset_name"`
	AssetType    string    `json:"asset_type,omitempty"`
	Institution  string    `json:"institution"`
	CurrentValue float64   `json:"current_value"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ─── Account Operations ─────────────────────────────────────────────────────

// InsertAccount creates an account, generating an ID when none is given.
func (db *DB) InsertAccount(a Account) (Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	_, err := db.db.Exec(`
		INSERT INTO accounts (id, account_name, institution, category, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.AccountName, a.Institution, a.Category, a.CreatedAt.Format(timeFormat))
	return a, err
}

// ListAccounts returns all accounts ordered by institution, then name.
func (db *DB) ListAccounts() ([]Account, error) {
	rows, err := db.db.Query(`
		SELECT id, account_name, institution, category, created_at
		FROM accounts ORDER BY institution, account_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		var created string
		if err := rows.Scan(&a.ID, &a.AccountName, &a.Institution, &a.Category, &created); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(timeFormat, created)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAccount removes an account and its positions.
func (db *DB) DeleteAccount(id string) error {
	res, err := db.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound
	}
	_, err = db.db.Exec(`DELETE FROM positions WHERE account_id = ?`, id)
	return err
}

// ─── Position Operations ────────────────────────────────────────────────────

// InsertPosition creates a position, generating an ID when none is given.
func (db *DB) InsertPosition(p Position) (Position, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.UpdatedAt = time.Now().UTC()
	_, err := db.db.Exec(`
		INSERT INTO positions (id, account_id, ticker, name, asset_type, quantity, amount, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.AccountID, p.Ticker, p.Name, p.AssetType, p.Quantity, p.Amount, p.UpdatedAt.Format(timeFormat))
	return p, err
}

// ListPositions returns all positions ordered by ticker, then name.
func (db *DB) ListPositions() ([]Position, error) {
	rows, err := db.db.Query(`
		SELECT id, account_id, ticker, name, asset_type, quantity, amount, updated_at
		FROM positions ORDER BY ticker, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		var updated string
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Ticker, &p.Name, &p.AssetType, &p.Quantity, &p.Amount, &updated); err != nil {
			return nil, err
		}
		p.UpdatedAt, _ = time.Parse(timeFormat, updated)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateCashAmount sets a cash position's amount.
func (db *DB) UpdateCashAmount(id string, amount float64) error {
	return db.touch(`UPDATE positions SET amount = ?, updated_at = ? WHERE id = ?`,
		domain.ErrPositionNotFound, amount, id)
}

// UpdateQuantity sets a quantity-bearing position's unit count.
func (db *DB) UpdateQuantity(id string, quantity float64) error {
	return db.touch(`UPDATE positions SET quantity = ?, updated_at = ? WHERE id = ?`,
		domain.ErrPositionNotFound, quantity, id)
}

// DeletePosition removes a position.
func (db *DB) DeletePosition(id string) error {
	res, err := db.db.Exec(`DELETE FROM positions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPositionNotFound
	}
	return nil
}

// ─── Liability Operations ───────────────────────────────────────────────────

// InsertLiability creates a liability, generating an ID when none is given.
func (db *DB) InsertLiability(l Liability) (Liability, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.UpdatedAt = time.Now().UTC()
	_, err := db.db.Exec(`
		INSERT INTO liabilities (id, name, liability_type, institution, current_balance, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.Name, l.LiabilityType, l.Institution, l.CurrentBalance, l.UpdatedAt.Format(timeFormat))
	return l, err
}

// ListLiabilities returns all liabilities ordered by name.
func (db *DB) ListLiabilities() ([]Liability, error) {
	rows, err := db.db.Query(`
		SELECT id, name, liability_type, institution, current_balance, updated_at
		FROM liabilities ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Liability
	for rows.Next() {
		var l Liability
		var updated string
		if err := rows.Scan(&l.ID, &l.Name, &l.LiabilityType, &l.Institution, &l.CurrentBalance, &updated); err != nil {
			return nil, err
		}
		l.UpdatedAt, _ = time.Parse(timeFormat, updated)
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateLiabilityBalance sets a liability's current balance.
func (db *DB) UpdateLiabilityBalance(id string, balance float64) error {
	return db.touch(`UPDATE liabilities SET current_balance = ?, updated_at = ? WHERE id = ?`,
		domain.ErrLiabilityNotFound, balance, id)
}

// DeleteLiability removes a liability.
func (db *DB) DeleteLiability(id string) error {
	res, err := db.db.Exec(`DELETE FROM liabilities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLiabilityNotFound
	}
	return nil
}

// ─── Other Asset Operations ─────────────────────────────────────────────────

// InsertOtherAsset creates an other-asset record, generating an ID when none
// is given.
func (db *DB) InsertOtherAsset(a OtherAsset) (OtherAsset, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.UpdatedAt = time.Now().UTC()
	_, err := db.db.Exec(`
		INSERT INTO other_assets (id, asset_name, asset_type, institution, current_value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.AssetName, a.AssetType, a.Institution, a.CurrentValue, a.UpdatedAt.Format(timeFormat))
	return a, err
}

// ListOtherAssets returns all other assets ordered by name.
func (db *DB) ListOtherAssets() ([]OtherAsset, error) {
	rows, err := db.db.Query(`
		SELECT id, asset_name, asset_type, institution, current_value, updated_at
		FROM other_assets ORDER BY asset_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OtherAsset
	for rows.Next() {
		var a OtherAsset
		var updated string
		if err := rows.Scan(&a.ID, &a.AssetName, &a.AssetType, &a.Institution, &a.CurrentValue, &updated); err != nil {
			return nil, err
		}
		a.UpdatedAt, _ = time.Parse(timeFormat, updated)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateOtherAssetValue sets an other asset's current value.
func (db *DB) UpdateOtherAssetValue(id string, value float64) error {
	return db.touch(`UPDATE other_assets SET current_value = ?, updated_at = ? WHERE id = ?`,
		domain.ErrAssetNotFound, value, id)
}

// DeleteOtherAsset removes an other-asset record.
func (db *DB) DeleteOtherAsset(id string) error {
	res, err := db.db.Exec(`DELETE FROM other_assets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

// ─── Net-Worth Snapshots ────────────────────────────────────────────────────

// NetWorthSnapshot is one point on the net-worth history, recomputed on
// every refresh.
type NetWorthSnapshot struct {
	Assets      float64   `json:"assets"`
	Liabilities float64   `json:"liabilities"`
	Other       float64   `json:"other"`
	Net         float64   `json:"net"`
	SnapshotAt  time.Time `json:"snapshot_at"`
}

// RecomputeNetWorth sums the current tables and records a snapshot.
func (db *DB) RecomputeNetWorth() (NetWorthSnapshot, error) {
	var s NetWorthSnapshot
	err := db.db.QueryRow(`
		SELECT COALESCE((SELECT SUM(amount) FROM positions), 0),
		       COALESCE((SELECT SUM(current_balance) FROM liabilities), 0),
		       COALESCE((SELECT SUM(current_value) FROM other_assets), 0)
	`).Scan(&s.Assets, &s.Liabilities, &s.Other)
	if err != nil {
		return s, err
	}
	s.Net = s.Assets + s.Other - s.Liabilities
	s.SnapshotAt = time.Now().UTC()

	_, err = db.db.Exec(`
		INSERT INTO networth_snapshots (assets, liabilities, other, net, snapshot_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.Assets, s.Liabilities, s.Other, s.Net, s.SnapshotAt.Format(timeFormat))
	return s, err
}

// LatestNetWorth returns the most recent snapshot, or a zero snapshot when
// none exists.
func (db *DB) LatestNetWorth() (NetWorthSnapshot, error) {
	var s NetWorthSnapshot
	var at string
	err := db.db.QueryRow(`
		SELECT assets, liabilities, other, net, snapshot_at
		FROM networth_snapshots ORDER BY id DESC LIMIT 1
	`).Scan(&s.Assets, &s.Liabilities, &s.Other, &s.Net, &at)
	if err == sql.ErrNoRows {
		return NetWorthSnapshot{}, nil
	}
	if err != nil {
		return s, err
	}
	s.SnapshotAt, _ = time.Parse(timeFormat, at)
	return s, nil
}

// touch runs a single-row UPDATE that also stamps updated_at, mapping a
// zero-row result onto notFound.
func (db *DB) touch(query string, notFound error, value float64, id string) error {
	res, err := db.db.Exec(query, value, time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}
