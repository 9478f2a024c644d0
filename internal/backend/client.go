// Package backend implements the data service over the NestEgg HTTP API.
// Response statuses are classified into transient and terminal failures so
// the submission coordinator knows what is worth retrying.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nestegg-app/nestegg/internal/domain"
)

// Client talks to the portfolio API. It implements domain.DataService.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API at baseURL (e.g.
// "http://localhost:8418"). A zero timeout defaults to 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

var _ domain.DataService = (*Client)(nil)

// ─── Fetch ──────────────────────────────────────────────────────────────────

// FetchAccounts returns the raw account records.
func (c *Client) FetchAccounts(ctx context.Context) ([]domain.Record, error) {
	return c.fetchList(ctx, "/api/accounts", "accounts")
}

// FetchPositions returns the raw position records.
func (c *Client) FetchPositions(ctx context.Context) ([]domain.Record, error) {
	return c.fetchList(ctx, "/api/positions", "positions")
}

// FetchLiabilities returns the raw liability records.
func (c *Client) FetchLiabilities(ctx context.Context) ([]domain.Record, error) {
	return c.fetchList(ctx, "/api/liabilities", "liabilities")
}

// FetchOtherAssets returns the raw other-asset records.
func (c *Client) FetchOtherAssets(ctx context.Context) ([]domain.Record, error) {
	return c.fetchList(ctx, "/api/otherassets", "other_assets")
}

func (c *Client) fetchList(ctx context.Context, path, field string) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.ClassifyStatus("fetch "+field, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("fetch "+field, resp)
	}

	var body map[string][]domain.Record
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", field, err)
	}
	return body[field], nil
}

// ─── Updates ────────────────────────────────────────────────────────────────

// UpdateCashPosition sets a cash position's amount.
func (c *Client) UpdateCashPosition(ctx context.Context, id string, amount float64) error {
	return c.put(ctx, "/api/positions/"+url.PathEscape(id)+"/cash",
		map[string]float64{"amount": amount})
}

// UpdateLiability sets a liability's current balance.
func (c *Client) UpdateLiability(ctx context.Context, id string, currentBalance float64) error {
	return c.put(ctx, "/api/liabilities/"+url.PathEscape(id)+"/balance",
		map[string]float64{"current_balance": currentBalance})
}

// UpdateOtherAsset sets an other asset's current value.
func (c *Client) UpdateOtherAsset(ctx context.Context, id string, currentValue float64) error {
	return c.put(ctx, "/api/otherassets/"+url.PathEscape(id)+"/value",
		map[string]float64{"current_value": currentValue})
}

// UpdatePosition sets a holding position's quantity. The kind is accepted for
// interface symmetry; all quantity kinds share one endpoint.
func (c *Client) UpdatePosition(ctx context.Context, id string, quantity float64, kind domain.RowKind) error {
	return c.put(ctx, "/api/positions/"+url.PathEscape(id),
		map[string]float64{"quantity": quantity})
}

// RefreshAll asks the backend to recompute derived state (net-worth
// snapshot) after a submission batch lands.
func (c *Client) RefreshAll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/refresh", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ClassifyStatus("refresh", 0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError("refresh", resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (c *Client) put(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ClassifyStatus("put "+path, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError("put "+path, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// statusError turns a non-200 response into a classified error, pulling the
// server's message out of the error envelope when present.
func (c *Client) statusError(op string, resp *http.Response) error {
	msg := resp.Status
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	return domain.ClassifyStatus(op, resp.StatusCode, fmt.Errorf("%s", msg))
}
