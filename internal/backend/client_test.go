package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nestegg-app/nestegg/internal/domain"
)

func TestFetchPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/positions" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"positions": []map[string]interface{}{
				{"id": "p1", "ticker": "AAPL", "quantity": 10},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	records, err := c.FetchPositions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0]["id"] != "p1" {
		t.Errorf("records = %v", records)
	}
}

func TestUpdateCashPosition_SendsAmount(t *testing.T) {
	var gotPath string
	var gotBody map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	if err := c.UpdateCashPosition(context.Background(), "p1", 650); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/positions/p1/cash" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["amount"] != 650 {
		t.Errorf("body = %v", gotBody)
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"not found is terminal", http.StatusNotFound, false},
		{"bad request is terminal", http.StatusBadRequest, false},
		{"server error is transient", http.StatusInternalServerError, true},
		{"unavailable is transient", http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]string{"message": "nope"},
				})
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 0)
			err := c.UpdateLiability(context.Background(), "l1", 100)
			if err == nil {
				t.Fatal("want error")
			}
			if domain.IsTransient(err) != tt.transient {
				t.Errorf("IsTransient = %v, want %v", domain.IsTransient(err), tt.transient)
			}
		})
	}
}

func TestNetworkErrorIsTransient(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, 0)
	err := c.RefreshAll(context.Background())
	if err == nil {
		t.Fatal("want error")
	}
	if !domain.IsTransient(err) {
		t.Errorf("network failure should be transient, got %v", err)
	}
}

func TestRefreshAll(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/refresh" && r.Method == http.MethodPost {
			called = true
		}
		json.NewEncoder(w).Encode(map[string]float64{"net": 0})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	if err := c.RefreshAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("refresh endpoint not called")
	}
}

func TestUpdatePosition_QuantityEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	if err := c.UpdatePosition(context.Background(), "p9", 4.2, domain.KindCrypto); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/positions/p9" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["quantity"] != 4.2 {
		t.Errorf("body = %v", gotBody)
	}
}
