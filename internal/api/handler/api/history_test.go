// internal/api/handler/api/history_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/relay/internal/core"
	"github.com/newthinker/relay/internal/storage/history"
)

func seedStore(t *testing.T) history.Store {
	t.Helper()
	store := history.NewMemoryStore(100)
	records := []core.Record{
		{ID: "cmpl_1", Vendor: core.VendorOpenAI, Model: "text-davinci-003", Text: "Bar Baz", CreatedAt: time.Now().UTC()},
		{ID: "cmpl_2", Vendor: core.VendorClaude, Model: "claude-sonnet-4-20250514", Text: "hello", CreatedAt: time.Now().UTC()},
	}
	for _, rec := range records {
		if err := store.Save(context.Background(), rec); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	return store
}

func TestHistoryHandler_List(t *testing.T) {
	h := NewHistoryHandler(seedStore(t))

	req := httptest.NewRequest("GET", "/v1/completions/recent", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data struct {
			Completions []core.Record `json:"completions"`
			Total       int           `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Data.Completions) != 2 {
		t.Errorf("expected 2 records, got %d", len(resp.Data.Completions))
	}
	if resp.Data.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Data.Total)
	}
}

func TestHistoryHandler_List_VendorFilter(t *testing.T) {
	h := NewHistoryHandler(seedStore(t))

	req := httptest.NewRequest("GET", "/v1/completions/recent?vendor=claude", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	var resp struct {
		Data struct {
			Completions []core.Record `json:"completions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Data.Completions) != 1 {
		t.Fatalf("expected 1 record, got %d", len(resp.Data.Completions))
	}
	if resp.Data.Completions[0].Vendor != core.VendorClaude {
		t.Errorf("expected claude record, got %s", resp.Data.Completions[0].Vendor)
	}
}

func TestHistoryHandler_GetByID(t *testing.T) {
	h := NewHistoryHandler(seedStore(t))

	req := httptest.NewRequest("GET", "/v1/completions/cmpl_1", nil)
	w := httptest.NewRecorder()
	h.GetByID(w, req, "cmpl_1")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data core.Record `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Data.Text != "Bar Baz" {
		t.Errorf("expected Bar Baz, got %q", resp.Data.Text)
	}
}

func TestHistoryHandler_GetByID_NotFound(t *testing.T) {
	h := NewHistoryHandler(seedStore(t))

	req := httptest.NewRequest("GET", "/v1/completions/missing", nil)
	w := httptest.NewRecorder()
	h.GetByID(w, req, "missing")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
