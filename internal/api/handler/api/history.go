// internal/api/handler/api/history.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/relay/internal/api/response"
	"github.com/newthinker/relay/internal/core"
	"github.com/newthinker/relay/internal/storage/history"
)

// HistoryHandler handles completion history API requests.
type HistoryHandler struct {
	store history.Store
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(store history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List returns completion records matching query parameters.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := history.ListFilter{
		Model: q.Get("model"),
	}

	if vendor := q.Get("vendor"); vendor != "" {
		filter.Vendor = core.Vendor(vendor)
	}

	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = t
		} else if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = t
		}
	}

	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = t
		} else if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = t
		}
	}

	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	} else {
		filter.Limit = 50 // Default limit
	}

	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}

	records, err := h.store.List(context.Background(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	count, _ := h.store.Count(context.Background(), filter)

	response.JSON(w, http.StatusOK, map[string]any{
		"completions": records,
		"total":       count,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})
}

// GetByID returns a single completion record by ID.
func (h *HistoryHandler) GetByID(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.GetByID(context.Background(), id)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	response.JSON(w, http.StatusOK, rec)
}
