// internal/api/handler/api/completions.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/relay/internal/api/job"
	"github.com/newthinker/relay/internal/api/response"
	"github.com/newthinker/relay/internal/app"
	"github.com/newthinker/relay/internal/core"
	"github.com/newthinker/relay/internal/llm"
)

const completionTimeout = 5 * time.Minute

// CompletionApp defines the interface needed from app.App.
type CompletionApp interface {
	Vendor() core.Vendor
	Complete(ctx context.Context, req llm.CompletionRequest) (*core.Record, error)
	CompleteAsync(ctx context.Context, req llm.CompletionRequest) <-chan app.Outcome
}

// CompletionRequest is the request body for a completion.
type CompletionRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// CompletionsHandler handles completion API requests.
type CompletionsHandler struct {
	app      CompletionApp
	jobStore *job.Store
}

// NewCompletionsHandler creates a new completions handler.
func NewCompletionsHandler(a CompletionApp, jobStore *job.Store) *CompletionsHandler {
	return &CompletionsHandler{app: a, jobStore: jobStore}
}

func decodeRequest(r *http.Request) (llm.CompletionRequest, error) {
	var req CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return llm.CompletionRequest{}, core.WrapError(core.ErrBadRequest, err)
	}
	if req.Prompt == "" {
		return llm.CompletionRequest{}, core.WrapError(core.ErrBadRequest,
			errors.New("prompt is required"))
	}
	return llm.CompletionRequest{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
	}, nil
}

// Create serves a completion synchronously.
func (h *CompletionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), completionTimeout)
	defer cancel()

	rec, err := h.app.Complete(ctx, req)
	if err != nil {
		response.Error(w, http.StatusBadGateway,
			core.WrapError(core.ErrProviderFailed, err))
		return
	}

	response.JSON(w, http.StatusOK, rec)
}

// CreateAsync starts a completion job and returns immediately.
func (h *CompletionsHandler) CreateAsync(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	j := h.jobStore.Create("completion")

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.runCompletion(jobID, req)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

// runCompletion waits for the async outcome and updates job status.
func (h *CompletionsHandler) runCompletion(jobID string, req llm.CompletionRequest) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	res := <-h.app.CompleteAsync(ctx, req)
	if res.Err != nil {
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrProviderFailed, res.Err)
		})
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = res.Record
	})
}

// GetJob returns the status of a completion job.
func (h *CompletionsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}
