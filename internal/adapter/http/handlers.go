// Package http exposes the lifecycle hook endpoints the tracker calls
// after a mutation commits.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
)

// NotificationService is the pipeline entry point behind the hook
// endpoints.
type NotificationService interface {
	IssueCreated(ctx context.Context, issue *tracker.Issue) error
	IssueUpdated(ctx context.Context, issue *tracker.Issue, cs tracker.ChangeSet) error
	TimeEntryCreated(ctx context.Context, te *tracker.TimeEntry) error
	TimeEntryUpdated(ctx context.Context, te *tracker.TimeEntry) error
}

// Handlers holds dependencies for all hook endpoints.
type Handlers struct {
	service NotificationService
	logger  *slog.Logger
}

// NewHandlers creates the hook handler set.
func NewHandlers(service NotificationService, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

type issueCreatedRequest struct {
	Issue tracker.Issue `json:"issue"`
}

type issueUpdatedRequest struct {
	Issue   tracker.Issue     `json:"issue"`
	Journal tracker.ChangeSet `json:"journal"`
}

type timeEntryRequest struct {
	TimeEntry tracker.TimeEntry `json:"time_entry"`
}

type acceptedResponse struct {
	Status string `json:"status"`
}

// IssueCreated handles POST /api/v1/hooks/issues/created. The mutation has
// already committed on the tracker side, so the response is always 202 once
// the body parses; notification failures never reach the caller.
func (h *Handlers) IssueCreated(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[issueCreatedRequest](w, r)
	if !ok {
		return
	}
	if err := h.service.IssueCreated(r.Context(), &req.Issue); err != nil {
		h.logger.Error("issue created hook failed", "issue_id", req.Issue.ID, "error", err)
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
}

// IssueUpdated handles POST /api/v1/hooks/issues/updated.
func (h *Handlers) IssueUpdated(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[issueUpdatedRequest](w, r)
	if !ok {
		return
	}
	if err := h.service.IssueUpdated(r.Context(), &req.Issue, req.Journal); err != nil {
		h.logger.Error("issue updated hook failed",
			"issue_id", req.Issue.ID, "journal_id", req.Journal.ID, "error", err)
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
}

// TimeEntryCreated handles POST /api/v1/hooks/time-entries/created.
func (h *Handlers) TimeEntryCreated(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[timeEntryRequest](w, r)
	if !ok {
		return
	}
	if err := h.service.TimeEntryCreated(r.Context(), &req.TimeEntry); err != nil {
		h.logger.Error("time entry created hook failed", "time_entry_id", req.TimeEntry.ID, "error", err)
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
}

// TimeEntryUpdated handles POST /api/v1/hooks/time-entries/updated.
func (h *Handlers) TimeEntryUpdated(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[timeEntryRequest](w, r)
	if !ok {
		return
	}
	if err := h.service.TimeEntryUpdated(r.Context(), &req.TimeEntry); err != nil {
		h.logger.Error("time entry updated hook failed", "time_entry_id", req.TimeEntry.ID, "error", err)
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
