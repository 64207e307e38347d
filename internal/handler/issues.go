package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"its-redmine/internal/its"
	"its-redmine/internal/journal"
)

const maxBodyBytes = 1 << 20

// CommentRequest is the body of POST /issues/{id}/comments
type CommentRequest struct {
	Comment string `json:"comment"`
}

// LinkRequest is the body of POST /issues/{id}/links
type LinkRequest struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ActionRequest is the body of POST /issues/{id}/actions
type ActionRequest struct {
	Action string `json:"action"`
}

// IssueResponse acknowledges an issue operation
type IssueResponse struct {
	IssueID string `json:"issue_id"`
	Status  string `json:"status"`
	Exists  *bool  `json:"exists,omitempty"`
}

// JournalResponse carries the journaled fields of an issue
type JournalResponse struct {
	IssueID string            `json:"issue_id"`
	Journal map[string]string `json:"journal"`
}

// IssueHandler serves the facade operations. Routes are registered with method and {id}
// patterns, so handlers assume the method already matched.
type IssueHandler struct {
	facade  IssueFacade
	journal JournalReader
	writer  ResponseWriter
	logger  *slog.Logger
}

// NewIssueHandler creates a new issue handler instance. journal may be nil when journaling is disabled.
func NewIssueHandler(facade IssueFacade, journal JournalReader, writer ResponseWriter, logger *slog.Logger) *IssueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueHandler{
		facade:  facade,
		journal: journal,
		writer:  writer,
		logger:  logger.With("component", "issue_handler"),
	}
}

// HandleExists answers GET /issues/{id}
func (h *IssueHandler) HandleExists(w http.ResponseWriter, r *http.Request) {
	issueID := r.PathValue("id")

	exists, err := h.facade.Exists(r.Context(), issueID)
	if err != nil {
		h.logger.Error("Existence check failed", "issue_id", issueID, "error", err)
		writeFacadeError(h.writer, w, err)
		return
	}
	if !exists {
		_ = h.writer.WriteError(w, "issue "+issueID+" not found", http.StatusNotFound)
		return
	}

	h.writeOK(w, IssueResponse{IssueID: issueID, Status: "ok", Exists: &exists})
}

// HandleComment answers POST /issues/{id}/comments
func (h *IssueHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	issueID := r.PathValue("id")

	var req CommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.facade.AddComment(r.Context(), issueID, req.Comment); err != nil {
		h.logger.Error("Adding comment failed", "issue_id", issueID, "error", err)
		writeFacadeError(h.writer, w, err)
		return
	}

	h.writeOK(w, IssueResponse{IssueID: issueID, Status: "ok"})
}

// HandleLink answers POST /issues/{id}/links
func (h *IssueHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	issueID := r.PathValue("id")

	var req LinkRequest
	if !h.decode(w, r, &req) {
		return
	}

	relatedURL, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || relatedURL.Scheme == "" || relatedURL.Host == "" {
		_ = h.writer.WriteError(w, "url must be an absolute URL", http.StatusBadRequest)
		return
	}

	if err := h.facade.AddRelatedLink(r.Context(), issueID, relatedURL, req.Description); err != nil {
		h.logger.Error("Adding related link failed", "issue_id", issueID, "url", req.URL, "error", err)
		writeFacadeError(h.writer, w, err)
		return
	}

	h.writeOK(w, IssueResponse{IssueID: issueID, Status: "ok"})
}

// HandleAction answers POST /issues/{id}/actions
func (h *IssueHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	issueID := r.PathValue("id")

	var req ActionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		_ = h.writer.WriteError(w, "action is required", http.StatusBadRequest)
		return
	}

	if err := h.facade.PerformAction(r.Context(), issueID, req.Action); err != nil {
		h.logger.Error("Action failed", "issue_id", issueID, "action", req.Action, "error", err)
		writeFacadeError(h.writer, w, err)
		return
	}

	h.writeOK(w, IssueResponse{IssueID: issueID, Status: "ok"})
}

// HandleJournal answers GET /issues/{id}/journal
func (h *IssueHandler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	issueID := r.PathValue("id")

	if h.journal == nil {
		_ = h.writer.WriteError(w, "journal is disabled", http.StatusNotFound)
		return
	}

	data, err := h.journal.Lookup(r.Context(), issueID)
	if errors.Is(err, journal.ErrNotRecorded) {
		_ = h.writer.WriteError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		_ = h.writer.WriteError(w, "Error reading journal", http.StatusInternalServerError)
		return
	}

	h.writeOK(w, JournalResponse{IssueID: issueID, Journal: data})
}

// HandleHealthCheck answers GET /healthcheck?check=access|sysinfo
func (h *IssueHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	check, err := its.ParseCheck(r.URL.Query().Get("check"))
	if err != nil {
		_ = h.writer.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.facade.HealthCheck(r.Context(), check)
	if err != nil {
		h.logger.Error("Health check failed", "check", check.String(), "error", err)
		writeFacadeError(h.writer, w, err)
		return
	}

	h.writeOK(w, result)
}

// decode reads a JSON body into v, writing a 400 and returning false on failure
func (h *IssueHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		_ = h.writer.WriteError(w, "Error reading request body", http.StatusBadRequest)
		return false
	}
	defer func() { _ = r.Body.Close() }()

	if err := json.Unmarshal(body, v); err != nil {
		_ = h.writer.WriteError(w, "Error parsing JSON payload", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *IssueHandler) writeOK(w http.ResponseWriter, payload interface{}) {
	if err := h.writer.WriteSuccess(w, payload, nil); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}
