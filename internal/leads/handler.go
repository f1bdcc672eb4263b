package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wmcproducts/partner-site/pkg/logging"
)

const maxSubmissionBytes = 64 << 10

var validate = validator.New()

// Handler handles HTTP requests for leads
type Handler struct {
	gateway Submitter
	repo    Repository
	logger  *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(gateway Submitter, repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		gateway: gateway,
		repo:    repo,
		logger:  logger,
	}
}

// SubmitRequest is the partner form body.
type SubmitRequest struct {
	Draft
	TermsAccepted bool `json:"terms_accepted"`
}

// SubmitResponse is returned for every submission attempt.
type SubmitResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// SubmitPartnerForm handles POST /api/partner requests
func (h *Handler) SubmitPartnerForm(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode partner form", "error", err)
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Status: "error", Message: "Invalid request body"})
		return
	}

	// Each request gets its own form, so the in-flight guard only matters to
	// callers that reuse one; double submits from a browser are its concern.
	form := NewForm()
	form.Draft = req.Draft
	form.TermsAccepted = req.TermsAccepted
	out, _ := form.Submit(r.Context(), h.gateway)

	switch out.Kind {
	case Submitted:
		writeJSON(w, http.StatusOK, SubmitResponse{Status: "submitted", Message: form.Result.Message})
	case ValidationFailed, TermsRejected:
		writeJSON(w, http.StatusUnprocessableEntity, SubmitResponse{Status: "invalid", Errors: form.Errors})
	default:
		// spam and delivery failures must be indistinguishable to the client
		writeJSON(w, http.StatusBadGateway, SubmitResponse{Status: "error", Message: form.Result.Message})
	}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// ListLeads handles GET /admin/api/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: DefaultPageSize}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= maxPageSize {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Status = &status
	}
	filter = filter.Normalize()

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  result.Items,
		Total:  result.Total,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

// GetLead handles GET /admin/api/leads/{id}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// UpdateStatusRequest is the PATCH body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new reviewed contacted archived"`
}

// UpdateLeadStatus handles PATCH /admin/api/leads/{id}
func (h *Handler) UpdateLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "status must be one of new, reviewed, contacted, archived", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	lead, err := h.repo.UpdateStatus(r.Context(), id, Status(req.Status))
	if err != nil {
		h.logger.Error("failed to update lead status", "error", err, "id", id)
		h.writeStoreError(w, err)
		return
	}
	h.logger.Info("lead status updated", "id", id, "status", lead.Status)
	writeJSON(w, http.StatusOK, lead)
}

// DeleteLead handles DELETE /admin/api/leads/{id}
func (h *Handler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete lead", "error", err, "id", id)
		h.writeStoreError(w, err)
		return
	}
	h.logger.Info("lead deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "lead not found", http.StatusNotFound)
	case errors.Is(err, ErrStoreRejected):
		http.Error(w, "request rejected by store", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "lead store unavailable", http.StatusServiceUnavailable)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
