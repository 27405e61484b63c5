// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Himansh-u2000/QPlan/internal/assistant"
	"github.com/Himansh-u2000/QPlan/internal/model"
	"github.com/Himansh-u2000/QPlan/internal/service"
	"github.com/Himansh-u2000/QPlan/internal/store"
)

// Handler holds all HTTP handlers for the booking API.
type Handler struct {
	catalog   *service.CatalogService
	workflow  *service.RequestWorkflow
	assistant *assistant.Assistant
	adminID   string
	log       logrus.FieldLogger
}

// New constructs a Handler. adminID is the one identity treated as
// administrator.
func New(
	catalog *service.CatalogService,
	workflow *service.RequestWorkflow,
	asst *assistant.Assistant,
	adminID string,
	log logrus.FieldLogger,
) *Handler {
	return &Handler{catalog: catalog, workflow: workflow, assistant: asst, adminID: adminID, log: log}
}

// Routes builds the router with the global middleware stack.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(h.log))
	r.Use(CORS(allowedOrigins))

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireIdentity)

		r.Get("/events", h.ListEvents)
		r.Get("/resources", h.ListResources)
		r.Post("/resources/{id}/requests", h.SubmitRequest)
		r.Get("/requests/mine", h.MyRequests)
		r.Post("/assistant", h.Ask)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(h.adminID))

			r.Post("/events", h.CreateEvent)
			r.Delete("/events/{id}", h.DeleteEvent)
			r.Post("/resources", h.CreateResource)
			r.Put("/resources/{id}/status", h.SetResourceStatus)
			r.Get("/requests", h.PendingRequests)
			r.Post("/requests/{id}/approve", h.ApproveRequest)
			r.Post("/requests/{id}/deny", h.DenyRequest)
			r.Delete("/requests/{id}", h.DeleteRequest)
		})
	})

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service and store errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "You already have a pending request for this resource.")
	case errors.Is(err, service.ErrResourceUnavailable):
		writeError(w, http.StatusConflict, "This resource is currently unavailable.")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "This request has already been decided.")
	case errors.Is(err, store.ErrStoreUnavailable):
		h.logFailure(r, err)
		writeError(w, http.StatusServiceUnavailable, "storage is temporarily unavailable, please try again")
	default:
		h.logFailure(r, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) logFailure(r *http.Request, err error) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": chimiddleware.GetReqID(r.Context()),
	}).Error("request failed")
}

// ─── Events ───────────────────────────────────────────────────────────────────

// ListEvents handles GET /api/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.catalog.ListEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /api/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.catalog.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// DeleteEvent handles DELETE /api/events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Resources ────────────────────────────────────────────────────────────────

// ListResources handles GET /api/resources
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.catalog.ListResources(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

// CreateResource handles POST /api/resources
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req model.CreateResourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.catalog.CreateResource(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// SetResourceStatus handles PUT /api/resources/{id}/status
func (h *Handler) SetResourceStatus(w http.ResponseWriter, r *http.Request) {
	var req model.SetStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.catalog.SetResourceStatus(r.Context(), id, req.Status); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

// ─── Resource requests ────────────────────────────────────────────────────────

// SubmitRequest handles POST /api/resources/{id}/requests
// Files a pending request for the calling user.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := IdentityFromContext(r.Context())

	req, err := h.workflow.Submit(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// MyRequests handles GET /api/requests/mine
func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := IdentityFromContext(r.Context())

	reqs, err := h.workflow.History(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []model.ResourceRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

// PendingRequests handles GET /api/requests
func (h *Handler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.workflow.Pending(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []model.ResourceRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

// ApproveRequest handles POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.workflow.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// DenyRequest handles POST /api/requests/{id}/deny
func (h *Handler) DenyRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.workflow.Deny(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// DeleteRequest handles DELETE /api/requests/{id}
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Assistant ────────────────────────────────────────────────────────────────

// Ask handles POST /api/assistant
// The current events and resources are loaded here and handed to the
// assistant as a snapshot. Answer failures come back as the fallback text,
// never as an HTTP error.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req model.AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	events, err := h.catalog.ListEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resources, err := h.catalog.ListResources(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	answer := h.assistant.Answer(r.Context(), req.Question, events, resources)
	writeJSON(w, http.StatusOK, model.AskResponse{Answer: answer})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
