package profilechangehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"brems/internal/domain/audit"
	"brems/internal/domain/auth"
	"brems/internal/domain/employee"
	"brems/internal/domain/profilechange"
	"brems/internal/transport/http/api"
	"brems/internal/transport/http/middleware"
	"brems/internal/transport/http/shared"
)

type Handler struct {
	Service *profilechange.Service
	Audit   *audit.Service
}

func NewHandler(service *profilechange.Service, auditor *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) recordAudit(r *http.Request, actorID, action, requestID string) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), actorID, action, "profile_change_request", requestID,
		middleware.GetRequestID(r.Context()), r.RemoteAddr, nil)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", h.handleSubmit)
		r.Get("/", h.handleList)
		r.Get("/{requestID}", h.handleGet)
		r.Post("/{requestID}/cancel", h.handleCancel)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Post("/{requestID}/approve", h.handleApprove)
			r.Post("/{requestID}/reject", h.handleReject)
		})
	})
}

type submitRequest struct {
	EmployeeID string            `json:"employee_id"`
	Details    string            `json:"details"`
	Form       employee.Snapshot `json:"form"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	validator.Required("employee_id", payload.EmployeeID, "employee_id is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if !user.IsAdmin() && user.EmployeeID != payload.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "access denied", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.Submit(r.Context(), user, payload.EmployeeID, payload.Details, payload.Form)
	if err != nil {
		h.failFromError(w, r, err, "submit_failed", "failed to submit request")
		return
	}
	h.recordAudit(r, user.UserID, audit.ActionRequestSubmitted, req.ID)
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	filter := profilechange.ListFilter{
		Status:     r.URL.Query().Get("status"),
		EmployeeID: r.URL.Query().Get("employee_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}

	requests, total, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list requests", middleware.GetRequestID(r.Context()))
		return
	}
	if requests == nil {
		requests = []profilechange.Request{}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	req, sections, err := h.Service.Get(r.Context(), user, requestID)
	if err != nil {
		h.failFromError(w, r, err, "get_failed", "failed to load request")
		return
	}
	if sections == nil {
		sections = []profilechange.Section{}
	}
	api.Success(w, map[string]any{
		"request":  req,
		"sections": sections,
	}, middleware.GetRequestID(r.Context()))
}

type decisionRequest struct {
	Note string `json:"note"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload decisionRequest
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if err := h.Service.Approve(r.Context(), requestID, user.UserID, payload.Note); err != nil {
		h.failFromError(w, r, err, "approve_failed", "failed to approve request")
		return
	}
	h.recordAudit(r, user.UserID, audit.ActionRequestApproved, requestID)
	api.Success(w, map[string]string{"status": profilechange.StatusApproved}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload decisionRequest
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if err := h.Service.Reject(r.Context(), requestID, user.UserID, payload.Note); err != nil {
		h.failFromError(w, r, err, "reject_failed", "failed to reject request")
		return
	}
	h.recordAudit(r, user.UserID, audit.ActionRequestRejected, requestID)
	api.Success(w, map[string]string{"status": profilechange.StatusRejected}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	if err := h.Service.Cancel(r.Context(), user, requestID); err != nil {
		h.failFromError(w, r, err, "cancel_failed", "failed to cancel request")
		return
	}
	h.recordAudit(r, user.UserID, audit.ActionRequestCancelled, requestID)
	api.Success(w, map[string]string{"status": profilechange.StatusCancelled}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failFromError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, profilechange.ErrNothingToSubmit):
		api.Fail(w, http.StatusBadRequest, "nothing_to_submit", "no changes to submit", requestID)
	case errors.Is(err, profilechange.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", requestID)
	case errors.Is(err, profilechange.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "access denied", requestID)
	case errors.Is(err, profilechange.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "request is not pending", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
