package employeehandler

import (
	"errors"
	"io"
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
	Employees        *employee.Store
	Changes          *profilechange.Service
	Audit            *audit.Service
	MaxDocumentBytes int64
}

func NewHandler(employees *employee.Store, changes *profilechange.Service, auditor *audit.Service, maxDocumentBytes int64) *Handler {
	return &Handler{Employees: employees, Changes: changes, Audit: auditor, MaxDocumentBytes: maxDocumentBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{employeeID}", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleGet)
		r.Post("/documents", h.handleUploadDocument)
		r.Delete("/documents", h.handleDeleteDocument)
		r.Get("/documents/pending", h.handleListPending)
	})
}

// canAccess restricts non-admins to their own record.
func canAccess(user auth.UserContext, employeeID string) bool {
	return user.IsAdmin() || user.EmployeeID == employeeID
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !canAccess(user, employeeID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "access denied", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Employees.GetEmployee(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employee.CurrentData(emp), middleware.GetRequestID(r.Context()))
}

// handleUploadDocument accepts a multipart upload addressed to one logical
// target. Admin uploads apply to the permanent record immediately; everyone
// else gets the file staged into the pending area for the next request.
func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !canAccess(user, employeeID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "access denied", middleware.GetRequestID(r.Context()))
		return
	}

	if err := r.ParseMultipartForm(h.MaxDocumentBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", middleware.GetRequestID(r.Context()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "file is required", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	target := profilechange.Target{
		Field:          r.FormValue("field"),
		AcademicID:     r.FormValue("academic_id"),
		FamilyMemberID: r.FormValue("family_member_id"),
	}
	if raw := r.FormValue("academic_index"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "academic_index must be a non-negative integer", middleware.GetRequestID(r.Context()))
			return
		}
		target.AcademicIndex = &index
	}
	if target.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "a document target is required", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	validator.FileUpload("file", header.Filename, header.Size, h.MaxDocumentBytes)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to read upload", middleware.GetRequestID(r.Context()))
		return
	}

	if user.IsAdmin() {
		path, err := h.Changes.ApplyDocumentDirect(r.Context(), employeeID, target, header.Filename, data)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to apply document", middleware.GetRequestID(r.Context()))
			return
		}
		if h.Audit != nil {
			if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionDocumentApplied, "employee", employeeID,
				middleware.GetRequestID(r.Context()), r.RemoteAddr, map[string]string{"path": path}); err != nil {
				slog.Warn("audit record failed", "action", audit.ActionDocumentApplied, "err", err)
			}
		}
		api.Success(w, map[string]any{"applied": true, "path": path}, middleware.GetRequestID(r.Context()))
		return
	}

	doc, err := h.Changes.StageDocument(r.Context(), employeeID, target,
		r.FormValue("document_type"), header.Filename, data)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to stage document", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"pending": true,
		"path":    doc.Path,
		"url":     doc.URL,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !canAccess(user, employeeID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "access denied", middleware.GetRequestID(r.Context()))
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "path is required", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Changes.Drafts.For(employeeID).RemoveByPath(r.Context(), path)
	switch {
	case errors.Is(err, profilechange.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "no staged document at that path", middleware.GetRequestID(r.Context()))
	case errors.Is(err, profilechange.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "access denied", middleware.GetRequestID(r.Context()))
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete staged document", middleware.GetRequestID(r.Context()))
	default:
		api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !canAccess(user, employeeID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "access denied", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Changes.Drafts.For(employeeID).List(), middleware.GetRequestID(r.Context()))
}
