package profilechange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"brems/internal/domain/auth"
	"brems/internal/domain/employee"
	"brems/internal/domain/notifications"
	"brems/internal/platform/metrics"
	"brems/internal/platform/storage"
)

type Service struct {
	Employees *employee.Store
	Requests  *Store
	Storage   *storage.Store
	Drafts    *Drafts
	Notify    *notifications.Service
	Metrics   *metrics.Collector
}

func NewService(employees *employee.Store, requests *Store, files *storage.Store,
	notify *notifications.Service, collector *metrics.Collector) *Service {
	s := &Service{
		Employees: employees,
		Requests:  requests,
		Storage:   files,
		Notify:    notify,
		Metrics:   collector,
	}
	s.Drafts = NewDrafts(s)
	return s
}

// DeletePending removes a staged file, refusing anything outside the
// employee's own pending area.
func (s *Service) DeletePending(ctx context.Context, employeeID, path string) error {
	if !storage.IsPendingPath(path) || !strings.HasPrefix(path, "pending/"+employeeID+"/") {
		return ErrForbidden
	}
	return s.Storage.Delete(path)
}

// StageDocument saves an upload into the pending area and registers it with
// the employee's draft tracker. A prior staged file for the same logical
// target is superseded and its temp file removed.
func (s *Service) StageDocument(ctx context.Context, employeeID string, target Target,
	documentType, fileName string, data []byte) (PendingDocument, error) {
	if target.IsZero() {
		return PendingDocument{}, fmt.Errorf("document target is required")
	}

	saved, err := s.Storage.SavePending(employeeID, fileName, data)
	if err != nil {
		return PendingDocument{}, err
	}

	doc := PendingDocument{
		Path:           saved.Path,
		URL:            storage.URL(saved.Path),
		Field:          target.Field,
		AcademicID:     target.AcademicID,
		AcademicIndex:  target.AcademicIndex,
		FamilyMemberID: target.FamilyMemberID,
		DocumentType:   documentType,
		UploadedAt:     time.Now().UTC(),
	}

	evicted, replaced := s.Drafts.For(employeeID).Upload(doc)
	if replaced {
		if err := s.Storage.Delete(evicted.Path); err != nil {
			slog.Warn("superseded pending file cleanup failed", "path", evicted.Path, "err", err)
		}
	}
	if s.Metrics != nil {
		s.Metrics.DocumentStaged()
	}
	return doc, nil
}

// ApplyDocumentDirect writes an upload straight to the permanent record,
// bypassing the review queue. Admin-only path.
func (s *Service) ApplyDocumentDirect(ctx context.Context, employeeID string, target Target,
	fileName string, data []byte) (string, error) {
	if target.IsZero() {
		return "", fmt.Errorf("document target is required")
	}

	saved, err := s.Storage.SavePermanent(employeeID, fileName, data)
	if err != nil {
		return "", err
	}

	tx, err := s.Requests.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if err := s.applyFileTarget(ctx, tx, employeeID, target, saved.Path); err != nil {
		if delErr := s.Storage.Delete(saved.Path); delErr != nil {
			slog.Warn("orphaned document cleanup failed", "path", saved.Path, "err", delErr)
		}
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return saved.Path, nil
}

// Submit diffs the edit form against the stored record, merges staged
// uploads, and creates a pending request. The draft tracker is detached only
// after the request row exists, so a failed submit keeps the staged files.
func (s *Service) Submit(ctx context.Context, user auth.UserContext, employeeID, details string,
	form employee.Snapshot) (*Request, error) {
	emp, err := s.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	changes := BuildChanges(employee.Normalize(emp), form)
	staged := s.Drafts.For(employeeID).List()

	requestType, merged, err := BuildSubmission(changes, staged)
	if err != nil {
		return nil, err
	}

	currentData, err := json.Marshal(employee.CurrentData(emp))
	if err != nil {
		return nil, err
	}
	proposedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}

	req := &Request{
		EmployeeID:      employeeID,
		RequestedBy:     user.UserID,
		RequestType:     requestType,
		Details:         details,
		Status:          StatusPending,
		CurrentData:     currentData,
		ProposedChanges: proposedJSON,
	}
	id, err := s.Requests.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	req.ID = id
	req.CreatedAt = time.Now().UTC()

	s.Drafts.Detach(employeeID)
	if s.Metrics != nil {
		s.Metrics.RequestSubmitted()
	}
	s.notifyAdmins(ctx, notifications.TypeRequestSubmitted,
		"New profile change request",
		fmt.Sprintf("A %s request was submitted for employee %s.", strings.ToLower(requestType), employeeID))
	return req, nil
}

// Get returns a request with its review sections. Non-admins only see
// requests for their own record.
func (s *Service) Get(ctx context.Context, user auth.UserContext, requestID string) (*Request, []Section, error) {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsAdmin() && req.RequestedBy != user.UserID && req.EmployeeID != user.EmployeeID {
		return nil, nil, ErrForbidden
	}
	return req, BuildSections(req.CurrentData, req.ProposedChanges), nil
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter ListFilter) ([]Request, int, error) {
	if !user.IsAdmin() {
		filter.EmployeeID = user.EmployeeID
	}
	return s.Requests.List(ctx, filter)
}

// Approve applies every proposed change and the staged documents inside one
// transaction, then flips the request to approved. Temp pending files are
// deleted only after commit, so a failed approval can be retried; permanent
// copies written before a failure are removed on rollback.
func (s *Service) Approve(ctx context.Context, requestID, adminID, note string) error {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return ErrInvalidState
	}

	changes, err := decodeProposed(req.ProposedChanges)
	if err != nil {
		return err
	}

	tx, err := s.Requests.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var promoted []string
	cleanup := func() {
		for _, path := range promoted {
			if err := s.Storage.Delete(path); err != nil {
				slog.Warn("promoted file cleanup failed", "path", path, "err", err)
			}
		}
	}

	if len(changes.PersonalInfo) > 0 {
		if err := s.Employees.UpdatePersonalInfo(ctx, tx, req.EmployeeID, changes.PersonalInfo); err != nil {
			return err
		}
	}
	if changes.Family != nil {
		if err := s.applyFamily(ctx, tx, req.EmployeeID, changes.Family); err != nil {
			return err
		}
	}
	for addrType, fields := range changes.Addresses {
		if err := s.Employees.UpdateAddress(ctx, tx, req.EmployeeID, addrType, fields); err != nil {
			return err
		}
	}
	if changes.Academics != nil {
		if err := s.Employees.ReplaceAcademics(ctx, tx, req.EmployeeID, changes.Academics); err != nil {
			return err
		}
	}

	for _, doc := range changes.PendingDocuments {
		permanent, err := s.Storage.Promote(doc.Path, req.EmployeeID)
		if err != nil {
			cleanup()
			return err
		}
		promoted = append(promoted, permanent)
		if err := s.applyFileTarget(ctx, tx, req.EmployeeID, doc.Target(), permanent); err != nil {
			cleanup()
			return err
		}
	}

	if legacy := changes.DocumentUpdate; legacy != nil && legacy.Field != "" && legacy.Path != "" {
		path := legacy.Path
		if storage.IsPendingPath(path) {
			permanent, err := s.Storage.Promote(path, req.EmployeeID)
			if err != nil {
				cleanup()
				return err
			}
			promoted = append(promoted, permanent)
			path = permanent
		}
		if err := s.Employees.SetEmployeeFile(ctx, tx, req.EmployeeID, legacy.Field, path); err != nil {
			cleanup()
			return err
		}
	}

	if err := s.Requests.MarkProcessed(ctx, tx, requestID, StatusApproved, note, adminID); err != nil {
		cleanup()
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		cleanup()
		return err
	}

	s.purgePendingFiles(changes)
	if s.Metrics != nil {
		s.Metrics.RequestApproved()
	}
	if s.Notify != nil {
		if err := s.Notify.Create(ctx, req.RequestedBy, notifications.TypeRequestApproved,
			"Profile change approved", approvalBody(req, note)); err != nil {
			slog.Warn("approval notification failed", "requestId", requestID, "err", err)
		}
	}
	return nil
}

// Reject marks the request rejected and discards its staged files.
func (s *Service) Reject(ctx context.Context, requestID, adminID, note string) error {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return ErrInvalidState
	}

	tx, err := s.Requests.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.Requests.MarkProcessed(ctx, tx, requestID, StatusRejected, note, adminID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if changes, err := decodeProposed(req.ProposedChanges); err == nil {
		s.purgePendingFiles(changes)
	}
	if s.Metrics != nil {
		s.Metrics.RequestRejected()
	}
	if s.Notify != nil {
		if err := s.Notify.Create(ctx, req.RequestedBy, notifications.TypeRequestRejected,
			"Profile change rejected", approvalBody(req, note)); err != nil {
			slog.Warn("rejection notification failed", "requestId", requestID, "err", err)
		}
	}
	return nil
}

// Cancel lets the original submitter withdraw a still-pending request.
func (s *Service) Cancel(ctx context.Context, user auth.UserContext, requestID string) error {
	req, err := s.Requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequestedBy != user.UserID {
		return ErrForbidden
	}
	if err := s.Requests.MarkCancelled(ctx, requestID, user.UserID); err != nil {
		return err
	}

	if changes, err := decodeProposed(req.ProposedChanges); err == nil {
		s.purgePendingFiles(changes)
	}
	if s.Metrics != nil {
		s.Metrics.RequestCancelled()
	}
	return nil
}

func (s *Service) applyFamily(ctx context.Context, tx pgx.Tx, employeeID string, family *FamilyChanges) error {
	if len(family.Father) > 0 {
		if err := s.Employees.UpsertParent(ctx, tx, employeeID, employee.RelationFather, family.Father); err != nil {
			return err
		}
	}
	if len(family.Mother) > 0 {
		if err := s.Employees.UpsertParent(ctx, tx, employeeID, employee.RelationMother, family.Mother); err != nil {
			return err
		}
	}
	if family.Spouses != nil {
		if err := s.Employees.ReplaceRelationSet(ctx, tx, employeeID, employee.RelationSpouse, family.Spouses); err != nil {
			return err
		}
	}
	if family.Children != nil {
		if err := s.Employees.ReplaceRelationSet(ctx, tx, employeeID, employee.RelationChild, family.Children); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) applyFileTarget(ctx context.Context, tx pgx.Tx, employeeID string, target Target, path string) error {
	switch {
	case target.Field != "":
		return s.Employees.SetEmployeeFile(ctx, tx, employeeID, target.Field, path)
	case target.AcademicID != "":
		return s.Employees.SetAcademicCertificate(ctx, tx, employeeID, target.AcademicID, path)
	case target.AcademicIndex != nil:
		return s.Employees.SetAcademicCertificateByIndex(ctx, tx, employeeID, *target.AcademicIndex, path)
	case target.FamilyMemberID != "":
		return s.Employees.SetRelationCertificate(ctx, tx, employeeID, target.FamilyMemberID, path)
	default:
		return fmt.Errorf("document target is required")
	}
}

// purgePendingFiles removes a processed request's temp files. Best effort:
// the retention sweep catches anything missed here.
func (s *Service) purgePendingFiles(changes ProposedChanges) {
	for _, doc := range changes.PendingDocuments {
		if !storage.IsPendingPath(doc.Path) {
			continue
		}
		if err := s.Storage.Delete(doc.Path); err != nil {
			slog.Warn("pending file cleanup failed", "path", doc.Path, "err", err)
		}
	}
	if legacy := changes.DocumentUpdate; legacy != nil && storage.IsPendingPath(legacy.Path) {
		if err := s.Storage.Delete(legacy.Path); err != nil {
			slog.Warn("pending file cleanup failed", "path", legacy.Path, "err", err)
		}
	}
}

func (s *Service) notifyAdmins(ctx context.Context, ntype, title, body string) {
	if s.Notify == nil {
		return
	}
	adminIDs, err := s.Requests.AdminUserIDs(ctx)
	if err != nil {
		slog.Warn("admin lookup for notification failed", "err", err)
		return
	}
	for _, adminID := range adminIDs {
		if err := s.Notify.Create(ctx, adminID, ntype, title, body); err != nil {
			slog.Warn("admin notification failed", "userId", adminID, "err", err)
		}
	}
}

// decodeProposed tolerates the historical double-encoding of the stored
// column before mapping it onto the typed change-set.
func decodeProposed(raw json.RawMessage) (ProposedChanges, error) {
	obj := ParseProposed(raw)
	normalized, err := json.Marshal(obj)
	if err != nil {
		return ProposedChanges{}, err
	}
	var changes ProposedChanges
	if err := json.Unmarshal(normalized, &changes); err != nil {
		return ProposedChanges{}, err
	}
	return changes, nil
}

func approvalBody(req *Request, note string) string {
	body := fmt.Sprintf("Your %s request has been processed.", strings.ToLower(req.RequestType))
	if note != "" {
		body += " Note: " + note
	}
	return body
}
