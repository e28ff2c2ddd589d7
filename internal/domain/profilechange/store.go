package profilechange

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, req *Request) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO profile_change_requests
      (employee_id, requested_by, request_type, details, status, current_data, proposed_changes)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `, req.EmployeeID, req.RequestedBy, req.RequestType, req.Details,
		StatusPending, []byte(req.CurrentData), []byte(req.ProposedChanges)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, requestID string) (*Request, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, requested_by, request_type, details, status,
           COALESCE(admin_note, ''), current_data, proposed_changes,
           COALESCE(processed_by::text, ''), processed_at, created_at
    FROM profile_change_requests
    WHERE id = $1
  `, requestID)

	var req Request
	err := row.Scan(&req.ID, &req.EmployeeID, &req.RequestedBy, &req.RequestType,
		&req.Details, &req.Status, &req.AdminNote, &req.CurrentData,
		&req.ProposedChanges, &req.ProcessedBy, &req.ProcessedAt, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

type ListFilter struct {
	Status     string
	EmployeeID string
	Limit      int
	Offset     int
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	query := `
    SELECT id, employee_id, requested_by, request_type, details, status,
           COALESCE(admin_note, ''), COALESCE(processed_by::text, ''), processed_at, created_at
    FROM profile_change_requests
    WHERE 1=1
  `
	countQuery := "SELECT COUNT(1) FROM profile_change_requests WHERE 1=1"
	var args []any
	var countArgs []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		countArgs = append(countArgs, filter.Status)
		clause := " AND status = $" + strconv.Itoa(len(args))
		query += clause
		countQuery += " AND status = $" + strconv.Itoa(len(countArgs))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		countArgs = append(countArgs, filter.EmployeeID)
		query += " AND employee_id = $" + strconv.Itoa(len(args))
		countQuery += " AND employee_id = $" + strconv.Itoa(len(countArgs))
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		total = 0
	}

	query += " ORDER BY created_at DESC"
	args = append(args, filter.Limit)
	query += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.RequestedBy, &req.RequestType,
			&req.Details, &req.Status, &req.AdminNote, &req.ProcessedBy,
			&req.ProcessedAt, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

// MarkProcessed flips a pending request to a terminal status inside the
// caller's transaction. The status guard makes processing apply at most once:
// a second approval attempt finds zero rows and reports ErrInvalidState.
func (s *Store) MarkProcessed(ctx context.Context, tx pgx.Tx, requestID, status, adminNote, adminID string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE profile_change_requests
    SET status = $2, admin_note = $3, processed_by = $4, processed_at = now()
    WHERE id = $1 AND status = $5
  `, requestID, status, adminNote, adminID, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// MarkCancelled cancels a pending request, guarded on both status and the
// original submitter.
func (s *Store) MarkCancelled(ctx context.Context, requestID, requestedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE profile_change_requests
    SET status = $2
    WHERE id = $1 AND status = $3 AND requested_by = $4
  `, requestID, StatusCancelled, StatusPending, requestedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

func (s *Store) AdminUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM users WHERE role = $1", "admin")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PendingDocumentPaths collects the staged paths referenced by requests that
// are still pending; the retention sweep must not touch them.
func (s *Store) PendingDocumentPaths(ctx context.Context) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT COALESCE(doc->>'path', '')
    FROM profile_change_requests,
         jsonb_array_elements(COALESCE(proposed_changes->'pending_documents', '[]'::jsonb)) AS doc
    WHERE status = $1
  `, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := map[string]bool{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		if path != "" {
			paths[path] = true
		}
	}
	return paths, rows.Err()
}
