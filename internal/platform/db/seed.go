package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"brems/internal/domain/auth"
	"brems/internal/platform/config"
)

// Seed creates the bootstrap accounts: one admin and, when configured, one
// verified employee with a starter record. Safe to run repeatedly.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := ensureUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword, auth.RoleAdmin, ""); err != nil {
			return err
		}
	}

	if cfg.SeedEmployeeEmail != "" && cfg.SeedEmployeePassword != "" {
		employeeID, err := ensureEmployee(ctx, pool, cfg.SeedEmployeeEmail)
		if err != nil {
			return err
		}
		if err := ensureUser(ctx, pool, cfg.SeedEmployeeEmail, cfg.SeedEmployeePassword, auth.RoleVerified, employeeID); err != nil {
			return err
		}
	}
	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, password, role, employeeID string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role, employee_id)
    VALUES ($1, $2, $3, NULLIF($4, '')::uuid)
  `, email, hash, role, employeeID)
	return err
}

func ensureEmployee(ctx context.Context, pool *pgxpool.Pool, email string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, `
    SELECT e.id
    FROM employees e
    JOIN users u ON u.employee_id = e.id
    WHERE u.email = $1
  `, strings.ToLower(strings.TrimSpace(email))).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name)
    VALUES ('', '')
    RETURNING id
  `).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
