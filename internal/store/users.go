package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
)

const userColumns = `id, name, email, password_hash, role, created_at`

// CreateUser creates a new user. Emails are expected to be normalized by the caller.
func CreateUser(ctx context.Context, q db.Querier, name, email, passwordHash, role string) (*model.User, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?) RETURNING id`,
		name, email, passwordHash, role,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("creating user %s: %w", email, ErrConflict)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, q db.Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email, or nil if it does not exist.
func GetUserByEmail(ctx context.Context, q db.Querier, email string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all users, newest first.
func ListUsers(ctx context.Context, q db.Querier) ([]model.User, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountUsersByRole returns how many users have the given role.
func CountUsersByRole(ctx context.Context, q db.Querier, role string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUserRole changes a user's role and returns the updated user.
func UpdateUserRole(ctx context.Context, q db.Querier, id int64, role string) (*model.User, error) {
	result, err := q.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return nil, fmt.Errorf("updating user role: %w", err)
	}
	if err := expectAffected(result, "user", id); err != nil {
		return nil, err
	}
	return GetUser(ctx, q, id)
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q db.Querier, id int64, passwordHash string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return expectAffected(result, "user", id)
}

// UpdateUserProfile changes a user's display name and email.
func UpdateUserProfile(ctx context.Context, q db.Querier, id int64, name, email string) (*model.User, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ? WHERE id = ?`,
		name, email, id,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("updating profile %s: %w", email, ErrConflict)
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if err := expectAffected(result, "user", id); err != nil {
		return nil, err
	}
	return GetUser(ctx, q, id)
}

// DeleteUser removes a user. Items, movements and activity entries that
// reference the user keep their rows with the reference set to NULL.
func DeleteUser(ctx context.Context, q db.Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return expectAffected(result, "user", id)
}

func scanUser(s scanner) (*model.User, error) {
	u := &model.User{}
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// expectAffected turns a zero-row UPDATE/DELETE into ErrNotFound.
func expectAffected(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
