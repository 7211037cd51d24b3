// internal/storage/user_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/buildloom/loom-backend/internal/domain"
)

// Specific errors for user operations
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// CreateUser inserts a new user into the control-plane database.
func CreateUser(ctx context.Context, db *sql.DB, userID, email, passwordHash string) (string, error) {
	sqlStatement := `INSERT INTO control_plane.users (id, email, password_hash) VALUES ($1, $2, $3)`
	_, err := db.ExecContext(ctx, sqlStatement, userID, email, passwordHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return "", ErrEmailExists
		}
		customLog.Warnf("Storage: Failed to insert user %s: %v", email, err)
		return "", fmt.Errorf("database error during user creation: %w", err)
	}
	return userID, nil
}

// FindUserByEmail retrieves a user by their email address.
func FindUserByEmail(ctx context.Context, db *sql.DB, email string) (*domain.User, error) {
	sqlStatement := `SELECT id, email, password_hash, created_at FROM control_plane.users WHERE email = $1 LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, email)

	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user by email %s: %v", email, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return &user, nil
}

// FindUserByID retrieves a user by id.
func FindUserByID(ctx context.Context, db *sql.DB, userID string) (*domain.User, error) {
	sqlStatement := `SELECT id, email, password_hash, created_at FROM control_plane.users WHERE id = $1 LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, userID)

	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user %s: %v", userID, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return &user, nil
}
