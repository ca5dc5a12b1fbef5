package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/exam-reservation/internal/model"
	"github.com/iliyamo/exam-reservation/internal/utils"
)

// UserRepo persists rows of the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, password_hash, is_superuser, is_active, created_at, updated_at`

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func scanUser(sc rowScanner) (model.User, error) {
	var u model.User
	err := sc.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsSuperuser, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create hashes password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, email, password string, superuser bool, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, is_superuser) VALUES (?,?,?)",
		normalizeEmail(email), hash, superuser)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email. A missing user is
// sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email)))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// EnsureSuperuser creates the bootstrap superuser, or promotes an existing
// account with the same email. The password of an existing account is left
// unchanged.
func (r *UserRepo) EnsureSuperuser(ctx context.Context, email, password string, cost int) (uint64, error) {
	u, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.IsSuperuser {
			return u.ID, nil
		}
		if _, err := r.DB.ExecContext(ctx, "UPDATE users SET is_superuser=1 WHERE id=?", u.ID); err != nil {
			return 0, fmt.Errorf("promote user: %w", err)
		}
		return u.ID, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("load user: %w", err)
	}
	return r.Create(ctx, email, password, true, cost)
}
