package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/google/uuid"
)

type UserRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, password_hash, first_name, last_name, mobile, category, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var mobile sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&mobile, &u.Category, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Mobile = stringPtr(mobile)
	return &u, nil
}

// Create inserts u, assigning its ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	exists, err := r.EmailExists(ctx, u.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicate
	}

	u.ID = uuid.NewString()
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		nullString(u.Mobile), u.Category, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

// MobileTaken reports whether another user already uses mobile.
func (r *UserRepo) MobileTaken(ctx context.Context, mobile, exceptUserID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE mobile = ? AND id <> ?`, mobile, exceptUserID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check mobile: %w", err)
	}
	return n > 0, nil
}

// Update writes the editable profile fields of u.
func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = now()
	err := execOne(ctx, r.DB, `
		UPDATE users SET first_name = ?, last_name = ?, mobile = ?, updated_at = ?
		WHERE id = ?`,
		u.FirstName, u.LastName, nullString(u.Mobile), u.UpdatedAt, u.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	err := execOne(ctx, r.DB,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, now(), id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return err
}

// CountByCategory returns the number of users per category.
func (r *UserRepo) CountByCategory(ctx context.Context) (map[models.UserCategory]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT category, COUNT(*) FROM users GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.UserCategory]int)
	for rows.Next() {
		var cat models.UserCategory
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}
