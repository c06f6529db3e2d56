package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/google/uuid"
)

type WantedRepo struct {
	DB *sql.DB
}

func (r *WantedRepo) Create(ctx context.Context, w *models.WantedProduct) error {
	w.ID = uuid.NewString()
	w.Quantity = models.RoundQuantity(w.Quantity)
	w.CreatedAt = now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO wanted_products
		(id, user_id, name, category, quantity, unit, notes, delivery_location, required_date_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Name, w.Category, w.Quantity, w.Unit, w.Notes,
		nullString(w.DeliveryLocation), nullTime(w.RequiredDateTime), w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert wanted product: %w", err)
	}
	return nil
}

// List returns userID's requests, newest first.
func (r *WantedRepo) List(ctx context.Context, userID string) ([]models.WantedProduct, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, name, category, quantity, unit, notes, delivery_location, required_date_time, created_at
		FROM wanted_products WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wanted products: %w", err)
	}
	defer rows.Close()

	items := []models.WantedProduct{}
	for rows.Next() {
		var w models.WantedProduct
		var loc sql.NullString
		var required sql.NullTime
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Category, &w.Quantity, &w.Unit,
			&w.Notes, &loc, &required, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wanted product: %w", err)
		}
		w.DeliveryLocation = stringPtr(loc)
		w.RequiredDateTime = timePtr(required)
		items = append(items, w)
	}
	return items, rows.Err()
}

// Delete removes the request if userID owns it.
func (r *WantedRepo) Delete(ctx context.Context, id, userID string) error {
	err := execOne(ctx, r.DB, `DELETE FROM wanted_products WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete wanted product: %w", err)
	}
	return err
}
