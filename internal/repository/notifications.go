package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/google/uuid"
)

type NotificationRepo struct {
	DB *sql.DB
}

// Add creates an unread notification. An empty link is stored as NULL.
func (r *NotificationRepo) Add(ctx context.Context, userID, message, link string) error {
	var nullLink sql.NullString
	if link != "" {
		nullLink = sql.NullString{String: link, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, message, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, message, nullLink, false, now())
	if err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}
	return nil
}

// ListForUser returns up to 50 notifications, unread and newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, message, link, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY is_read ASC, created_at DESC
		LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Link = stringPtr(link)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flags one of userID's notifications as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	err := execOne(ctx, r.DB,
		`UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`, true, id, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return err
}
