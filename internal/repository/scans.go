package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/google/uuid"
)

// ScanRepo stores disease scans and diagnosis feedback.
type ScanRepo struct {
	DB *sql.DB
}

func (r *ScanRepo) SaveScan(ctx context.Context, userID string, results any) (*models.DiseaseScan, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scan results: %w", err)
	}
	scan := &models.DiseaseScan{
		ID:        uuid.NewString(),
		UserID:    userID,
		Results:   payload,
		CreatedAt: now(),
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO disease_scans (id, user_id, results, created_at) VALUES (?, ?, ?, ?)`,
		scan.ID, scan.UserID, string(scan.Results), scan.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert disease scan: %w", err)
	}
	return scan, nil
}

// ListScans returns the user's scans, newest first.
func (r *ScanRepo) ListScans(ctx context.Context, userID string) ([]models.DiseaseScan, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, results, created_at FROM disease_scans
		WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query disease scans: %w", err)
	}
	defer rows.Close()

	scans := []models.DiseaseScan{}
	for rows.Next() {
		var s models.DiseaseScan
		var results string
		if err := rows.Scan(&s.ID, &s.UserID, &results, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan disease scan: %w", err)
		}
		s.Results = json.RawMessage(results)
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

func (r *ScanRepo) SaveFeedback(ctx context.Context, f *models.Feedback) error {
	f.ID = uuid.NewString()
	f.CreatedAt = now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO feedback (id, user_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Rating, f.Comment, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}
