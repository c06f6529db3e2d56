package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/agritech-golang/internal/models"
)

// ProfileRepo stores the per-category profile tables.
type ProfileRepo struct {
	DB *sql.DB
}

func (r *ProfileRepo) GetFarmerDetails(ctx context.Context, userID string) (*models.FarmerDetails, error) {
	var d models.FarmerDetails
	var photo sql.NullString
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, address, farm_size, main_crops, experience, photo_url, updated_at
		FROM farmer_details WHERE user_id = ?`, userID).
		Scan(&d.UserID, &d.Address, &d.FarmSize, &d.MainCrops, &d.Experience, &photo, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load farmer details: %w", err)
	}
	d.PhotoURL = stringPtr(photo)
	return &d, nil
}

// UpsertFarmerDetails writes every field except the photo.
func (r *ProfileRepo) UpsertFarmerDetails(ctx context.Context, d *models.FarmerDetails) error {
	d.UpdatedAt = now()
	err := execOne(ctx, r.DB, `
		UPDATE farmer_details SET address = ?, farm_size = ?, main_crops = ?, experience = ?, updated_at = ?
		WHERE user_id = ?`,
		d.Address, d.FarmSize, d.MainCrops, d.Experience, d.UpdatedAt, d.UserID)
	if errors.Is(err, ErrNotFound) {
		_, err = r.DB.ExecContext(ctx, `
			INSERT INTO farmer_details (user_id, address, farm_size, main_crops, experience, photo_url, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.UserID, d.Address, d.FarmSize, d.MainCrops, d.Experience, nullString(d.PhotoURL), d.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to save farmer details: %w", err)
	}
	return nil
}

// SetFarmerPhoto sets or clears (nil) the profile photo URL.
func (r *ProfileRepo) SetFarmerPhoto(ctx context.Context, userID string, url *string) error {
	ts := now()
	err := execOne(ctx, r.DB,
		`UPDATE farmer_details SET photo_url = ?, updated_at = ? WHERE user_id = ?`,
		nullString(url), ts, userID)
	if errors.Is(err, ErrNotFound) {
		_, err = r.DB.ExecContext(ctx, `
			INSERT INTO farmer_details (user_id, photo_url, updated_at) VALUES (?, ?, ?)`,
			userID, nullString(url), ts)
	}
	if err != nil {
		return fmt.Errorf("failed to save photo url: %w", err)
	}
	return nil
}

func (r *ProfileRepo) GetBuyerProfile(ctx context.Context, userID string) (*models.BuyerProfile, error) {
	var p models.BuyerProfile
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, full_name, phone_number, location, updated_at
		FROM buyer_profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.FullName, &p.PhoneNumber, &p.Location, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepo) UpsertBuyerProfile(ctx context.Context, p *models.BuyerProfile) error {
	p.UpdatedAt = now()
	err := execOne(ctx, r.DB, `
		UPDATE buyer_profiles SET full_name = ?, phone_number = ?, location = ?, updated_at = ?
		WHERE user_id = ?`,
		p.FullName, p.PhoneNumber, p.Location, p.UpdatedAt, p.UserID)
	if errors.Is(err, ErrNotFound) {
		_, err = r.DB.ExecContext(ctx, `
			INSERT INTO buyer_profiles (user_id, full_name, phone_number, location, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			p.UserID, p.FullName, p.PhoneNumber, p.Location, p.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to save buyer profile: %w", err)
	}
	return nil
}
