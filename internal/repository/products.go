package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/google/uuid"
)

const (
	DefaultProductLimit = 10
	MaxProductLimit     = 100
)

type ProductRepo struct {
	DB *sql.DB
}

const productColumns = `id, seller_id, name, description, category, quantity, unit, price, image_url, created_at, updated_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var image sql.NullString
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Category,
		&p.Quantity, &p.Unit, &p.Price, &image, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.ImageURL = stringPtr(image)
	return &p, nil
}

// Create inserts p, assigning its ID and timestamps.
func (r *ProductRepo) Create(ctx context.Context, p *models.Product) error {
	p.ID = uuid.NewString()
	p.Quantity = models.RoundQuantity(p.Quantity)
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SellerID, p.Name, p.Description, p.Category, p.Quantity,
		p.Unit, p.Price, nullString(p.ImageURL), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*models.Product, error) {
	return r.GetWith(ctx, r.DB, id)
}

// GetWith reads a product through q, which may be a transaction.
func (r *ProductRepo) GetWith(ctx context.Context, q DBTX, id string) (*models.Product, error) {
	row := q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	return p, err
}

// List returns products matching f, newest first.
func (r *ProductRepo) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	var where []string
	var args []any
	if f.SellerID != "" {
		where = append(where, "seller_id = ?")
		args = append(args, f.SellerID)
	}
	if f.Query != "" {
		where = append(where, "LOWER(name) LIKE ? ESCAPE '!'")
		args = append(args, likePattern(f.Query))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultProductLimit
	}
	if limit > MaxProductLimit {
		limit = MaxProductLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Update writes the editable fields of p. Only the owning seller may update.
func (r *ProductRepo) Update(ctx context.Context, p *models.Product) error {
	p.Quantity = models.RoundQuantity(p.Quantity)
	p.UpdatedAt = now()
	err := execOne(ctx, r.DB, `
		UPDATE products
		SET name = ?, description = ?, category = ?, quantity = ?, unit = ?, price = ?, image_url = ?, updated_at = ?
		WHERE id = ? AND seller_id = ?`,
		p.Name, p.Description, p.Category, p.Quantity, p.Unit, p.Price,
		nullString(p.ImageURL), p.UpdatedAt, p.ID, p.SellerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return err
}

func (r *ProductRepo) Delete(ctx context.Context, id, sellerID string) error {
	err := execOne(ctx, r.DB, `DELETE FROM products WHERE id = ? AND seller_id = ?`, id, sellerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return err
}

// DecrementStock removes qty from the product only if that much is in stock.
// It reports false when the product is missing or short. Results are rounded
// to models.QuantityScale so fractional stock can be sold down to zero.
func (r *ProductRepo) DecrementStock(ctx context.Context, q DBTX, id string, qty float64, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE products SET quantity = ROUND(quantity - ?, 3), updated_at = ?
		WHERE id = ? AND ROUND(quantity - ?, 3) >= 0`, qty, at, id, qty)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrementStock adds qty back. It reports false when the product is gone.
func (r *ProductRepo) IncrementStock(ctx context.Context, q DBTX, id string, qty float64, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE products SET quantity = ROUND(quantity + ?, 3), updated_at = ? WHERE id = ?`, qty, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to restock %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountBySeller returns how many listings sellerID has. An empty sellerID
// counts every listing.
func (r *ProductRepo) CountBySeller(ctx context.Context, sellerID string) (int, error) {
	query := `SELECT COUNT(*) FROM products`
	var args []any
	if sellerID != "" {
		query += ` WHERE seller_id = ?`
		args = append(args, sellerID)
	}
	var n int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
