package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/agritech-golang/internal/models"
)

type OrderRepo struct {
	DB *sql.DB
}

const orderColumns = `o.id, o.buyer_id, o.total_price, o.delivery_fee, o.delivery_method, o.payment_method,
	o.full_name, o.phone_number, o.address, o.city, o.state, o.pin_code,
	o.status, o.pickup_time, o.tracking_link, o.created_at, o.updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var pickup sql.NullTime
	var tracking sql.NullString
	d := &o.DeliveryDetails
	err := row.Scan(&o.ID, &o.BuyerID, &o.TotalPrice, &o.DeliveryFee, &o.DeliveryMethod, &o.PaymentMethod,
		&d.FullName, &d.PhoneNumber, &d.Address, &d.City, &d.State, &d.PinCode,
		&o.Status, &pickup, &tracking, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.PickupTime = timePtr(pickup)
	o.TrackingLink = stringPtr(tracking)
	o.Items = []models.OrderItem{}
	return &o, nil
}

// Insert writes the order row and its item snapshots through q.
func (r *OrderRepo) Insert(ctx context.Context, q DBTX, o *models.Order) error {
	d := o.DeliveryDetails
	_, err := q.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, total_price, delivery_fee, delivery_method, payment_method,
			full_name, phone_number, address, city, state, pin_code,
			status, pickup_time, tracking_link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.BuyerID, o.TotalPrice, o.DeliveryFee, o.DeliveryMethod, o.PaymentMethod,
		d.FullName, d.PhoneNumber, d.Address, d.City, d.State, d.PinCode,
		o.Status, nullTime(o.PickupTime), nullString(o.TrackingLink), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err := q.ExecContext(ctx, `
			INSERT INTO order_items (order_id, line_no, product_id, name, quantity, price, seller_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, i, it.ProductID, it.Name, it.Quantity, it.Price, it.SellerID)
		if err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i, err)
		}
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	return r.GetWith(ctx, r.DB, id)
}

// GetWith loads one order with all its items through q.
func (r *OrderRepo) GetWith(ctx context.Context, q DBTX, id string) (*models.Order, error) {
	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = ?`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	if err := r.attachItems(ctx, q, []*models.Order{o}, ""); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByBuyer returns the buyer's orders, newest first.
func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Order, error) {
	orders, err := r.list(ctx, `SELECT `+orderColumns+` FROM orders o
		WHERE o.buyer_id = ? ORDER BY o.created_at DESC, o.id`, buyerID)
	if err != nil {
		return nil, err
	}
	return orders, r.attachItems(ctx, r.DB, orders, "")
}

// ListBySeller returns orders containing at least one of the seller's
// products. Each order carries only that seller's items.
func (r *OrderRepo) ListBySeller(ctx context.Context, sellerID string) ([]*models.Order, error) {
	orders, err := r.list(ctx, `SELECT `+orderColumns+` FROM orders o
		WHERE o.id IN (SELECT order_id FROM order_items WHERE seller_id = ?)
		ORDER BY o.created_at DESC, o.id`, sellerID)
	if err != nil {
		return nil, err
	}
	return orders, r.attachItems(ctx, r.DB, orders, sellerID)
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// attachItems loads the items of orders in one query. A non-empty sellerID
// keeps only that seller's items.
func (r *OrderRepo) attachItems(ctx context.Context, q DBTX, orders []*models.Order, sellerID string) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*models.Order, len(orders))
	args := make([]any, 0, len(orders)+1)
	for _, o := range orders {
		byID[o.ID] = o
		args = append(args, o.ID)
	}

	query := `SELECT order_id, product_id, name, quantity, price, seller_id FROM order_items
		WHERE order_id IN (` + placeholders(len(orders)) + `)`
	if sellerID != "" {
		query += ` AND seller_id = ?`
		args = append(args, sellerID)
	}
	query += ` ORDER BY order_id, line_no`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var it models.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.SellerID); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// CompareAndSetStatus moves the order from one status to another. It reports
// false when the stored status is no longer from.
func (r *OrderRepo) CompareAndSetStatus(ctx context.Context, q DBTX, id string, from, to models.OrderStatus, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`, to, at, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *OrderRepo) SetPickupTime(ctx context.Context, id string, pickup, at time.Time) error {
	err := execOne(ctx, r.DB,
		`UPDATE orders SET pickup_time = ?, updated_at = ? WHERE id = ?`, pickup.UTC(), at, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to set pickup time: %w", err)
	}
	return err
}

func (r *OrderRepo) SetTrackingLink(ctx context.Context, id, link string, at time.Time) error {
	err := execOne(ctx, r.DB,
		`UPDATE orders SET tracking_link = ?, updated_at = ? WHERE id = ?`, link, at, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to set tracking link: %w", err)
	}
	return err
}

// SellerStats summarises a seller's order activity.
type SellerStats struct {
	TotalOrders   int     `json:"total_orders"`
	PendingOrders int     `json:"pending_orders"`
	Revenue       float64 `json:"revenue"` // delivered items only
}

func (r *OrderRepo) SellerStats(ctx context.Context, sellerID string) (SellerStats, error) {
	var s SellerStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT o.id),
			COUNT(DISTINCT CASE WHEN o.status = ? THEN o.id END),
			COALESCE(SUM(CASE WHEN o.status = ? THEN i.quantity * i.price ELSE 0 END), 0)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE i.seller_id = ?`,
		models.StatusPending, models.StatusDelivered, sellerID).
		Scan(&s.TotalOrders, &s.PendingOrders, &s.Revenue)
	if err != nil {
		return s, fmt.Errorf("failed to load seller stats: %w", err)
	}
	return s, nil
}

// MarketTotals summarises the whole marketplace.
type MarketTotals struct {
	Orders          int     `json:"orders"`
	DeliveredVolume float64 `json:"delivered_volume"`
}

func (r *OrderRepo) MarketTotals(ctx context.Context) (MarketTotals, error) {
	var t MarketTotals
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN total_price ELSE 0 END), 0)
		FROM orders`, models.StatusDelivered).Scan(&t.Orders, &t.DeliveredVolume)
	if err != nil {
		return t, fmt.Errorf("failed to load market totals: %w", err)
	}
	return t, nil
}
