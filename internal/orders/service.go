package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/google/uuid"
)

// Notifier stores in-app notifications.
type Notifier interface {
	Add(ctx context.Context, userID, message, link string) error
}

// ProductStore is the catalog access the service needs. Stock changes run
// on the caller's transaction.
type ProductStore interface {
	GetWith(ctx context.Context, q repository.DBTX, id string) (*models.Product, error)
	DecrementStock(ctx context.Context, q repository.DBTX, id string, qty float64, at time.Time) (bool, error)
	IncrementStock(ctx context.Context, q repository.DBTX, id string, qty float64, at time.Time) (bool, error)
}

// OrderStore persists orders. *repository.OrderRepo implements it.
type OrderStore interface {
	Insert(ctx context.Context, q repository.DBTX, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	GetWith(ctx context.Context, q repository.DBTX, id string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*models.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*models.Order, error)
	CompareAndSetStatus(ctx context.Context, q repository.DBTX, id string, from, to models.OrderStatus, at time.Time) (bool, error)
	SetPickupTime(ctx context.Context, id string, pickup, at time.Time) error
	SetTrackingLink(ctx context.Context, id, link string, at time.Time) error
}

// Service is the order lifecycle manager: it places orders against live
// stock and moves them through their status path.
type Service struct {
	DB       *sql.DB
	Products ProductStore
	Orders   OrderStore
	Notifier Notifier
	Events   Publisher
	Now      func() time.Time
}

func NewService(db *sql.DB, notifier Notifier, events Publisher) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		DB:       db,
		Products: &repository.ProductRepo{DB: db},
		Orders:   &repository.OrderRepo{DB: db},
		Notifier: notifier,
		Events:   events,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates req against the current catalog and, if every rule
// passes, reserves stock and stores the order in one transaction.
func (s *Service) Create(ctx context.Context, buyerID string, req *CreateRequest) (*models.Order, error) {
	const op = "orders.Create"

	// 1. --- Validate request shape ---
	if err := checkShape(req); err != nil {
		return nil, err
	}

	// 2. --- Begin Transaction ---
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // no-op after commit

	// 3. --- Load current products ---
	products := make(map[string]*models.Product, len(req.Items))
	for _, it := range req.Items {
		if _, ok := products[it.ProductID]; ok {
			continue
		}
		p, err := s.Products.GetWith(ctx, tx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, kindErr(apperr.KindNotFound, ErrProductNotFound, "Product not found: %s", it.ProductID)
		}
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		products[it.ProductID] = p
	}

	// 4. --- Check stock, prices and total ---
	q, err := buildQuote(req, products)
	if err != nil {
		return nil, err
	}

	// 5. --- Reserve stock ---
	// The conditional decrement fails if a concurrent order took the stock
	// after it was read above.
	at := s.Now()
	for _, id := range q.ids {
		ok, err := s.Products.DecrementStock(ctx, tx, id, q.demand[id].InexactFloat64(), at)
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		if !ok {
			return nil, kindErr(apperr.KindConflict, ErrInsufficientStock,
				"Insufficient stock for %s, please review your order", products[id].Name)
		}
	}

	// 6. --- Persist order ---
	order := &models.Order{
		ID:              uuid.NewString(),
		BuyerID:         buyerID,
		Items:           q.items,
		TotalPrice:      q.total.InexactFloat64(),
		DeliveryFee:     q.fee.InexactFloat64(),
		DeliveryMethod:  req.DeliveryMethod,
		PaymentMethod:   req.PaymentMethod,
		DeliveryDetails: req.DeliveryDetails,
		Status:          models.StatusPending,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	if err := s.Orders.Insert(ctx, tx, order); err != nil {
		return nil, apperr.Internal(op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(op, fmt.Errorf("commit: %w", err))
	}

	// 7. --- Notify sellers ---
	for _, sellerID := range order.SellerIDs() {
		s.notify(ctx, sellerID, fmt.Sprintf("New order %s received", order.ID), "/seller/orders")
	}
	s.publish(ctx, newEvent(EventOrderCreated, order.ID, at, order))

	return order, nil
}

// Get returns one of the buyer's orders. Orders of other buyers are
// reported as not found.
func (s *Service) Get(ctx context.Context, buyerID, orderID string) (*models.Order, error) {
	o, err := s.load(ctx, "orders.Get", orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != buyerID {
		return nil, kindErr(apperr.KindNotFound, ErrOrderNotFound, "Order not found")
	}
	return o, nil
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID string) ([]*models.Order, error) {
	orders, err := s.Orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, apperr.Internal("orders.ListForBuyer", err)
	}
	return orders, nil
}

// ListForSeller returns orders holding the seller's products, each with only
// the seller's items.
func (s *Service) ListForSeller(ctx context.Context, sellerID string) ([]*models.Order, error) {
	orders, err := s.Orders.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, apperr.Internal("orders.ListForSeller", err)
	}
	return orders, nil
}

// UpdateStatus applies one transition for actorID. Cancelling restocks
// every item in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, actorID, orderID string, to models.OrderStatus) (*models.Order, error) {
	const op = "orders.UpdateStatus"
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, invalid("id", nil, "Invalid order id")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	// 1. --- Load order ---
	o, err := s.Orders.GetWith(ctx, tx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, kindErr(apperr.KindNotFound, ErrOrderNotFound, "Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	// 2. --- Check transition ---
	role, err := CheckTransition(o, actorID, to)
	if err != nil {
		return nil, err
	}

	// 3. --- Swap status ---
	from := o.Status
	at := s.Now()
	ok, err := s.Orders.CompareAndSetStatus(ctx, tx, o.ID, from, to, at)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if !ok {
		return nil, kindErr(apperr.KindConflict, ErrStatusChanged, "Order status was changed by someone else, please reload")
	}

	// 4. --- Restock on cancellation ---
	if to == models.StatusCancelled {
		for _, it := range o.Items {
			restocked, err := s.Products.IncrementStock(ctx, tx, it.ProductID, it.Quantity, at)
			if err != nil {
				return nil, apperr.Internal(op, err)
			}
			if !restocked {
				log.Printf("WARNING: restock skipped for order %s: product %s no longer exists", o.ID, it.ProductID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(op, fmt.Errorf("commit: %w", err))
	}
	o.Status = to
	o.UpdatedAt = at

	// 5. --- Notify the other side ---
	if role == RoleBuyer {
		for _, sellerID := range o.SellerIDs() {
			s.notify(ctx, sellerID, fmt.Sprintf("Order %s was cancelled by the buyer", o.ID), "/seller/orders")
		}
	} else {
		s.notify(ctx, o.BuyerID, fmt.Sprintf("Your order %s is now %s", o.ID, to), "/orders/"+o.ID)
	}
	s.publish(ctx, newEvent(EventOrderStatusChanged, o.ID, at, StatusChange{From: from, To: to, ActorID: actorID}))

	return o, nil
}

// UpdateDetails lets a seller on the order set the pickup time or the
// tracking link, whichever fits the delivery method.
func (s *Service) UpdateDetails(ctx context.Context, sellerID, orderID string, upd DetailsUpdate) (*models.Order, error) {
	const op = "orders.UpdateDetails"

	o, err := s.load(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	if !o.HasSeller(sellerID) {
		return nil, kindErr(apperr.KindForbidden, ErrNotParticipant, "Only sellers on this order can update its details")
	}
	if err := checkDetailsFor(o.DeliveryMethod, upd); err != nil {
		return nil, err
	}

	at := s.Now()
	if upd.PickupTime != nil {
		err = s.Orders.SetPickupTime(ctx, o.ID, *upd.PickupTime, at)
		o.PickupTime = upd.PickupTime
	} else {
		err = s.Orders.SetTrackingLink(ctx, o.ID, *upd.TrackingLink, at)
		o.TrackingLink = upd.TrackingLink
	}
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	o.UpdatedAt = at

	s.notify(ctx, o.BuyerID, fmt.Sprintf("Delivery details of order %s were updated", o.ID), "/orders/"+o.ID)
	return o, nil
}

func (s *Service) load(ctx context.Context, op, orderID string) (*models.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, invalid("id", nil, "Invalid order id")
	}
	o, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, kindErr(apperr.KindNotFound, ErrOrderNotFound, "Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	return o, nil
}

func (s *Service) notify(ctx context.Context, userID, message, link string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Add(ctx, userID, message, link); err != nil {
		log.Printf("WARNING: failed to notify user %s: %v", userID, err)
	}
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if err := s.Events.Publish(ctx, ev); err != nil {
		log.Printf("WARNING: failed to publish %s for order %s: %v", ev.Type, ev.OrderID, err)
	}
}
