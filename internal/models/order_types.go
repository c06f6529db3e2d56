package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "Pending"
	StatusReadyForPickup OrderStatus = "Ready for Pickup"
	StatusPacked         OrderStatus = "Packed"
	StatusShipped        OrderStatus = "Shipped"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DeliveryMethod decides the status path of an order.
type DeliveryMethod string

const (
	DeliverySelfPickup DeliveryMethod = "self_pickup"
	DeliveryParcel     DeliveryMethod = "parcel"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliverySelfPickup || m == DeliveryParcel
}

type PaymentMethod string

const (
	PaymentOnDelivery PaymentMethod = "pay_on_delivery"
	PaymentUPI        PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentOnDelivery || m == PaymentUPI
}

// DeliveryDetails is where and to whom an order is delivered.
type DeliveryDetails struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	PinCode     string `json:"pin_code"`
}

// OrderItem is a snapshot of a product taken when the order was placed.
// Later edits to the product never change it.
type OrderItem struct {
	ProductID string  `json:"product_id" db:"product_id"`
	Name      string  `json:"name" db:"name"`
	Quantity  float64 `json:"quantity" db:"quantity"`
	Price     float64 `json:"price" db:"price"`
	SellerID  string  `json:"seller_id" db:"seller_id"`
}

// Order is the model for the 'orders' table plus its 'order_items' rows.
type Order struct {
	ID              string          `json:"id" db:"id"`
	BuyerID         string          `json:"buyer_id" db:"buyer_id"`
	Items           []OrderItem     `json:"items"`
	TotalPrice      float64         `json:"total_price" db:"total_price"`
	DeliveryFee     float64         `json:"delivery_fee" db:"delivery_fee"`
	DeliveryMethod  DeliveryMethod  `json:"delivery_method" db:"delivery_method"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	DeliveryDetails DeliveryDetails `json:"delivery_details"`
	Status          OrderStatus     `json:"status" db:"status"`
	PickupTime      *time.Time      `json:"pickup_time,omitempty" db:"pickup_time"`
	TrackingLink    *string         `json:"tracking_link,omitempty" db:"tracking_link"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// SellerIDs returns the distinct sellers of the order's items, in item order.
func (o *Order) SellerIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, it := range o.Items {
		if !seen[it.SellerID] {
			seen[it.SellerID] = true
			ids = append(ids, it.SellerID)
		}
	}
	return ids
}

// HasSeller reports whether sellerID owns at least one line item.
func (o *Order) HasSeller(sellerID string) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}
