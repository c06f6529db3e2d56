package orders

import (
	"strconv"
	"strings"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/google/uuid"
)

// LineItem is one requested product with the price the buyer saw.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

// CreateRequest is a buyer's order as submitted.
type CreateRequest struct {
	Items           []LineItem             `json:"items"`
	DeliveryDetails models.DeliveryDetails `json:"delivery_details"`
	DeliveryMethod  models.DeliveryMethod  `json:"delivery_method"`
	PaymentMethod   models.PaymentMethod   `json:"payment_method"`
	TotalPrice      float64                `json:"total_price"`
}

// checkShape applies the rules that need no catalog data: delivery fields,
// delivery and payment method, at least one item and well-formed product
// ids. Quantities are checked by buildQuote.
func checkShape(req *CreateRequest) error {
	d := req.DeliveryDetails
	required := []struct{ name, value string }{
		{"full_name", d.FullName},
		{"phone_number", d.PhoneNumber},
		{"address", d.Address},
		{"city", d.City},
		{"state", d.State},
		{"pin_code", d.PinCode},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return invalid("delivery_details."+f.name, nil, "Missing or empty delivery field: %s", f.name)
		}
	}

	if !req.DeliveryMethod.Valid() {
		return invalid("delivery_method", nil, "Invalid delivery method: %q", req.DeliveryMethod)
	}
	if !req.PaymentMethod.Valid() {
		return invalid("payment_method", nil, "Invalid payment method: %q", req.PaymentMethod)
	}

	if len(req.Items) == 0 {
		return invalid("items", nil, "Order must contain at least one item")
	}
	for i, it := range req.Items {
		if _, err := uuid.Parse(it.ProductID); err != nil {
			return invalid(itemField(i, "product_id"), nil, "Invalid product id for item %d: %q", i, it.ProductID)
		}
	}
	return nil
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}
