package orders

import (
	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ParcelFee is charged once per parcel order.
	ParcelFee = decimal.NewFromInt(40)
	// Tolerance is the largest accepted gap between a claimed and a
	// computed amount.
	Tolerance = decimal.New(1, -2)
)

// DeliveryFee returns the fee for the delivery method.
func DeliveryFee(m models.DeliveryMethod) decimal.Decimal {
	if m == models.DeliveryParcel {
		return ParcelFee
	}
	return decimal.Zero
}

func withinTolerance(claimed, actual decimal.Decimal) bool {
	return claimed.Sub(actual).Abs().LessThanOrEqual(Tolerance)
}

// quote is a request checked against the catalog.
type quote struct {
	items    []models.OrderItem         // one snapshot per requested line
	ids      []string                   // distinct product ids in request order
	demand   map[string]decimal.Decimal // summed quantity per product
	subtotal decimal.Decimal
	fee      decimal.Decimal
	total    decimal.Decimal
}

// buildQuote checks quantities against stock, claimed prices against current
// prices and the claimed total against the computed one, in that order.
// products must hold every requested id.
func buildQuote(req *CreateRequest, products map[string]*models.Product) (*quote, error) {
	q := &quote{demand: make(map[string]decimal.Decimal)}

	// Quantities, summed per product in decimal.
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, invalid(itemField(i, "quantity"), nil,
				"Quantity for item %d must be positive", i)
		}
		qty := decimal.NewFromFloat(it.Quantity)
		if !qty.Equal(qty.Round(models.QuantityScale)) {
			return nil, invalid(itemField(i, "quantity"), nil,
				"Quantity for item %d allows at most %d decimal places", i, models.QuantityScale)
		}
		if _, seen := q.demand[it.ProductID]; !seen {
			q.ids = append(q.ids, it.ProductID)
		}
		q.demand[it.ProductID] = q.demand[it.ProductID].Add(qty)
	}
	for _, id := range q.ids {
		p := products[id]
		if q.demand[id].GreaterThan(decimal.NewFromFloat(p.Quantity)) {
			return nil, invalid("items", ErrInsufficientStock,
				"Insufficient stock for %s: requested %s, available %v", p.Name, q.demand[id], p.Quantity)
		}
	}

	// Prices.
	for i, it := range req.Items {
		p := products[it.ProductID]
		if !withinTolerance(decimal.NewFromFloat(it.Price), decimal.NewFromFloat(p.Price)) {
			return nil, invalid(itemField(i, "price"), ErrPriceMismatch,
				"Price mismatch for %s: expected %v, got %v", p.Name, p.Price, it.Price)
		}
	}

	// Total.
	q.subtotal = decimal.Zero
	for _, it := range req.Items {
		p := products[it.ProductID]
		q.subtotal = q.subtotal.Add(decimal.NewFromFloat(it.Quantity).Mul(decimal.NewFromFloat(p.Price)))
		q.items = append(q.items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			Price:     p.Price,
			SellerID:  p.SellerID,
		})
	}
	q.fee = DeliveryFee(req.DeliveryMethod)
	q.total = q.subtotal.Add(q.fee)

	if !withinTolerance(decimal.NewFromFloat(req.TotalPrice), q.total) {
		return nil, &apperr.Error{
			Kind:    apperr.KindInvalid,
			Field:   "total_price",
			Message: "Total price mismatch: expected " + q.total.StringFixed(2) + ", got " + decimal.NewFromFloat(req.TotalPrice).StringFixed(2),
			Err:     ErrTotalMismatch,
		}
	}
	return q, nil
}
