package orders

import (
	"slices"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/01moynul/agritech-golang/internal/models"
)

// Role is the capacity in which an actor changes an order.
type Role int

const (
	RoleBuyer Role = iota + 1
	RoleSeller
)

// forward paths per delivery method; Cancelled is reachable only from Pending.
var paths = map[models.DeliveryMethod][]models.OrderStatus{
	models.DeliverySelfPickup: {models.StatusPending, models.StatusReadyForPickup, models.StatusDelivered},
	models.DeliveryParcel:     {models.StatusPending, models.StatusPacked, models.StatusShipped, models.StatusDelivered},
}

// StatusesFor lists every status an order with method m can hold.
func StatusesFor(m models.DeliveryMethod) []models.OrderStatus {
	path, ok := paths[m]
	if !ok {
		return nil
	}
	return append(slices.Clone(path), models.StatusCancelled)
}

// NextStatus returns the single forward step from current.
func NextStatus(m models.DeliveryMethod, current models.OrderStatus) (models.OrderStatus, bool) {
	path := paths[m]
	i := slices.Index(path, current)
	if i < 0 || i == len(path)-1 {
		return "", false
	}
	return path[i+1], true
}

// CheckTransition decides whether actorID may move o to status to, and in
// which role.
func CheckTransition(o *models.Order, actorID string, to models.OrderStatus) (Role, error) {
	if !slices.Contains(StatusesFor(o.DeliveryMethod), to) {
		return 0, invalid("status", ErrInvalidTransition,
			"Invalid status %q for delivery method %s", to, o.DeliveryMethod)
	}

	isBuyer := o.BuyerID == actorID
	isSeller := o.HasSeller(actorID)
	if !isBuyer && !isSeller {
		return 0, kindErr(apperr.KindForbidden, ErrNotParticipant, "You are not allowed to update this order")
	}

	if o.Status.IsTerminal() {
		return 0, invalid("status", ErrInvalidTransition, "Order is already %s", o.Status)
	}

	if isBuyer && o.Status == models.StatusPending && to == models.StatusCancelled {
		return RoleBuyer, nil
	}
	if isSeller {
		if next, ok := NextStatus(o.DeliveryMethod, o.Status); ok && next == to {
			return RoleSeller, nil
		}
	}

	if isBuyer && !isSeller {
		return 0, invalid("status", ErrInvalidTransition, "Buyers can only cancel pending orders")
	}
	return 0, invalid("status", ErrInvalidTransition,
		"Cannot move order from %s to %s", o.Status, to)
}
