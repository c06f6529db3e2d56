package orders

import (
	"errors"
	"testing"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWith(method models.DeliveryMethod, status models.OrderStatus) *models.Order {
	return &models.Order{
		BuyerID:        "buyer",
		DeliveryMethod: method,
		Status:         status,
		Items:          []models.OrderItem{{ProductID: "p1", SellerID: "seller"}},
	}
}

func TestStatusesFor(t *testing.T) {
	assert.Equal(t, []models.OrderStatus{
		models.StatusPending, models.StatusReadyForPickup, models.StatusDelivered, models.StatusCancelled,
	}, StatusesFor(models.DeliverySelfPickup))
	assert.Equal(t, []models.OrderStatus{
		models.StatusPending, models.StatusPacked, models.StatusShipped, models.StatusDelivered, models.StatusCancelled,
	}, StatusesFor(models.DeliveryParcel))
	assert.Nil(t, StatusesFor("drone"))
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		method  models.DeliveryMethod
		from    models.OrderStatus
		actor   string
		to      models.OrderStatus
		role    Role
		wantErr error
		kind    apperr.Kind
	}{
		{"buyer cancels pending", models.DeliveryParcel, models.StatusPending, "buyer", models.StatusCancelled, RoleBuyer, nil, 0},
		{"buyer cannot cancel delivered", models.DeliveryParcel, models.StatusDelivered, "buyer", models.StatusCancelled, 0, ErrInvalidTransition, apperr.KindInvalid},
		{"buyer cannot cancel packed", models.DeliveryParcel, models.StatusPacked, "buyer", models.StatusCancelled, 0, ErrInvalidTransition, apperr.KindInvalid},
		{"buyer cannot advance", models.DeliveryParcel, models.StatusPending, "buyer", models.StatusPacked, 0, ErrInvalidTransition, apperr.KindInvalid},
		{"seller packs", models.DeliveryParcel, models.StatusPending, "seller", models.StatusPacked, RoleSeller, nil, 0},
		{"seller ships packed", models.DeliveryParcel, models.StatusPacked, "seller", models.StatusShipped, RoleSeller, nil, 0},
		{"seller cannot skip shipped", models.DeliveryParcel, models.StatusPacked, "seller", models.StatusDelivered, 0, ErrInvalidTransition, apperr.KindInvalid},
		{"seller cannot cancel", models.DeliveryParcel, models.StatusPending, "seller", models.StatusCancelled, 0, ErrInvalidTransition, apperr.KindInvalid},
		{"pickup ready", models.DeliverySelfPickup, models.StatusPending, "seller", models.StatusReadyForPickup, RoleSeller, nil, 0},
		{"pickup delivered", models.DeliverySelfPickup, models.StatusReadyForPickup, "seller", models.StatusDelivered, RoleSeller, nil, 0},
		{"pickup has no packed", models.DeliverySelfPickup, models.StatusPending, "seller", models.StatusPacked, 0, ErrInvalidTransition, apperr.KindInvalid},
		{"processing is unknown", models.DeliveryParcel, models.StatusPending, "buyer", "Processing", 0, ErrInvalidTransition, apperr.KindInvalid},
		{"stranger", models.DeliveryParcel, models.StatusPending, "someone", models.StatusPacked, 0, ErrNotParticipant, apperr.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := CheckTransition(orderWith(tt.method, tt.from), tt.actor, tt.to)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.role, role)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestNextStatus(t *testing.T) {
	next, ok := NextStatus(models.DeliveryParcel, models.StatusShipped)
	assert.True(t, ok)
	assert.Equal(t, models.StatusDelivered, next)

	_, ok = NextStatus(models.DeliveryParcel, models.StatusDelivered)
	assert.False(t, ok)

	_, ok = NextStatus(models.DeliverySelfPickup, models.StatusCancelled)
	assert.False(t, ok)
}
