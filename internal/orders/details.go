package orders

import (
	"strings"
	"time"

	"github.com/01moynul/agritech-golang/internal/models"
)

const maxTrackingLinkLen = 500

var pickupLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// DetailsUpdate sets exactly one of PickupTime or TrackingLink.
type DetailsUpdate struct {
	PickupTime   *time.Time
	TrackingLink *string
}

// ParseDetailsUpdate builds an update from the raw request fields. Times
// without an offset are read as UTC.
func ParseDetailsUpdate(pickupTime, trackingLink *string) (DetailsUpdate, error) {
	var upd DetailsUpdate
	switch {
	case pickupTime != nil && trackingLink != nil:
		return upd, invalid("details", nil, "Provide either pickup_time or tracking_link, not both")
	case pickupTime == nil && trackingLink == nil:
		return upd, invalid("details", nil, "Provide pickup_time or tracking_link")
	case pickupTime != nil:
		t, err := parsePickupTime(strings.TrimSpace(*pickupTime))
		if err != nil {
			return upd, invalid("pickup_time", nil, "Invalid pickup_time format, expected ISO 8601 date-time")
		}
		upd.PickupTime = &t
	default:
		link := strings.TrimSpace(*trackingLink)
		if link == "" {
			return upd, invalid("tracking_link", nil, "tracking_link must not be empty")
		}
		if len(link) > maxTrackingLinkLen {
			return upd, invalid("tracking_link", nil, "tracking_link must be at most %d characters", maxTrackingLinkLen)
		}
		upd.TrackingLink = &link
	}
	return upd, nil
}

func parsePickupTime(s string) (time.Time, error) {
	var err error
	for _, layout := range pickupLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// checkDetailsFor rejects a field that does not belong to the method.
func checkDetailsFor(m models.DeliveryMethod, upd DetailsUpdate) error {
	if upd.PickupTime != nil && m != models.DeliverySelfPickup {
		return invalid("pickup_time", nil, "pickup_time is only allowed for self_pickup orders")
	}
	if upd.TrackingLink != nil && m != models.DeliveryParcel {
		return invalid("tracking_link", nil, "tracking_link is only allowed for parcel orders")
	}
	return nil
}
