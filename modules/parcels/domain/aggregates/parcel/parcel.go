package parcel

import (
	"time"

	"github.com/google/uuid"
)

// Parcel is the persisted registration after cost computation. Rows are
// created once by the consumer pipeline and never mutated afterward.
type Parcel struct {
	ID                uuid.UUID
	EventID           uuid.UUID
	Name              string
	Weight            float64
	ContentValueCents int64
	DeliveryCostCents *int64
	ParcelTypeID      int
	ParcelTypeName    string
	SessionID         *string
	CreatedAt         time.Time
}
