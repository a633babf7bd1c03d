package parcel

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	SessionID       string
	ParcelTypeID    *int
	HasDeliveryCost *bool
	Limit           int
	Offset          int
}

type Repository interface {
	// CreateFromMessage inserts the parcel row on the transaction bound to
	// ctx. The insert is idempotent on the message's EventID: redelivery of
	// an already-committed message returns the existing row's id.
	CreateFromMessage(ctx context.Context, msg RegistrationMessage, deliveryCostCents int64) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (Parcel, error)
	List(ctx context.Context, params *FindParams) ([]Parcel, error)
}
