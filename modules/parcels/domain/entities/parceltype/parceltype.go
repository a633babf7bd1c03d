package parceltype

import (
	"context"

	"github.com/swiftparcel/parceld/pkg/serrors"
)

// ParcelType is immutable reference data, created out-of-band (seeding or
// the admin endpoint) and read-only to the processing pipeline.
type ParcelType struct {
	ID   int
	Name string
}

var ErrNotFound = serrors.NewError("PARCEL_TYPE_NOT_FOUND", "parcel type not found", "")

type Repository interface {
	GetByID(ctx context.Context, id int) (ParcelType, error)
	GetByName(ctx context.Context, name string) (ParcelType, error)
	GetAll(ctx context.Context) ([]ParcelType, error)
	Create(ctx context.Context, name string) (ParcelType, error)
}
