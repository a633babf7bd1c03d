package parcel

import "github.com/swiftparcel/parceld/pkg/serrors"

var (
	ErrNotFound         = serrors.NewError("PARCEL_NOT_FOUND", "parcel not found", "")
	ErrInvalidReference = serrors.NewError("PARCEL_INVALID_REFERENCE", "parcel type does not exist", "")
	ErrDecode           = serrors.NewError("PARCEL_DECODE", "malformed registration payload", "")
	ErrValidation       = serrors.NewError("PARCEL_VALIDATION", "invalid registration request", "")
)
