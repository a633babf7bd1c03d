package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/swiftparcel/parceld/modules/parcels/domain/aggregates/parcel"
	"github.com/swiftparcel/parceld/modules/parcels/domain/entities/parceltype"
)

// ParcelService serves the read side of the ingestion API.
type ParcelService struct {
	repo parcel.Repository
}

func NewParcelService(repo parcel.Repository) *ParcelService {
	return &ParcelService{repo: repo}
}

func (s *ParcelService) GetByID(ctx context.Context, id uuid.UUID) (parcel.Parcel, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ParcelService) List(ctx context.Context, params *parcel.FindParams) ([]parcel.Parcel, error) {
	return s.repo.List(ctx, params)
}

type ParcelTypeService struct {
	repo parceltype.Repository
}

func NewParcelTypeService(repo parceltype.Repository) *ParcelTypeService {
	return &ParcelTypeService{repo: repo}
}

func (s *ParcelTypeService) GetAll(ctx context.Context) ([]parceltype.ParcelType, error) {
	return s.repo.GetAll(ctx)
}

func (s *ParcelTypeService) Create(ctx context.Context, name string) (parceltype.ParcelType, error) {
	return s.repo.Create(ctx, name)
}
