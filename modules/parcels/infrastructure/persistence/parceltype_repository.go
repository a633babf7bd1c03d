package persistence

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/swiftparcel/parceld/modules/parcels/domain/entities/parceltype"
	"github.com/swiftparcel/parceld/pkg/composables"
)

type ParcelTypeRepository struct{}

func NewParcelTypeRepository() parceltype.Repository {
	return &ParcelTypeRepository{}
}

func (r *ParcelTypeRepository) GetByID(ctx context.Context, id int) (parceltype.ParcelType, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return parceltype.ParcelType{}, err
	}

	var t parceltype.ParcelType
	err = tx.QueryRow(ctx, `SELECT id, name FROM parcel_types WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return parceltype.ParcelType{}, parceltype.ErrNotFound
		}
		return parceltype.ParcelType{}, errors.Wrap(err, "select parcel type")
	}
	return t, nil
}

func (r *ParcelTypeRepository) GetByName(ctx context.Context, name string) (parceltype.ParcelType, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return parceltype.ParcelType{}, err
	}

	var t parceltype.ParcelType
	err = tx.QueryRow(ctx, `SELECT id, name FROM parcel_types WHERE name = $1`, name).Scan(&t.ID, &t.Name)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return parceltype.ParcelType{}, parceltype.ErrNotFound
		}
		return parceltype.ParcelType{}, errors.Wrap(err, "select parcel type by name")
	}
	return t, nil
}

func (r *ParcelTypeRepository) GetAll(ctx context.Context) ([]parceltype.ParcelType, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT id, name FROM parcel_types ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list parcel types")
	}
	defer rows.Close()

	out := make([]parceltype.ParcelType, 0)
	for rows.Next() {
		var t parceltype.ParcelType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, errors.Wrap(err, "scan parcel type")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *ParcelTypeRepository) Create(ctx context.Context, name string) (parceltype.ParcelType, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return parceltype.ParcelType{}, err
	}

	var t parceltype.ParcelType
	err = tx.QueryRow(ctx,
		`INSERT INTO parcel_types (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name`,
		name,
	).Scan(&t.ID, &t.Name)
	if err != nil {
		return parceltype.ParcelType{}, errors.Wrap(err, "insert parcel type")
	}
	return t, nil
}
