package persistence

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/swiftparcel/parceld/modules/parcels/domain/aggregates/parcel"
	"github.com/swiftparcel/parceld/pkg/composables"
)

const pgForeignKeyViolation = "23503"

type ParcelRepository struct{}

func NewParcelRepository() parcel.Repository {
	return &ParcelRepository{}
}

func (r *ParcelRepository) CreateFromMessage(ctx context.Context, msg parcel.RegistrationMessage, deliveryCostCents int64) (uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var sessionID *string
	if msg.SessionID != "" {
		sessionID = &msg.SessionID
	}

	id := uuid.New()
	// ON CONFLICT on the event id makes redelivered messages a no-op insert;
	// the follow-up select returns the row committed by the first delivery.
	tag, err := tx.Exec(ctx,
		`INSERT INTO parcels (id, event_id, name, weight, content_value_cents, delivery_cost_cents, parcel_type_id, session_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (event_id) DO NOTHING`,
		id, msg.EventID, msg.Name, msg.Weight, msg.ContentValueCents, deliveryCostCents, msg.ParcelTypeID, sessionID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return uuid.Nil, errors.Wrapf(parcel.ErrInvalidReference, "parcel_type_id=%d", msg.ParcelTypeID)
		}
		return uuid.Nil, errors.Wrap(err, "insert parcel")
	}
	if tag.RowsAffected() == 1 {
		return id, nil
	}

	var existing uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM parcels WHERE event_id = $1`, msg.EventID).Scan(&existing); err != nil {
		return uuid.Nil, errors.Wrap(err, "select parcel by event id")
	}
	return existing, nil
}

func (r *ParcelRepository) GetByID(ctx context.Context, id uuid.UUID) (parcel.Parcel, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return parcel.Parcel{}, err
	}

	row := tx.QueryRow(ctx,
		`SELECT p.id, p.event_id, p.name, p.weight, p.content_value_cents, p.delivery_cost_cents,
		        p.parcel_type_id, t.name, p.session_id, p.created_at
		   FROM parcels p
		   JOIN parcel_types t ON t.id = p.parcel_type_id
		  WHERE p.id = $1`,
		id,
	)
	entity, err := scanParcel(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return parcel.Parcel{}, parcel.ErrNotFound
		}
		return parcel.Parcel{}, errors.Wrap(err, "select parcel")
	}
	return entity, nil
}

func (r *ParcelRepository) List(ctx context.Context, params *parcel.FindParams) ([]parcel.Parcel, error) {
	if params == nil {
		params = &parcel.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	q := `SELECT p.id, p.event_id, p.name, p.weight, p.content_value_cents, p.delivery_cost_cents,
	             p.parcel_type_id, t.name, p.session_id, p.created_at
	        FROM parcels p
	        JOIN parcel_types t ON t.id = p.parcel_type_id
	       WHERE p.session_id = $1`
	args := []any{params.SessionID}

	if params.ParcelTypeID != nil {
		args = append(args, *params.ParcelTypeID)
		q += fmt.Sprintf(" AND p.parcel_type_id = $%d", len(args))
	}
	if params.HasDeliveryCost != nil {
		if *params.HasDeliveryCost {
			q += " AND p.delivery_cost_cents IS NOT NULL"
		} else {
			q += " AND p.delivery_cost_cents IS NULL"
		}
	}
	q += " ORDER BY p.created_at DESC"
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list parcels")
	}
	defer rows.Close()

	out := make([]parcel.Parcel, 0)
	for rows.Next() {
		entity, err := scanParcel(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan parcel")
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParcel(row rowScanner) (parcel.Parcel, error) {
	var p parcel.Parcel
	err := row.Scan(
		&p.ID,
		&p.EventID,
		&p.Name,
		&p.Weight,
		&p.ContentValueCents,
		&p.DeliveryCostCents,
		&p.ParcelTypeID,
		&p.ParcelTypeName,
		&p.SessionID,
		&p.CreatedAt,
	)
	return p, err
}
