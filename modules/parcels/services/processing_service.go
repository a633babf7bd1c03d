package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/swiftparcel/parceld/modules/parcels/domain/aggregates/parcel"
	"github.com/swiftparcel/parceld/pkg/composables"
	"github.com/swiftparcel/parceld/pkg/eventbus"
)

// RateSource yields the current exchange rate; in production this is the
// read-through Redis cache backed by the CBR provider.
type RateSource interface {
	GetRate(ctx context.Context) (float64, error)
}

// TxRunner runs fn inside a transaction. Defaults to composables.InTx;
// tests substitute a pass-through.
type TxRunner func(ctx context.Context, fn func(context.Context) error) error

// ProcessingService drives one queued registration through the pipeline:
// decode, resolve rate, compute cost, persist in a single transaction. It
// returns nil only after the transaction has committed; acknowledgment is
// the caller's (the queue consumer's) responsibility.
type ProcessingService struct {
	repo  parcel.Repository
	rates RateSource
	inTx  TxRunner
	bus   eventbus.EventBus
	log   *logrus.Entry
}

func NewProcessingService(
	repo parcel.Repository,
	rates RateSource,
	bus eventbus.EventBus,
	log *logrus.Entry,
) *ProcessingService {
	return &ProcessingService{
		repo:  repo,
		rates: rates,
		inTx:  composables.InTx,
		bus:   bus,
		log:   log,
	}
}

// WithTxRunner overrides the transaction runner.
func (s *ProcessingService) WithTxRunner(inTx TxRunner) *ProcessingService {
	s.inTx = inTx
	return s
}

func (s *ProcessingService) ProcessPayload(ctx context.Context, body []byte) error {
	var msg parcel.RegistrationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return errors.Wrap(parcel.ErrDecode, err.Error())
	}
	if err := validateMessage(msg); err != nil {
		return err
	}

	rate, err := s.rates.GetRate(ctx)
	if err != nil {
		return err
	}

	cost := parcel.CalculateDeliveryCost(msg.Weight, msg.ContentValueCents, rate)

	start := time.Now()
	var id uuid.UUID
	err = s.inTx(ctx, func(txCtx context.Context) error {
		var txErr error
		id, txErr = s.repo.CreateFromMessage(txCtx, msg, cost)
		return txErr
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"parcel_id":           id,
		"event_id":            msg.EventID,
		"delivery_cost_cents": cost,
		"took":                time.Since(start),
	}).Info("parcel processed")
	s.bus.Publish(parcel.ParcelProcessed{ParcelID: id, EventID: msg.EventID, DeliveryCostCents: cost})

	return nil
}

// validateMessage rejects payloads the boundary should never have queued.
// These are permanent failures: redelivering the same bytes cannot repair
// them.
func validateMessage(msg parcel.RegistrationMessage) error {
	switch {
	case msg.EventID == uuid.Nil:
		return errors.Wrap(parcel.ErrDecode, "missing event_id")
	case msg.Name == "":
		return errors.Wrap(parcel.ErrDecode, "missing name")
	case msg.Weight <= 0:
		return errors.Wrapf(parcel.ErrDecode, "non-positive weight %v", msg.Weight)
	case msg.ContentValueCents < 0:
		return errors.Wrapf(parcel.ErrDecode, "negative content value %d", msg.ContentValueCents)
	case msg.ParcelTypeID <= 0:
		return errors.Wrapf(parcel.ErrDecode, "invalid parcel_type_id %d", msg.ParcelTypeID)
	}
	return nil
}
