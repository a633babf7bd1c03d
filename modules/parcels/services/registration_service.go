package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/swiftparcel/parceld/modules/parcels/domain/aggregates/parcel"
	"github.com/swiftparcel/parceld/modules/parcels/domain/entities/parceltype"
	"github.com/swiftparcel/parceld/pkg/eventbus"
)

// QueuePublisher places an encoded registration on the durable queue. A nil
// return means the broker has durably accepted the message.
type QueuePublisher interface {
	Publish(ctx context.Context, body []byte, messageID string) error
}

// RegisterParcelDTO is the ingestion-boundary request. ContentValue is the
// declared value in currency units; it is converted to integer cents here,
// before anything reaches the queue.
type RegisterParcelDTO struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Weight       float64 `json:"weight" validate:"required,gt=0"`
	ContentValue float64 `json:"content_value_cents" validate:"gte=0"`
	ParcelType   string  `json:"parcel_type" validate:"required,max=50"`
}

type RegistrationService struct {
	types          parceltype.Repository
	publisher      QueuePublisher
	bus            eventbus.EventBus
	validate       *validator.Validate
	publishTimeout time.Duration
	log            *logrus.Entry
}

func NewRegistrationService(
	types parceltype.Repository,
	publisher QueuePublisher,
	bus eventbus.EventBus,
	publishTimeout time.Duration,
	log *logrus.Entry,
) *RegistrationService {
	return &RegistrationService{
		types:          types,
		publisher:      publisher,
		bus:            bus,
		validate:       validator.New(),
		publishTimeout: publishTimeout,
		log:            log,
	}
}

// Register validates the request, resolves the parcel type name to an id
// and enqueues a Registration Message. The caller learns only whether the
// request was durably queued; cost computation happens asynchronously.
func (s *RegistrationService) Register(ctx context.Context, dto RegisterParcelDTO, sessionID string) (parcel.RegistrationMessage, error) {
	if err := s.validate.Struct(dto); err != nil {
		return parcel.RegistrationMessage{}, errors.Wrap(parcel.ErrValidation, err.Error())
	}

	t, err := s.types.GetByName(ctx, dto.ParcelType)
	if err != nil {
		return parcel.RegistrationMessage{}, err
	}

	msg := parcel.RegistrationMessage{
		EventID:           uuid.New(),
		Name:              dto.Name,
		Weight:            dto.Weight,
		ContentValueCents: int64(dto.ContentValue * 100),
		ParcelTypeID:      t.ID,
		SessionID:         sessionID,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return parcel.RegistrationMessage{}, errors.Wrap(err, "encode registration message")
	}

	publishCtx := ctx
	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		publishCtx, cancel = context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
	}
	if err := s.publisher.Publish(publishCtx, body, msg.EventID.String()); err != nil {
		return parcel.RegistrationMessage{}, err
	}

	s.log.WithFields(logrus.Fields{
		"event_id":       msg.EventID,
		"parcel_type_id": msg.ParcelTypeID,
	}).Info("parcel registration queued")
	s.bus.Publish(parcel.ParcelAccepted{Message: msg})

	return msg, nil
}
