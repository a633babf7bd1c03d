package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftparcel/parceld/modules/parcels/domain/aggregates/parcel"
	"github.com/swiftparcel/parceld/modules/parcels/infrastructure/rates"
	"github.com/swiftparcel/parceld/pkg/eventbus"
)

type memoryParcelRepo struct {
	mu      sync.Mutex
	byEvent map[uuid.UUID]parcel.Parcel
	err     error
}

func newMemoryParcelRepo() *memoryParcelRepo {
	return &memoryParcelRepo{byEvent: make(map[uuid.UUID]parcel.Parcel)}
}

func (r *memoryParcelRepo) CreateFromMessage(_ context.Context, msg parcel.RegistrationMessage, costCents int64) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return uuid.Nil, r.err
	}
	if existing, ok := r.byEvent[msg.EventID]; ok {
		return existing.ID, nil
	}
	p := parcel.Parcel{
		ID:                uuid.New(),
		EventID:           msg.EventID,
		Name:              msg.Name,
		Weight:            msg.Weight,
		ContentValueCents: msg.ContentValueCents,
		DeliveryCostCents: &costCents,
		ParcelTypeID:      msg.ParcelTypeID,
	}
	if msg.SessionID != "" {
		sid := msg.SessionID
		p.SessionID = &sid
	}
	r.byEvent[msg.EventID] = p
	return p.ID, nil
}

func (r *memoryParcelRepo) GetByID(context.Context, uuid.UUID) (parcel.Parcel, error) {
	return parcel.Parcel{}, parcel.ErrNotFound
}

func (r *memoryParcelRepo) List(context.Context, *parcel.FindParams) ([]parcel.Parcel, error) {
	return nil, nil
}

type fixedRate struct {
	rate float64
	err  error
}

func (f fixedRate) GetRate(context.Context) (float64, error) {
	return f.rate, f.err
}

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func newTestProcessor(repo parcel.Repository, rate RateSource) *ProcessingService {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return NewProcessingService(repo, rate, eventbus.NewEventPublisher(l), quietLog()).
		WithTxRunner(passthroughTx)
}

func validMessage() parcel.RegistrationMessage {
	return parcel.RegistrationMessage{
		EventID:           uuid.New(),
		Name:              "books",
		Weight:            1.5,
		ContentValueCents: 1000,
		ParcelTypeID:      1,
		SessionID:         "abc",
	}
}

func TestProcessPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newMemoryParcelRepo()
	svc := newTestProcessor(repo, fixedRate{rate: 90.0})

	msg := validMessage()
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, svc.ProcessPayload(context.Background(), body))

	saved, ok := repo.byEvent[msg.EventID]
	require.True(t, ok)
	assert.Equal(t, msg.Name, saved.Name)
	assert.Equal(t, msg.Weight, saved.Weight)
	assert.Equal(t, msg.ContentValueCents, saved.ContentValueCents)
	assert.Equal(t, msg.ParcelTypeID, saved.ParcelTypeID)
	require.NotNil(t, saved.DeliveryCostCents)
	assert.Equal(t, int64(96750), *saved.DeliveryCostCents)
}

func TestProcessPayloadDecodeError(t *testing.T) {
	t.Parallel()

	repo := newMemoryParcelRepo()
	svc := newTestProcessor(repo, fixedRate{rate: 90.0})

	err := svc.ProcessPayload(context.Background(), []byte(`{"weight": "heavy"`))
	assert.ErrorIs(t, err, parcel.ErrDecode)
	assert.Empty(t, repo.byEvent)
}

func TestProcessPayloadRejectsInvalidMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*parcel.RegistrationMessage)
	}{
		{"missing event id", func(m *parcel.RegistrationMessage) { m.EventID = uuid.Nil }},
		{"empty name", func(m *parcel.RegistrationMessage) { m.Name = "" }},
		{"zero weight", func(m *parcel.RegistrationMessage) { m.Weight = 0 }},
		{"negative weight", func(m *parcel.RegistrationMessage) { m.Weight = -1 }},
		{"negative content value", func(m *parcel.RegistrationMessage) { m.ContentValueCents = -1 }},
		{"zero parcel type", func(m *parcel.RegistrationMessage) { m.ParcelTypeID = 0 }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := newMemoryParcelRepo()
			svc := newTestProcessor(repo, fixedRate{rate: 90.0})

			msg := validMessage()
			tc.mutate(&msg)
			body, err := json.Marshal(msg)
			require.NoError(t, err)

			err = svc.ProcessPayload(context.Background(), body)
			assert.ErrorIs(t, err, parcel.ErrDecode)
			assert.Empty(t, repo.byEvent)
		})
	}
}

func TestProcessPayloadRateUnavailable(t *testing.T) {
	t.Parallel()

	repo := newMemoryParcelRepo()
	svc := newTestProcessor(repo, fixedRate{err: rates.ErrRateUnavailable})

	body, err := json.Marshal(validMessage())
	require.NoError(t, err)

	err = svc.ProcessPayload(context.Background(), body)
	assert.ErrorIs(t, err, rates.ErrRateUnavailable)
	// No rate means no parcel row; the message stays unacknowledged.
	assert.Empty(t, repo.byEvent)
}

func TestProcessPayloadPersistErrorPropagates(t *testing.T) {
	t.Parallel()

	repo := newMemoryParcelRepo()
	repo.err = parcel.ErrInvalidReference
	svc := newTestProcessor(repo, fixedRate{rate: 90.0})

	body, err := json.Marshal(validMessage())
	require.NoError(t, err)

	err = svc.ProcessPayload(context.Background(), body)
	assert.ErrorIs(t, err, parcel.ErrInvalidReference)
}

func TestProcessPayloadRedeliveryIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newMemoryParcelRepo()
	svc := newTestProcessor(repo, fixedRate{rate: 90.0})

	body, err := json.Marshal(validMessage())
	require.NoError(t, err)

	// Simulated crash between commit and ack: the same payload arrives
	// twice. The second pass must succeed without a second row.
	require.NoError(t, svc.ProcessPayload(context.Background(), body))
	require.NoError(t, svc.ProcessPayload(context.Background(), body))
	assert.Len(t, repo.byEvent, 1)
}
