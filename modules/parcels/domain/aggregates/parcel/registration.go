package parcel

import "github.com/google/uuid"

// RegistrationMessage is the queue payload for an accepted registration.
// EventID is stamped once at publish time and doubles as the idempotency
// key for persistence, so broker redelivery cannot create duplicate rows.
type RegistrationMessage struct {
	EventID           uuid.UUID `json:"event_id"`
	Name              string    `json:"name"`
	Weight            float64   `json:"weight"`
	ContentValueCents int64     `json:"content_value_cents"`
	ParcelTypeID      int       `json:"parcel_type_id"`
	SessionID         string    `json:"session_id,omitempty"`
}

// ParcelAccepted is published on the in-process event bus once a
// registration has been durably queued.
type ParcelAccepted struct {
	Message RegistrationMessage
}

// ParcelProcessed is published after the parcel row is committed.
type ParcelProcessed struct {
	ParcelID          uuid.UUID
	EventID           uuid.UUID
	DeliveryCostCents int64
}
