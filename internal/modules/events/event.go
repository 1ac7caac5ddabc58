package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	ContractCreated    Type = "contract.created"
	ContractUpdated    Type = "contract.updated"
	BookingCartChanged Type = "booking.cart_modified"
	MovementCreated    Type = "movement.created"
	MovementDeleted    Type = "movement.deleted"
	MovementRestored   Type = "movement.restored"
)

// Event is an outbound notification about a committed state change.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       Type       `json:"type"`
	OccurredAt time.Time  `json:"occurred_at"`
	ActorID    uuid.UUID  `json:"actor_id"`
	ContractID *uuid.UUID `json:"contract_id,omitempty"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
	MovementID *uuid.UUID `json:"movement_id,omitempty"`
	Payload    any        `json:"payload,omitempty"`
}

func New(t Type, actorID uuid.UUID, payload any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		Payload:    payload,
	}
}

func (e Event) ForContract(id uuid.UUID) Event {
	e.ContractID = &id
	return e
}

func (e Event) ForBooking(id uuid.UUID) Event {
	e.BookingID = &id
	return e
}

func (e Event) ForMovement(id uuid.UUID) Event {
	e.MovementID = &id
	return e
}

// Emitter is called after commit. Implementations must not block the caller.
type Emitter interface {
	Emit(e Event)
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

func Nop() Emitter {
	return nopEmitter{}
}
