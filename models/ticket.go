package models

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketPending    TicketStatus = "pending"
	TicketInProgress TicketStatus = "in_progress"
	TicketCompleted  TicketStatus = "completed"
	TicketCancelled  TicketStatus = "cancelled"
)

func (s TicketStatus) IsValid() bool {
	return s == TicketPending || s == TicketInProgress || s == TicketCompleted || s == TicketCancelled
}

type LineStatus string

const (
	LinePending    LineStatus = "pending"
	LineInProgress LineStatus = "in_progress"
	LineCompleted  LineStatus = "completed"
	LineCancelled  LineStatus = "cancelled"
)

func (s LineStatus) IsValid() bool {
	return s == LinePending || s == LineInProgress || s == LineCompleted || s == LineCancelled
}

func (s LineStatus) IsTerminal() bool {
	return s == LineCompleted || s == LineCancelled
}

// lineTransitions maps a target status to the statuses it may be reached from.
// completed and cancelled are terminal, so they appear only as targets.
var lineTransitions = map[LineStatus][]LineStatus{
	LineInProgress: {LinePending},
	LineCompleted:  {LineInProgress},
	LineCancelled:  {LinePending, LineInProgress},
}

func (s LineStatus) CanTransitionTo(target LineStatus) bool {
	allowed, ok := lineTransitions[target]
	if !ok {
		return false
	}
	for _, from := range allowed {
		if from == s {
			return true
		}
	}
	return false
}

type Ticket struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	OrderID   uuid.UUID    `db:"order_id" json:"order_id"`
	StoreID   uuid.UUID    `db:"store_id" json:"store_id"`
	Status    TicketStatus `db:"status" json:"status"`
	Priority  int          `db:"priority" json:"priority"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

type TicketLine struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TicketID    uuid.UUID  `db:"ticket_id" json:"ticket_id"`
	OrderLineID uuid.UUID  `db:"order_line_id" json:"order_line_id"`
	ProductID   uuid.UUID  `db:"product_id" json:"product_id"`
	Quantity    int        `db:"quantity" json:"quantity"`
	Status      LineStatus `db:"status" json:"status"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	// Denormalized from the catalog for display purposes.
	ProductName string `db:"-" json:"product_name,omitempty"`
}

type TicketWithLines struct {
	Ticket
	Lines []TicketLine `json:"lines"`
}

// NewTicket is the ticket-creation input taken from a finalized order.
type NewTicket struct {
	OrderID  uuid.UUID `json:"order_id"`
	StoreID  uuid.UUID `json:"store_id"`
	Priority int       `json:"priority"`
	Lines    []NewLine `json:"lines"`
}

type NewLine struct {
	OrderLineID uuid.UUID `json:"order_line_id"`
	ProductID   uuid.UUID `json:"product_id"`
	Quantity    int       `json:"quantity"`
}

// TicketFilter narrows ticket listings for the kitchen display feed.
type TicketFilter struct {
	StoreID *uuid.UUID
	Status  *TicketStatus
	QueueID *uuid.UUID
}
