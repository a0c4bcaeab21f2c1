package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Booking lifecycle states. State is the authoritative column; the
// Confirmed flag is kept in sync for the wire contract.
const (
	StateOpen      = "open"
	StateConfirmed = "confirmed"
	StateCancelled = "cancelled"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID            string     `bun:"id,pk" json:"id"`
	SessionID     string     `bun:"session_id" json:"session_id"`
	GuestName     *string    `bun:"guest_name,nullzero" json:"guest_name"`
	CheckIn       *time.Time `bun:"checkin,nullzero" json:"checkin"`
	CheckOut      *time.Time `bun:"checkout,nullzero" json:"checkout"`
	Nights        *int       `bun:"nights,nullzero" json:"nights"`
	Guests        *int       `bun:"guests,nullzero" json:"guests"`
	Breakfast     *string    `bun:"breakfast,nullzero" json:"breakfast"`
	PaymentMethod *string    `bun:"payment_method,nullzero" json:"payment_method"`
	State         string     `bun:"state" json:"state"`
	Confirmed     bool       `bun:"confirmed" json:"confirmed"`
	Notes         string     `bun:"notes" json:"notes"`
	CreatedAt     time.Time  `bun:"created_at" json:"created_at"`
}

// AppendNote adds a lifecycle entry to the audit log. Notes are
// append-only, never overwritten.
func (b *Booking) AppendNote(note string) {
	b.Notes = b.Notes + "\n" + note
}

type MessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type MessageResponse struct {
	Reply              string   `json:"reply"`
	Booking            *Booking `json:"booking"`
	AllRequiredPresent bool     `json:"all_required_present"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// BookingEvent is the payload streamed to Kafka on lifecycle transitions.
type BookingEvent struct {
	BookingID string    `json:"booking_id"`
	SessionID string    `json:"session_id"`
	State     string    `json:"state"`
	GuestName string    `json:"guest_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
