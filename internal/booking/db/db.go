package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"concierge/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a booking id is unknown. Direct-access
// lookups never create a booking implicitly.
var ErrNotFound = errors.New("booking not found")

type DB struct {
	Bun *bun.DB
}

// CreateSchema creates the bookings table if it does not exist.
func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*models.Booking)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// ---------------- BOOKINGS ----------------

// GetLatestOpenBySession → newest open draft for a session, nil if the
// session has no open draft. Confirmed and cancelled drafts are excluded,
// so a fresh draft starts after either terminal transition.
func (d *DB) GetLatestOpenBySession(ctx context.Context, sessionID string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("session_id = ?", sessionID).
		Where("state = ?", models.StateOpen).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create → insert a new empty open draft for a session.
func (d *DB) Create(ctx context.Context, sessionID string) (*models.Booking, error) {
	booking := &models.Booking{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		State:     models.StateOpen,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := d.Bun.NewInsert().Model(booking).Exec(ctx); err != nil {
		return nil, err
	}
	return booking, nil
}

// Save → write the full draft back, last write wins.
func (d *DB) Save(ctx context.Context, booking *models.Booking) error {
	_, err := d.Bun.NewUpdate().
		Model(booking).
		Column("guest_name", "checkin", "checkout", "nights", "guests",
			"breakfast", "payment_method", "state", "confirmed", "notes").
		Where("id = ?", booking.ID).
		Exec(ctx)
	return err
}

// GetByID → fetch one booking by id.
func (d *DB) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListRecent → newest bookings first, any state. Used by the admin view.
func (d *DB) ListRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}
