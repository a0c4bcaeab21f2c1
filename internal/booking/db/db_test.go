package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	bookingdb "concierge/internal/booking/db"
	"concierge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bookingdb.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	d := &bookingdb.DB{Bun: bun.NewDB(sqldb, sqlitedialect.New())}
	require.NoError(t, d.CreateSchema(context.Background()))

	// Shared-cache memory DBs persist across connections within the
	// process; start each test from an empty table.
	_, err = d.Bun.NewDelete().Model((*models.Booking)(nil)).Where("1=1").Exec(context.Background())
	require.NoError(t, err)
	return d
}

func TestCreateAndGetByID(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	created, err := d.Create(ctx, "sess-1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "sess-1", created.SessionID)
	assert.Equal(t, models.StateOpen, created.State)
	assert.False(t, created.Confirmed)

	fetched, err := d.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Nil(t, fetched.GuestName)
	assert.Nil(t, fetched.CheckIn)
}

func TestGetByIDNotFound(t *testing.T) {
	d := newTestDB(t)

	_, err := d.GetByID(context.Background(), "missing-id")
	assert.ErrorIs(t, err, bookingdb.ErrNotFound)
}

func TestGetLatestOpenBySession(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	// No draft yet.
	got, err := d.GetLatestOpenBySession(ctx, "sess-2")
	require.NoError(t, err)
	assert.Nil(t, got)

	first, err := d.Create(ctx, "sess-2")
	require.NoError(t, err)

	got, err = d.GetLatestOpenBySession(ctx, "sess-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)

	// Other sessions are invisible.
	got, err = d.GetLatestOpenBySession(ctx, "other-session")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetLatestOpenExcludesTerminalStates(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	draft, err := d.Create(ctx, "sess-3")
	require.NoError(t, err)

	draft.State = models.StateCancelled
	require.NoError(t, d.Save(ctx, draft))

	got, err := d.GetLatestOpenBySession(ctx, "sess-3")
	require.NoError(t, err)
	assert.Nil(t, got, "cancelled drafts must not be resumed")

	confirmed, err := d.Create(ctx, "sess-3")
	require.NoError(t, err)
	confirmed.State = models.StateConfirmed
	confirmed.Confirmed = true
	require.NoError(t, d.Save(ctx, confirmed))

	got, err = d.GetLatestOpenBySession(ctx, "sess-3")
	require.NoError(t, err)
	assert.Nil(t, got, "confirmed drafts must not be resumed")
}

func TestSaveRoundTrip(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	draft, err := d.Create(ctx, "sess-4")
	require.NoError(t, err)

	name := "Dana Wells"
	checkin := time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)
	checkout := time.Date(2026, time.June, 13, 0, 0, 0, 0, time.UTC)
	nights := 3
	guests := 2
	breakfast := "Continental"
	payment := "Card"

	draft.GuestName = &name
	draft.CheckIn = &checkin
	draft.CheckOut = &checkout
	draft.Nights = &nights
	draft.Guests = &guests
	draft.Breakfast = &breakfast
	draft.PaymentMethod = &payment
	draft.AppendNote("Confirmed at 2026-03-15T12:00:00Z")
	require.NoError(t, d.Save(ctx, draft))

	fetched, err := d.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.GuestName)
	assert.Equal(t, "Dana Wells", *fetched.GuestName)
	require.NotNil(t, fetched.CheckIn)
	assert.True(t, checkin.Equal(*fetched.CheckIn))
	require.NotNil(t, fetched.CheckOut)
	assert.True(t, checkout.Equal(*fetched.CheckOut))
	require.NotNil(t, fetched.Nights)
	assert.Equal(t, 3, *fetched.Nights)
	require.NotNil(t, fetched.Guests)
	assert.Equal(t, 2, *fetched.Guests)
	require.NotNil(t, fetched.Breakfast)
	assert.Equal(t, "Continental", *fetched.Breakfast)
	require.NotNil(t, fetched.PaymentMethod)
	assert.Equal(t, "Card", *fetched.PaymentMethod)
	assert.Contains(t, fetched.Notes, "Confirmed at")
}

func TestListRecent(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	list, err := d.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for i := 0; i < 3; i++ {
		_, err := d.Create(ctx, "sess-list")
		require.NoError(t, err)
	}

	list, err = d.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
