package store

import (
	"context"
	"testing"
	"time"

	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func booking(id string, at time.Time) domain.BookingEvent {
	return domain.BookingEvent{
		BookingID:     id,
		SessionID:     "call-" + id,
		CallerAddress: "+919876543210",
		Language:      domain.LanguageEnglish,
		Slots: domain.Slots{
			Name:          "Asha",
			ServiceID:     "wedding",
			Date:          "2026-10-16",
			Time:          "17:00",
			ContactNumber: "9876543210",
		},
		ServiceName: "Wedding Photography",
		CompletedAt: at,
	}
}

var t0 = time.Date(2026, 10, 14, 11, 30, 0, 0, time.UTC)

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/frontdesk.db"
	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.FileExists(t, path)
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	require.NoError(t, db.migrate())

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_RecordNames(t *testing.T) {
	db := testDB(t)

	rows, err := db.sql.Query("SELECT version, name FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var v int
		var name string
		require.NoError(t, rows.Scan(&v, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	require.Len(t, names, len(migrations))
	for i, m := range migrations {
		assert.Equal(t, m.Name, names[i])
	}
	assert.Equal(t, migrations[len(migrations)-1].Version, latestVersion())
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"bookings", "calls"} {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

// --- Booking tests ---

func TestBookingSaveAndGet(t *testing.T) {
	ctx := context.Background()
	bs := NewBookingStore(testDB(t))

	written, err := bs.Save(ctx, booking("BK202610141130000042", t0))
	require.NoError(t, err)
	assert.True(t, written)

	got, err := bs.Get(ctx, "BK202610141130000042")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Slots.Name)
	assert.Equal(t, "wedding", got.Slots.ServiceID)
	assert.Equal(t, "2026-10-16", got.Slots.Date)
	assert.Equal(t, "17:00", got.Slots.Time)
	assert.Equal(t, "Wedding Photography", got.ServiceName)
	assert.Equal(t, domain.LanguageEnglish, got.Language)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.True(t, got.CompletedAt.Equal(t0))
}

func TestBookingSaveIdempotent(t *testing.T) {
	ctx := context.Background()
	bs := NewBookingStore(testDB(t))

	ev := booking("BK202610141130000042", t0)
	_, err := bs.Save(ctx, ev)
	require.NoError(t, err)

	ev.Slots.Name = "Someone Else"
	written, err := bs.Save(ctx, ev)
	require.NoError(t, err)
	assert.False(t, written)

	got, err := bs.Get(ctx, ev.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Slots.Name)

	n, err := bs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBookingSaveRejectsEmptyID(t *testing.T) {
	bs := NewBookingStore(testDB(t))
	_, err := bs.Save(context.Background(), booking("", t0))
	assert.Error(t, err)
}

func TestBookingGetNotFound(t *testing.T) {
	bs := NewBookingStore(testDB(t))
	_, err := bs.Get(context.Background(), "BK0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByReference(t *testing.T) {
	ctx := context.Background()
	bs := NewBookingStore(testDB(t))
	_, err := bs.Save(ctx, booking("BK202610141130000042", t0))
	require.NoError(t, err)
	_, err = bs.Save(ctx, booking("BK202610131000007777", t0.Add(-24*time.Hour)))
	require.NoError(t, err)

	tests := []struct {
		ref  string
		want string
	}{
		{"BK202610141130000042", "BK202610141130000042"},
		{"bk202610141130000042", "BK202610141130000042"},
		{"202610141130000042", "BK202610141130000042"},
		{"0042", "BK202610141130000042"},
		{"7777", "BK202610131000007777"},
		{"00 42", "BK202610141130000042"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := bs.FindByReference(ctx, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.BookingID)
		})
	}

	_, err = bs.FindByReference(ctx, "42")
	assert.ErrorIs(t, err, ErrNotFound, "short references never match")
	_, err = bs.FindByReference(ctx, "5555")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByReferenceNewestSuffixWins(t *testing.T) {
	ctx := context.Background()
	bs := NewBookingStore(testDB(t))
	_, err := bs.Save(ctx, booking("BK202610121000001234", t0.Add(-48*time.Hour)))
	require.NoError(t, err)
	_, err = bs.Save(ctx, booking("BK202610141000001234", t0))
	require.NoError(t, err)

	got, err := bs.FindByReference(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "BK202610141000001234", got.BookingID)
}

func TestTrack(t *testing.T) {
	ctx := context.Background()
	bs := NewBookingStore(testDB(t))
	_, err := bs.Save(ctx, booking("BK202610141130000042", t0))
	require.NoError(t, err)

	res, err := bs.Track(ctx, "0042")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "0042", res.OrderNumber)
	assert.Equal(t, "BK202610141130000042", res.BookingID)
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Equal(t, "wedding", res.ServiceID)
	assert.Equal(t, "2026-10-16", res.Date)

	res, err = bs.Track(ctx, "999999")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, "999999", res.OrderNumber)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	bs := NewBookingStore(testDB(t))
	_, err := bs.Save(ctx, booking("BK202610141130000042", t0))
	require.NoError(t, err)

	require.NoError(t, bs.SetStatus(ctx, "BK202610141130000042", StatusReady))
	got, err := bs.Get(ctx, "BK202610141130000042")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)

	assert.Error(t, bs.SetStatus(ctx, "BK202610141130000042", "lost"))
	assert.ErrorIs(t, bs.SetStatus(ctx, "BK0", StatusShot), ErrNotFound)
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusConfirmed, StatusShot, StatusReady, StatusDelivered, StatusCancelled} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("Confirmed"))
}

func TestBookingList(t *testing.T) {
	ctx := context.Background()
	bs := NewBookingStore(testDB(t))
	for i, id := range []string{"BK202610140900000001", "BK202610141000000002", "BK202610141100000003"} {
		_, err := bs.Save(ctx, booking(id, t0.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	all, err := bs.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BK202610141100000003", all[0].BookingID)
	assert.Equal(t, "BK202610140900000001", all[2].BookingID)

	two, err := bs.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

// --- Call log tests ---

func TestCallLogStartEnd(t *testing.T) {
	ctx := context.Background()
	cl := NewCallLog(testDB(t))

	s := &domain.Session{
		ID:            "call-1",
		CallerAddress: "+919876543210",
		Mode:          domain.ModeVoice,
		Language:      domain.LanguageEnglish,
		State:         domain.StateLanguageSelection,
		CreatedAt:     t0,
	}
	require.NoError(t, cl.Start(ctx, s))
	require.NoError(t, cl.Start(ctx, s), "repeated start is ignored")

	recent, err := cl.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Nil(t, recent[0].EndedAt)
	assert.Equal(t, domain.ModeVoice, recent[0].Mode)

	s.Language = domain.LanguageHindi
	s.State = domain.StateGoodbye
	s.Bookings = []string{"BK202610141130000042"}
	require.NoError(t, cl.End(ctx, s, "goodbye", t0.Add(3*time.Minute)))

	recent, err = cl.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	r := recent[0]
	require.NotNil(t, r.EndedAt)
	assert.True(t, r.EndedAt.Equal(t0.Add(3*time.Minute)))
	assert.Equal(t, "goodbye", r.EndReason)
	assert.Equal(t, domain.StateGoodbye, r.FinalState)
	assert.Equal(t, domain.LanguageHindi, r.Language)
	assert.Equal(t, 1, r.Bookings)
	assert.True(t, r.StartedAt.Equal(t0))

	// a second end does not overwrite the first
	require.NoError(t, cl.End(ctx, s, "expired", t0.Add(time.Hour)))
	recent, err = cl.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "goodbye", recent[0].EndReason)
}

func TestCallLogRecentOrder(t *testing.T) {
	ctx := context.Background()
	cl := NewCallLog(testDB(t))
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, cl.Start(ctx, &domain.Session{
			ID:        id,
			Mode:      domain.ModeChat,
			Language:  domain.LanguageEnglish,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}
	recent, err := cl.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].SessionID)
	assert.Equal(t, "b", recent[1].SessionID)
}

func TestCallLogExpire(t *testing.T) {
	ctx := context.Background()
	cl := NewCallLog(testDB(t))
	s := &domain.Session{ID: "idle", Mode: domain.ModeVoice, Language: domain.LanguageEnglish,
		State: domain.StateMainMenu, CreatedAt: t0}
	require.NoError(t, cl.Start(ctx, s))

	require.NoError(t, cl.Expire(ctx, nil, t0.Add(time.Minute)))
	require.NoError(t, cl.Expire(ctx, []string{"idle", "unknown"}, t0.Add(30*time.Minute)))
	recent, err := cl.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "expired", recent[0].EndReason)
	require.NotNil(t, recent[0].EndedAt)
}
