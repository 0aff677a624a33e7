package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/frontdesk/internal/domain"
)

// ErrNotFound is returned when no booking matches.
var ErrNotFound = errors.New("booking not found")

// Booking statuses. New bookings start confirmed.
const (
	StatusConfirmed = "confirmed"
	StatusShot      = "shot"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var statuses = []string{StatusConfirmed, StatusShot, StatusReady, StatusDelivered, StatusCancelled}

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s string) bool {
	for _, x := range statuses {
		if s == x {
			return true
		}
	}
	return false
}

// Booking is a persisted booking row.
type Booking struct {
	domain.BookingEvent
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingStore is the durable sink for completed bookings.
type BookingStore struct {
	db *DB
}

// NewBookingStore creates a booking store using the given database.
func NewBookingStore(db *DB) *BookingStore {
	return &BookingStore{db: db}
}

// Save inserts a booking. Saving the same booking ID twice is a no-op; the
// returned bool reports whether a row was written.
func (b *BookingStore) Save(ctx context.Context, ev domain.BookingEvent) (bool, error) {
	if ev.BookingID == "" {
		return false, fmt.Errorf("saving booking: empty id")
	}
	completed := ev.CompletedAt
	if completed.IsZero() {
		completed = time.Now()
	}
	res, err := b.db.sql.ExecContext(ctx,
		`INSERT OR IGNORE INTO bookings
		   (id, session_id, caller_address, language, name, service_id, service_name,
		    date, time, contact_number, status, completed_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.BookingID, ev.SessionID, ev.CallerAddress, string(ev.Language),
		ev.Slots.Name, ev.Slots.ServiceID, ev.ServiceName,
		ev.Slots.Date, ev.Slots.Time, ev.Slots.ContactNumber,
		StatusConfirmed, formatTime(completed), formatTime(completed),
	)
	if err != nil {
		return false, fmt.Errorf("saving booking %s: %w", ev.BookingID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		b.db.log.Debug().Str("booking", ev.BookingID).Msg("booking already stored")
		return false, nil
	}
	b.db.log.Info().Str("booking", ev.BookingID).Str("service", ev.Slots.ServiceID).Msg("booking stored")
	return true, nil
}

const bookingColumns = `id, session_id, caller_address, language, name, service_id, service_name,
	date, time, contact_number, status, completed_at, updated_at`

// Get returns the booking with the exact ID.
func (b *BookingStore) Get(ctx context.Context, id string) (*Booking, error) {
	row := b.db.sql.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	bk, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return bk, err
}

// FindByReference resolves what a caller reads out as their order number:
// the full booking ID with or without the "BK" prefix, or its trailing
// digits. Of several suffix matches the newest wins.
func (b *BookingStore) FindByReference(ctx context.Context, ref string) (*Booking, error) {
	ref = strings.ToUpper(strings.Join(strings.Fields(ref), ""))
	if len(ref) < 4 {
		return nil, ErrNotFound
	}
	if !strings.HasPrefix(ref, "BK") {
		if bk, err := b.Get(ctx, "BK"+ref); err == nil {
			return bk, nil
		}
	}
	if bk, err := b.Get(ctx, ref); err == nil {
		return bk, nil
	}

	row := b.db.sql.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE substr(id, -length(?)) = ?
		 ORDER BY completed_at DESC LIMIT 1`, ref, ref)
	bk, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return bk, err
}

// Track implements the dialog tracker over stored bookings.
func (b *BookingStore) Track(ctx context.Context, orderNumber string) (domain.TrackingResult, error) {
	res := domain.TrackingResult{OrderNumber: orderNumber}
	bk, err := b.FindByReference(ctx, orderNumber)
	if errors.Is(err, ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.Found = true
	res.BookingID = bk.BookingID
	res.Status = bk.Status
	res.ServiceID = bk.Slots.ServiceID
	res.Date = bk.Slots.Date
	return res, nil
}

// SetStatus moves a booking through its lifecycle.
func (b *BookingStore) SetStatus(ctx context.Context, id, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("unknown booking status %q", status)
	}
	res, err := b.db.sql.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating booking %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the newest bookings first. Limit of 0 defaults to 50.
func (b *BookingStore) List(ctx context.Context, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := b.db.sql.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY completed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *bk)
	}
	return out, rows.Err()
}

// Count returns the number of stored bookings.
func (b *BookingStore) Count(ctx context.Context) (int, error) {
	var n int
	err := b.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (*Booking, error) {
	var bk Booking
	var lang, completed, updated string
	err := s.Scan(
		&bk.BookingID, &bk.SessionID, &bk.CallerAddress, &lang,
		&bk.Slots.Name, &bk.Slots.ServiceID, &bk.ServiceName,
		&bk.Slots.Date, &bk.Slots.Time, &bk.Slots.ContactNumber,
		&bk.Status, &completed, &updated,
	)
	if err != nil {
		return nil, err
	}
	bk.Language = domain.Language(lang)
	bk.CompletedAt = parseTime(completed)
	bk.UpdatedAt = parseTime(updated)
	return &bk, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts stored timestamps and SQLite's datetime('now') format.
func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.DateTime, s)
	return t
}
