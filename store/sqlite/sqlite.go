/*
Package sqlite provides a SQLite-backed implementation of booking.TxStore.

PURPOSE:
  Implements the booking Store using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  calendar_days: Per-(room, date) inventory state. PRIMARY KEY (room_id, date)
                 means the storage layer itself cannot hold two states for
                 one room-night.
  reservations:  Never deleted; cancellation is a status update.
  properties, rooms, rate_plans: Referenced catalog records.

CONCURRENCY:
  Uses sync.RWMutex for in-process thread-safety; the Ledger's per-room
  locks serialize the check-resolve-mark sequence above this layer. WAL mode
  lets readers proceed while a writer commits.

TRANSACTIONS:
  WithTx wraps fn in a BEGIN/COMMIT pair with rollback on error, so a
  reservation insert and its calendar marks land together or not at all.

USAGE:
  store, err := sqlite.New("./data/bookings.db")   // or ":memory:"
  ledger := booking.NewLedger(store)

SEE ALSO:
  - booking/store.go: Interface definitions
  - booking/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/harborstay/reservation-engine/booking"
)

// Store implements booking.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT,
		country TEXT,
		currency TEXT NOT NULL DEFAULT 'USD',
		pricing_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		name TEXT NOT NULL,
		room_type TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 2,
		base_rate_cents INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		floor INTEGER DEFAULT 0,
		size INTEGER DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_property ON rooms(property_id);

	CREATE TABLE IF NOT EXISTS rate_plans (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		room_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		base_rate_cents INTEGER NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		rate_type TEXT NOT NULL DEFAULT 'nightly',
		season_type TEXT NOT NULL DEFAULT 'standard',
		valid_from TEXT NOT NULL,
		valid_to TEXT NOT NULL,
		advance_booking_days INTEGER DEFAULT 0,
		cancellation_policy TEXT NOT NULL DEFAULT 'flexible',
		restrictions_json TEXT,
		discounts_json TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_plans_property ON rate_plans(property_id);
	CREATE INDEX IF NOT EXISTS idx_rate_plans_room ON rate_plans(room_id) WHERE room_id != '';

	-- Reservations are never deleted: cancellation is a status transition
	-- preserving the audit history.
	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		room_id TEXT NOT NULL,
		rate_plan_id TEXT NOT NULL DEFAULT '',
		guest_name TEXT NOT NULL,
		guest_email TEXT NOT NULL,
		guest_phone TEXT,
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		adults INTEGER NOT NULL,
		children INTEGER NOT NULL DEFAULT 0,
		total_cents INTEGER NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		booked_at TEXT NOT NULL,
		cancelled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reservations_property ON reservations(property_id);
	CREATE INDEX IF NOT EXISTS idx_reservations_room_checkin ON reservations(room_id, check_in);
	CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status);

	-- CRITICAL: one state per room-night. The primary key makes a second
	-- BOOKED row for the same (room, date) impossible at the storage layer.
	CREATE TABLE IF NOT EXISTS calendar_days (
		room_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		reservation_id TEXT NOT NULL DEFAULT '',
		rate_cents INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (room_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_calendar_days_reservation
		ON calendar_days(reservation_id) WHERE reservation_id != '';
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data. Demo/dev only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, table := range []string{"calendar_days", "reservations", "rate_plans", "rooms", "properties"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(booking.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txView{db: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// txView routes Store calls through an open *sql.Tx. The parent mutex is
// already held for the duration of the transaction.
type txView struct {
	db dbtx
}

func (v *txView) LoadCalendar(ctx context.Context, roomID booking.RoomID, rng booking.DateRange) ([]booking.CalendarDay, error) {
	return loadCalendar(ctx, v.db, roomID, rng)
}
func (v *txView) PutCalendarDays(ctx context.Context, days []booking.CalendarDay) error {
	return putCalendarDays(ctx, v.db, days)
}
func (v *txView) DeleteCalendarDays(ctx context.Context, roomID booking.RoomID, dates []booking.Date) error {
	return deleteCalendarDays(ctx, v.db, roomID, dates)
}
func (v *txView) InsertReservation(ctx context.Context, r booking.Reservation) error {
	return insertReservation(ctx, v.db, r)
}
func (v *txView) UpdateReservation(ctx context.Context, r booking.Reservation) error {
	return updateReservation(ctx, v.db, r)
}
func (v *txView) GetReservation(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	return getReservation(ctx, v.db, id)
}
func (v *txView) ListReservations(ctx context.Context, propertyID booking.PropertyID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	return listReservations(ctx, v.db, propertyID, filter)
}
func (v *txView) GetProperty(ctx context.Context, id booking.PropertyID) (*booking.Property, error) {
	return getProperty(ctx, v.db, id)
}
func (v *txView) ListProperties(ctx context.Context) ([]booking.Property, error) {
	return listProperties(ctx, v.db)
}
func (v *txView) SaveProperty(ctx context.Context, p booking.Property) error {
	return saveProperty(ctx, v.db, p)
}
func (v *txView) DeleteProperty(ctx context.Context, id booking.PropertyID) error {
	return deleteProperty(ctx, v.db, id)
}
func (v *txView) GetRoom(ctx context.Context, id booking.RoomID) (*booking.Room, error) {
	return getRoom(ctx, v.db, id)
}
func (v *txView) ListRooms(ctx context.Context, propertyID booking.PropertyID) ([]booking.Room, error) {
	return listRooms(ctx, v.db, propertyID)
}
func (v *txView) SaveRoom(ctx context.Context, r booking.Room) error {
	return saveRoom(ctx, v.db, r)
}
func (v *txView) DeleteRoom(ctx context.Context, id booking.RoomID) error {
	return deleteRoom(ctx, v.db, id)
}
func (v *txView) GetRatePlan(ctx context.Context, id booking.RatePlanID) (*booking.RatePlan, error) {
	return getRatePlan(ctx, v.db, id)
}
func (v *txView) ListRatePlans(ctx context.Context, propertyID booking.PropertyID, roomID booking.RoomID) ([]booking.RatePlan, error) {
	return listRatePlans(ctx, v.db, propertyID, roomID)
}
func (v *txView) SaveRatePlan(ctx context.Context, p booking.RatePlan) error {
	return saveRatePlan(ctx, v.db, p)
}
func (v *txView) DeleteRatePlan(ctx context.Context, id booking.RatePlanID) error {
	return deleteRatePlan(ctx, v.db, id)
}

// =============================================================================
// CALENDAR DAYS
// =============================================================================

func (s *Store) LoadCalendar(ctx context.Context, roomID booking.RoomID, rng booking.DateRange) ([]booking.CalendarDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadCalendar(ctx, s.db, roomID, rng)
}

func loadCalendar(ctx context.Context, db dbtx, roomID booking.RoomID, rng booking.DateRange) ([]booking.CalendarDay, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT room_id, date, status, reservation_id, rate_cents
		FROM calendar_days
		WHERE room_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, roomID, rng.From.String(), rng.To.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}
	defer rows.Close()

	var days []booking.CalendarDay
	for rows.Next() {
		var day booking.CalendarDay
		var dateStr string
		var cents int64
		if err := rows.Scan(&day.RoomID, &dateStr, &day.Status, &day.ReservationID, &cents); err != nil {
			return nil, err
		}
		if day.Date, err = booking.ParseDate(dateStr); err != nil {
			return nil, err
		}
		day.Rate = booking.Cents(cents)
		days = append(days, day)
	}
	return days, rows.Err()
}

func (s *Store) PutCalendarDays(ctx context.Context, days []booking.CalendarDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putCalendarDays(ctx, s.db, days)
}

func putCalendarDays(ctx context.Context, db dbtx, days []booking.CalendarDay) error {
	for _, day := range days {
		_, err := db.ExecContext(ctx, `
			INSERT INTO calendar_days (room_id, date, status, reservation_id, rate_cents)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (room_id, date) DO UPDATE SET
				status = excluded.status,
				reservation_id = excluded.reservation_id,
				rate_cents = excluded.rate_cents
		`, day.RoomID, day.Date.String(), day.Status, day.ReservationID, int64(day.Rate))
		if err != nil {
			return fmt.Errorf("failed to put calendar day %s/%s: %w", day.RoomID, day.Date, err)
		}
	}
	return nil
}

func (s *Store) DeleteCalendarDays(ctx context.Context, roomID booking.RoomID, dates []booking.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteCalendarDays(ctx, s.db, roomID, dates)
}

func deleteCalendarDays(ctx context.Context, db dbtx, roomID booking.RoomID, dates []booking.Date) error {
	for _, d := range dates {
		if _, err := db.ExecContext(ctx,
			`DELETE FROM calendar_days WHERE room_id = ? AND date = ?`,
			roomID, d.String()); err != nil {
			return fmt.Errorf("failed to delete calendar day %s/%s: %w", roomID, d, err)
		}
	}
	return nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) InsertReservation(ctx context.Context, r booking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertReservation(ctx, s.db, r)
}

func insertReservation(ctx context.Context, db dbtx, r booking.Reservation) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, `
		INSERT INTO reservations
		(id, property_id, room_id, rate_plan_id, guest_name, guest_email, guest_phone,
		 check_in, check_out, adults, children, total_cents, currency,
		 status, payment_status, booked_at, cancelled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.PropertyID, r.RoomID, r.RatePlanID,
		r.Guest.Name, r.Guest.Email, r.Guest.Phone,
		r.Stay.CheckIn.String(), r.Stay.CheckOut.String(),
		r.Adults, r.Children, int64(r.TotalAmount), r.Currency,
		r.Status, r.PaymentStatus, r.BookedAt.String(), nullDate(r.CancelledAt),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

func (s *Store) UpdateReservation(ctx context.Context, r booking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateReservation(ctx, s.db, r)
}

func updateReservation(ctx context.Context, db dbtx, r booking.Reservation) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations SET
			rate_plan_id = ?, guest_name = ?, guest_email = ?, guest_phone = ?,
			check_in = ?, check_out = ?, adults = ?, children = ?,
			total_cents = ?, currency = ?, status = ?, payment_status = ?,
			cancelled_at = ?, updated_at = ?
		WHERE id = ?
	`,
		r.RatePlanID, r.Guest.Name, r.Guest.Email, r.Guest.Phone,
		r.Stay.CheckIn.String(), r.Stay.CheckOut.String(), r.Adults, r.Children,
		int64(r.TotalAmount), r.Currency, r.Status, r.PaymentStatus,
		nullDate(r.CancelledAt), time.Now().UTC().Format(time.RFC3339),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &booking.NotFoundError{Kind: "reservation", ID: string(r.ID)}
	}
	return nil
}

const reservationColumns = `
	id, property_id, room_id, rate_plan_id, guest_name, guest_email, guest_phone,
	check_in, check_out, adults, children, total_cents, currency,
	status, payment_status, booked_at, cancelled_at`

func (s *Store) GetReservation(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getReservation(ctx, s.db, id)
}

func getReservation(ctx context.Context, db dbtx, id booking.ReservationID) (*booking.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanReservation(rows)
}

func (s *Store) ListReservations(ctx context.Context, propertyID booking.PropertyID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listReservations(ctx, s.db, propertyID, filter)
}

func listReservations(ctx context.Context, db dbtx, propertyID booking.PropertyID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	// Status/room narrowing happens in SQL; the date-overlap filter is applied
	// in Go via ReservationFilter.Match to keep the half-open semantics in one
	// place.
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE property_id = ?`
	args := []any{propertyID}
	if filter.RoomID != "" {
		query += ` AND room_id = ?`
		args = append(args, filter.RoomID)
	}
	if len(filter.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(filter.Statuses)-1) + `)`
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	query += ` ORDER BY check_in ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var result []booking.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		if filter.Match(*r) {
			result = append(result, *r)
		}
	}
	return result, rows.Err()
}

func scanReservation(rows *sql.Rows) (*booking.Reservation, error) {
	var r booking.Reservation
	var checkIn, checkOut, bookedAt string
	var cancelledAt, phone sql.NullString
	var cents int64

	err := rows.Scan(
		&r.ID, &r.PropertyID, &r.RoomID, &r.RatePlanID,
		&r.Guest.Name, &r.Guest.Email, &phone,
		&checkIn, &checkOut, &r.Adults, &r.Children, &cents, &r.Currency,
		&r.Status, &r.PaymentStatus, &bookedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}
	r.Guest.Phone = phone.String
	r.TotalAmount = booking.Cents(cents)

	if r.Stay.CheckIn, err = booking.ParseDate(checkIn); err != nil {
		return nil, err
	}
	if r.Stay.CheckOut, err = booking.ParseDate(checkOut); err != nil {
		return nil, err
	}
	if r.BookedAt, err = booking.ParseDate(bookedAt); err != nil {
		return nil, err
	}
	if cancelledAt.Valid && cancelledAt.String != "" {
		if r.CancelledAt, err = booking.ParseDate(cancelledAt.String); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// =============================================================================
// PROPERTIES
// =============================================================================

type pricingJSON struct {
	WeekendDays          []int `json:"weekend_days"`
	EarlyBirdLeadDays    int   `json:"early_bird_lead_days"`
	LastMinuteWindowDays int   `json:"last_minute_window_days"`
	ExtendedStayNights   int   `json:"extended_stay_nights"`
}

func encodePricing(c booking.PricingConfig) string {
	pj := pricingJSON{
		EarlyBirdLeadDays:    c.EarlyBirdLeadDays,
		LastMinuteWindowDays: c.LastMinuteWindowDays,
		ExtendedStayNights:   c.ExtendedStayNights,
	}
	for _, wd := range c.WeekendDays {
		pj.WeekendDays = append(pj.WeekendDays, int(wd))
	}
	b, _ := json.Marshal(pj)
	return string(b)
}

func decodePricing(s string) booking.PricingConfig {
	var pj pricingJSON
	if s == "" || json.Unmarshal([]byte(s), &pj) != nil {
		return booking.PricingConfig{}
	}
	cfg := booking.PricingConfig{
		EarlyBirdLeadDays:    pj.EarlyBirdLeadDays,
		LastMinuteWindowDays: pj.LastMinuteWindowDays,
		ExtendedStayNights:   pj.ExtendedStayNights,
	}
	for _, wd := range pj.WeekendDays {
		cfg.WeekendDays = append(cfg.WeekendDays, time.Weekday(wd))
	}
	return cfg
}

func (s *Store) GetProperty(ctx context.Context, id booking.PropertyID) (*booking.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProperty(ctx, s.db, id)
}

func getProperty(ctx context.Context, db dbtx, id booking.PropertyID) (*booking.Property, error) {
	var p booking.Property
	var pricing sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, city, country, currency, pricing_json FROM properties WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.City, &p.Country, &p.Currency, &pricing)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Pricing = decodePricing(pricing.String)
	return &p, nil
}

func (s *Store) ListProperties(ctx context.Context) ([]booking.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listProperties(ctx, s.db)
}

func listProperties(ctx context.Context, db dbtx) ([]booking.Property, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, city, country, currency, pricing_json FROM properties ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []booking.Property
	for rows.Next() {
		var p booking.Property
		var pricing sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.City, &p.Country, &p.Currency, &pricing); err != nil {
			return nil, err
		}
		p.Pricing = decodePricing(pricing.String)
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) SaveProperty(ctx context.Context, p booking.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveProperty(ctx, s.db, p)
}

func saveProperty(ctx context.Context, db dbtx, p booking.Property) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO properties (id, name, city, country, currency, pricing_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, city = excluded.city, country = excluded.country,
			currency = excluded.currency, pricing_json = excluded.pricing_json
	`, p.ID, p.Name, p.City, p.Country, p.Currency, encodePricing(p.Pricing),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}
	return nil
}

func (s *Store) DeleteProperty(ctx context.Context, id booking.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteProperty(ctx, s.db, id)
}

func deleteProperty(ctx context.Context, db dbtx, id booking.PropertyID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	return err
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Store) GetRoom(ctx context.Context, id booking.RoomID) (*booking.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRoom(ctx, s.db, id)
}

func getRoom(ctx context.Context, db dbtx, id booking.RoomID) (*booking.Room, error) {
	var r booking.Room
	var cents int64
	err := db.QueryRowContext(ctx, `
		SELECT id, property_id, name, room_type, capacity, base_rate_cents, currency, floor, size
		FROM rooms WHERE id = ?`, id).
		Scan(&r.ID, &r.PropertyID, &r.Name, &r.Type, &r.Capacity, &cents, &r.Currency, &r.Floor, &r.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.BaseRate = booking.Cents(cents)
	return &r, nil
}

func (s *Store) ListRooms(ctx context.Context, propertyID booking.PropertyID) ([]booking.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRooms(ctx, s.db, propertyID)
}

func listRooms(ctx context.Context, db dbtx, propertyID booking.PropertyID) ([]booking.Room, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, property_id, name, room_type, capacity, base_rate_cents, currency, floor, size
		FROM rooms WHERE property_id = ? ORDER BY id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []booking.Room
	for rows.Next() {
		var r booking.Room
		var cents int64
		if err := rows.Scan(&r.ID, &r.PropertyID, &r.Name, &r.Type, &r.Capacity, &cents, &r.Currency, &r.Floor, &r.Size); err != nil {
			return nil, err
		}
		r.BaseRate = booking.Cents(cents)
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) SaveRoom(ctx context.Context, r booking.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRoom(ctx, s.db, r)
}

func saveRoom(ctx context.Context, db dbtx, r booking.Room) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO rooms (id, property_id, name, room_type, capacity, base_rate_cents, currency, floor, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, room_type = excluded.room_type,
			capacity = excluded.capacity, base_rate_cents = excluded.base_rate_cents,
			currency = excluded.currency, floor = excluded.floor, size = excluded.size
	`, r.ID, r.PropertyID, r.Name, r.Type, r.Capacity, int64(r.BaseRate), r.Currency,
		r.Floor, r.Size, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id booking.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRoom(ctx, s.db, id)
}

func deleteRoom(ctx context.Context, db dbtx, id booking.RoomID) error {
	// Cascade to the room's calendar entries.
	if _, err := db.ExecContext(ctx, `DELETE FROM calendar_days WHERE room_id = ?`, id); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	return err
}

// =============================================================================
// RATE PLANS
// =============================================================================

type restrictionsJSON struct {
	MinimumStay      int      `json:"minimum_stay"`
	MaximumStay      int      `json:"maximum_stay"`
	WeekendSurcharge int64    `json:"weekend_surcharge_cents"`
	MinimumOccupancy int      `json:"minimum_occupancy"`
	MaximumOccupancy int      `json:"maximum_occupancy"`
	BlackoutDates    []string `json:"blackout_dates"`
}

type discountsJSON struct {
	EarlyBird    string `json:"early_bird"`
	LastMinute   string `json:"last_minute"`
	ExtendedStay string `json:"extended_stay"`
}

func encodeRestrictions(r booking.Restrictions) string {
	rj := restrictionsJSON{
		MinimumStay:      r.MinimumStay,
		MaximumStay:      r.MaximumStay,
		WeekendSurcharge: int64(r.WeekendSurcharge),
		MinimumOccupancy: r.MinimumOccupancy,
		MaximumOccupancy: r.MaximumOccupancy,
	}
	for _, d := range r.BlackoutDates {
		rj.BlackoutDates = append(rj.BlackoutDates, d.String())
	}
	b, _ := json.Marshal(rj)
	return string(b)
}

func decodeRestrictions(s string) (booking.Restrictions, error) {
	var rj restrictionsJSON
	if s == "" {
		return booking.Restrictions{}, nil
	}
	if err := json.Unmarshal([]byte(s), &rj); err != nil {
		return booking.Restrictions{}, err
	}
	r := booking.Restrictions{
		MinimumStay:      rj.MinimumStay,
		MaximumStay:      rj.MaximumStay,
		WeekendSurcharge: booking.Cents(rj.WeekendSurcharge),
		MinimumOccupancy: rj.MinimumOccupancy,
		MaximumOccupancy: rj.MaximumOccupancy,
	}
	for _, ds := range rj.BlackoutDates {
		d, err := booking.ParseDate(ds)
		if err != nil {
			return booking.Restrictions{}, err
		}
		r.BlackoutDates = append(r.BlackoutDates, d)
	}
	return r, nil
}

func encodeDiscounts(d booking.Discounts) string {
	b, _ := json.Marshal(discountsJSON{
		EarlyBird:    d.EarlyBird.String(),
		LastMinute:   d.LastMinute.String(),
		ExtendedStay: d.ExtendedStay.String(),
	})
	return string(b)
}

func decodeDiscounts(s string) (booking.Discounts, error) {
	var dj discountsJSON
	if s == "" {
		return booking.Discounts{}, nil
	}
	if err := json.Unmarshal([]byte(s), &dj); err != nil {
		return booking.Discounts{}, err
	}
	var d booking.Discounts
	var err error
	if d.EarlyBird, err = parseDecimal(dj.EarlyBird); err != nil {
		return d, err
	}
	if d.LastMinute, err = parseDecimal(dj.LastMinute); err != nil {
		return d, err
	}
	if d.ExtendedStay, err = parseDecimal(dj.ExtendedStay); err != nil {
		return d, err
	}
	return d, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

const ratePlanColumns = `
	id, property_id, room_id, name, base_rate_cents, currency, rate_type, season_type,
	valid_from, valid_to, advance_booking_days, cancellation_policy,
	restrictions_json, discounts_json, is_active`

func (s *Store) GetRatePlan(ctx context.Context, id booking.RatePlanID) (*booking.RatePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRatePlan(ctx, s.db, id)
}

func getRatePlan(ctx context.Context, db dbtx, id booking.RatePlanID) (*booking.RatePlan, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+ratePlanColumns+` FROM rate_plans WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRatePlan(rows)
}

func (s *Store) ListRatePlans(ctx context.Context, propertyID booking.PropertyID, roomID booking.RoomID) ([]booking.RatePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRatePlans(ctx, s.db, propertyID, roomID)
}

func listRatePlans(ctx context.Context, db dbtx, propertyID booking.PropertyID, roomID booking.RoomID) ([]booking.RatePlan, error) {
	query := `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE property_id = ?`
	args := []any{propertyID}
	if roomID != "" {
		query += ` AND (room_id = '' OR room_id = ?)`
		args = append(args, roomID)
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []booking.RatePlan
	for rows.Next() {
		p, err := scanRatePlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanRatePlan(rows *sql.Rows) (*booking.RatePlan, error) {
	var p booking.RatePlan
	var cents int64
	var validFrom, validTo string
	var restrictions, discounts sql.NullString

	err := rows.Scan(
		&p.ID, &p.PropertyID, &p.RoomID, &p.Name, &cents, &p.Currency,
		&p.RateType, &p.SeasonType, &validFrom, &validTo,
		&p.AdvanceBookingDays, &p.Cancellation, &restrictions, &discounts, &p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	p.BaseRate = booking.Cents(cents)
	if p.ValidFrom, err = booking.ParseDate(validFrom); err != nil {
		return nil, err
	}
	if p.ValidTo, err = booking.ParseDate(validTo); err != nil {
		return nil, err
	}
	if p.Restrictions, err = decodeRestrictions(restrictions.String); err != nil {
		return nil, err
	}
	if p.Discounts, err = decodeDiscounts(discounts.String); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveRatePlan(ctx context.Context, p booking.RatePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRatePlan(ctx, s.db, p)
}

func saveRatePlan(ctx context.Context, db dbtx, p booking.RatePlan) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO rate_plans
		(id, property_id, room_id, name, base_rate_cents, currency, rate_type, season_type,
		 valid_from, valid_to, advance_booking_days, cancellation_policy,
		 restrictions_json, discounts_json, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, base_rate_cents = excluded.base_rate_cents,
			currency = excluded.currency, rate_type = excluded.rate_type,
			season_type = excluded.season_type, valid_from = excluded.valid_from,
			valid_to = excluded.valid_to, advance_booking_days = excluded.advance_booking_days,
			cancellation_policy = excluded.cancellation_policy,
			restrictions_json = excluded.restrictions_json,
			discounts_json = excluded.discounts_json, is_active = excluded.is_active
	`, p.ID, p.PropertyID, p.RoomID, p.Name, int64(p.BaseRate), p.Currency,
		p.RateType, p.SeasonType, p.ValidFrom.String(), p.ValidTo.String(),
		p.AdvanceBookingDays, p.Cancellation,
		encodeRestrictions(p.Restrictions), encodeDiscounts(p.Discounts), p.IsActive,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save rate plan: %w", err)
	}
	return nil
}

func (s *Store) DeleteRatePlan(ctx context.Context, id booking.RatePlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRatePlan(ctx, s.db, id)
}

func deleteRatePlan(ctx context.Context, db dbtx, id booking.RatePlanID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM rate_plans WHERE id = ?`, id)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullDate(d booking.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
