// Package store provides booking.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/harborstay/reservation-engine/booking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type dayKey struct {
	RoomID booking.RoomID
	Date   string
}

type Memory struct {
	mu           sync.RWMutex
	properties   map[booking.PropertyID]booking.Property
	rooms        map[booking.RoomID]booking.Room
	ratePlans    map[booking.RatePlanID]booking.RatePlan
	reservations map[booking.ReservationID]booking.Reservation
	calendar     map[dayKey]booking.CalendarDay
}

func NewMemory() *Memory {
	return &Memory{
		properties:   make(map[booking.PropertyID]booking.Property),
		rooms:        make(map[booking.RoomID]booking.Room),
		ratePlans:    make(map[booking.RatePlanID]booking.RatePlan),
		reservations: make(map[booking.ReservationID]booking.Reservation),
		calendar:     make(map[dayKey]booking.CalendarDay),
	}
}

// Reset drops all stored data. Used when loading demo scenarios.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties = make(map[booking.PropertyID]booking.Property)
	m.rooms = make(map[booking.RoomID]booking.Room)
	m.ratePlans = make(map[booking.RatePlanID]booking.RatePlan)
	m.reservations = make(map[booking.ReservationID]booking.Reservation)
	m.calendar = make(map[dayKey]booking.CalendarDay)
	return nil
}

// =============================================================================
// CALENDAR DAYS
// =============================================================================

func (m *Memory) LoadCalendar(_ context.Context, roomID booking.RoomID, rng booking.DateRange) ([]booking.CalendarDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadCalendarLocked(roomID, rng), nil
}

func (m *Memory) loadCalendarLocked(roomID booking.RoomID, rng booking.DateRange) []booking.CalendarDay {
	var days []booking.CalendarDay
	for _, d := range rng.Dates() {
		if day, ok := m.calendar[dayKey{RoomID: roomID, Date: d.String()}]; ok {
			days = append(days, day)
		}
	}
	return days
}

func (m *Memory) PutCalendarDays(_ context.Context, days []booking.CalendarDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalendarDaysLocked(days)
	return nil
}

func (m *Memory) putCalendarDaysLocked(days []booking.CalendarDay) {
	for _, day := range days {
		m.calendar[dayKey{RoomID: day.RoomID, Date: day.Date.String()}] = day
	}
}

func (m *Memory) DeleteCalendarDays(_ context.Context, roomID booking.RoomID, dates []booking.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalendarDaysLocked(roomID, dates)
	return nil
}

func (m *Memory) deleteCalendarDaysLocked(roomID booking.RoomID, dates []booking.Date) {
	for _, d := range dates {
		delete(m.calendar, dayKey{RoomID: roomID, Date: d.String()})
	}
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (m *Memory) InsertReservation(_ context.Context, r booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertReservationLocked(r)
}

func (m *Memory) insertReservationLocked(r booking.Reservation) error {
	if _, exists := m.reservations[r.ID]; exists {
		return &booking.ConflictError{RoomID: r.RoomID, Date: r.Stay.CheckIn, OccupiedBy: r.ID}
	}
	m.reservations[r.ID] = r
	return nil
}

func (m *Memory) UpdateReservation(_ context.Context, r booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateReservationLocked(r)
}

func (m *Memory) updateReservationLocked(r booking.Reservation) error {
	if _, exists := m.reservations[r.ID]; !exists {
		return &booking.NotFoundError{Kind: "reservation", ID: string(r.ID)}
	}
	m.reservations[r.ID] = r
	return nil
}

func (m *Memory) GetReservation(_ context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.reservations[id]; ok {
		copied := r
		return &copied, nil
	}
	return nil, nil
}

func (m *Memory) ListReservations(_ context.Context, propertyID booking.PropertyID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listReservationsLocked(propertyID, filter), nil
}

func (m *Memory) listReservationsLocked(propertyID booking.PropertyID, filter booking.ReservationFilter) []booking.Reservation {
	var result []booking.Reservation
	for _, r := range m.reservations {
		if r.PropertyID != propertyID || !filter.Match(r) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Stay.CheckIn.Equal(result[j].Stay.CheckIn) {
			return result[i].Stay.CheckIn.Before(result[j].Stay.CheckIn)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) GetProperty(_ context.Context, id booking.PropertyID) (*booking.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.properties[id]; ok {
		copied := p
		return &copied, nil
	}
	return nil, nil
}

func (m *Memory) ListProperties(_ context.Context) ([]booking.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]booking.Property, 0, len(m.properties))
	for _, p := range m.properties {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveProperty(_ context.Context, p booking.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = p
	return nil
}

func (m *Memory) DeleteProperty(_ context.Context, id booking.PropertyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.properties, id)
	return nil
}

func (m *Memory) GetRoom(_ context.Context, id booking.RoomID) (*booking.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rooms[id]; ok {
		copied := r
		return &copied, nil
	}
	return nil, nil
}

func (m *Memory) ListRooms(_ context.Context, propertyID booking.PropertyID) ([]booking.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []booking.Room
	for _, r := range m.rooms {
		if r.PropertyID == propertyID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveRoom(_ context.Context, r booking.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = r
	return nil
}

func (m *Memory) DeleteRoom(_ context.Context, id booking.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	// Cascade to the room's calendar entries.
	for k := range m.calendar {
		if k.RoomID == id {
			delete(m.calendar, k)
		}
	}
	return nil
}

func (m *Memory) GetRatePlan(_ context.Context, id booking.RatePlanID) (*booking.RatePlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.ratePlans[id]; ok {
		copied := p
		return &copied, nil
	}
	return nil, nil
}

func (m *Memory) ListRatePlans(_ context.Context, propertyID booking.PropertyID, roomID booking.RoomID) ([]booking.RatePlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []booking.RatePlan
	for _, p := range m.ratePlans {
		if p.PropertyID != propertyID {
			continue
		}
		if roomID != "" && p.RoomID != "" && p.RoomID != roomID {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveRatePlan(_ context.Context, p booking.RatePlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratePlans[p.ID] = p
	return nil
}

func (m *Memory) DeleteRatePlan(_ context.Context, id booking.RatePlanID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ratePlans, id)
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(booking.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	view := &txMemoryView{parent: tm}

	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	reservations map[booking.ReservationID]booking.Reservation
	calendar     map[dayKey]booking.CalendarDay
}

func (tm *TxMemory) snapshot() memorySnapshot {
	resCopy := make(map[booking.ReservationID]booking.Reservation, len(tm.reservations))
	for k, v := range tm.reservations {
		resCopy[k] = v
	}
	calCopy := make(map[dayKey]booking.CalendarDay, len(tm.calendar))
	for k, v := range tm.calendar {
		calCopy[k] = v
	}
	return memorySnapshot{reservations: resCopy, calendar: calCopy}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.reservations = s.reservations
	tm.calendar = s.calendar
}

// txMemoryView routes Store calls to the parent's locked helpers, since the
// parent mutex is already held for the duration of the transaction.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) LoadCalendar(_ context.Context, roomID booking.RoomID, rng booking.DateRange) ([]booking.CalendarDay, error) {
	return tv.parent.loadCalendarLocked(roomID, rng), nil
}

func (tv *txMemoryView) PutCalendarDays(_ context.Context, days []booking.CalendarDay) error {
	tv.parent.putCalendarDaysLocked(days)
	return nil
}

func (tv *txMemoryView) DeleteCalendarDays(_ context.Context, roomID booking.RoomID, dates []booking.Date) error {
	tv.parent.deleteCalendarDaysLocked(roomID, dates)
	return nil
}

func (tv *txMemoryView) InsertReservation(_ context.Context, r booking.Reservation) error {
	return tv.parent.insertReservationLocked(r)
}

func (tv *txMemoryView) UpdateReservation(_ context.Context, r booking.Reservation) error {
	return tv.parent.updateReservationLocked(r)
}

func (tv *txMemoryView) GetReservation(_ context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	if r, ok := tv.parent.reservations[id]; ok {
		copied := r
		return &copied, nil
	}
	return nil, nil
}

func (tv *txMemoryView) ListReservations(_ context.Context, propertyID booking.PropertyID, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	return tv.parent.listReservationsLocked(propertyID, filter), nil
}

func (tv *txMemoryView) GetProperty(_ context.Context, id booking.PropertyID) (*booking.Property, error) {
	if p, ok := tv.parent.properties[id]; ok {
		copied := p
		return &copied, nil
	}
	return nil, nil
}

func (tv *txMemoryView) ListProperties(_ context.Context) ([]booking.Property, error) {
	result := make([]booking.Property, 0, len(tv.parent.properties))
	for _, p := range tv.parent.properties {
		result = append(result, p)
	}
	return result, nil
}

func (tv *txMemoryView) SaveProperty(_ context.Context, p booking.Property) error {
	tv.parent.properties[p.ID] = p
	return nil
}

func (tv *txMemoryView) DeleteProperty(_ context.Context, id booking.PropertyID) error {
	delete(tv.parent.properties, id)
	return nil
}

func (tv *txMemoryView) GetRoom(_ context.Context, id booking.RoomID) (*booking.Room, error) {
	if r, ok := tv.parent.rooms[id]; ok {
		copied := r
		return &copied, nil
	}
	return nil, nil
}

func (tv *txMemoryView) ListRooms(_ context.Context, propertyID booking.PropertyID) ([]booking.Room, error) {
	var result []booking.Room
	for _, r := range tv.parent.rooms {
		if r.PropertyID == propertyID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (tv *txMemoryView) SaveRoom(_ context.Context, r booking.Room) error {
	tv.parent.rooms[r.ID] = r
	return nil
}

func (tv *txMemoryView) DeleteRoom(_ context.Context, id booking.RoomID) error {
	delete(tv.parent.rooms, id)
	for k := range tv.parent.calendar {
		if k.RoomID == id {
			delete(tv.parent.calendar, k)
		}
	}
	return nil
}

func (tv *txMemoryView) GetRatePlan(_ context.Context, id booking.RatePlanID) (*booking.RatePlan, error) {
	if p, ok := tv.parent.ratePlans[id]; ok {
		copied := p
		return &copied, nil
	}
	return nil, nil
}

func (tv *txMemoryView) ListRatePlans(ctx context.Context, propertyID booking.PropertyID, roomID booking.RoomID) ([]booking.RatePlan, error) {
	var result []booking.RatePlan
	for _, p := range tv.parent.ratePlans {
		if p.PropertyID != propertyID {
			continue
		}
		if roomID != "" && p.RoomID != "" && p.RoomID != roomID {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (tv *txMemoryView) SaveRatePlan(_ context.Context, p booking.RatePlan) error {
	tv.parent.ratePlans[p.ID] = p
	return nil
}

func (tv *txMemoryView) DeleteRatePlan(_ context.Context, id booking.RatePlanID) error {
	delete(tv.parent.ratePlans, id)
	return nil
}
