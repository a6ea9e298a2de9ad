package booking

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day, the unit of inventory
// =============================================================================

// Date is a calendar day in UTC. All inventory is tracked at day granularity;
// check-in/check-out times within the day are a front-desk concern, not an
// inventory one.
type Date struct {
	t time.Time
}

// NewDate constructs a Date for year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Today returns the current UTC calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// DaysBetween returns the number of days from a to b (negative if b < a).
func DaysBetween(a, b Date) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// =============================================================================
// STAY RANGE - Half-open [CheckIn, CheckOut) interval
// =============================================================================

// StayRange is the half-open interval [CheckIn, CheckOut). The check-out day
// itself is not occupied, which is what permits same-day turnover: a guest
// leaving on day D does not block a new arrival on day D.
type StayRange struct {
	CheckIn  Date
	CheckOut Date
}

// NewStayRange validates and constructs a stay range.
// An empty or inverted range is rejected.
func NewStayRange(checkIn, checkOut Date) (StayRange, error) {
	if !checkIn.Before(checkOut) {
		return StayRange{}, &InvalidRangeError{CheckIn: checkIn, CheckOut: checkOut}
	}
	return StayRange{CheckIn: checkIn, CheckOut: checkOut}, nil
}

// Nights returns the number of occupied nights.
func (s StayRange) Nights() int {
	return DaysBetween(s.CheckIn, s.CheckOut)
}

// Contains reports whether the stay occupies the given night.
func (s StayRange) Contains(d Date) bool {
	return d.AfterOrEqual(s.CheckIn) && d.Before(s.CheckOut)
}

// Overlaps reports whether two stays share at least one night.
// Half-open semantics: [1,4) and [4,7) do not overlap.
func (s StayRange) Overlaps(other StayRange) bool {
	return s.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(s.CheckOut)
}

// Dates returns the occupied nights in order (check-out day excluded).
func (s StayRange) Dates() []Date {
	dates := make([]Date, 0, s.Nights())
	for d := s.CheckIn; d.Before(s.CheckOut); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

func (s StayRange) String() string {
	return "[" + s.CheckIn.String() + ", " + s.CheckOut.String() + ")"
}

// =============================================================================
// DATE RANGE - Closed [From, To] interval for reporting queries
// =============================================================================

// DateRange is a closed interval of days, used by reports and calendar reads.
// Unlike StayRange, To is included.
type DateRange struct {
	From Date
	To   Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.From) && d.BeforeOrEqual(r.To)
}

// Days returns the number of days in the range, inclusive.
func (r DateRange) Days() int {
	return DaysBetween(r.From, r.To) + 1
}

// Dates returns every day in the range in order.
func (r DateRange) Dates() []Date {
	var dates []Date
	for d := r.From; d.BeforeOrEqual(r.To); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}
