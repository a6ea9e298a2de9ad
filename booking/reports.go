/*
reports.go - Occupancy and revenue aggregation

PURPOSE:
  Derives read-only reporting metrics from Ledger state. Never mutates
  anything; the only error it produces is NotFound for an unknown property.

METRICS:
  Occupancy: booked room-nights over total room-nights for a date range.
  Revenue:   status-filtered reservation totals, pro-rated by the fraction
             of nights inside the range, plus ADR (revenue per booked night).

CONSISTENCY:
  Reads run concurrently with Ledger writes. Each metric reads one structure
  per pass (calendar for occupancy, reservations for revenue) rather than
  assuming both reflect the same instant.
*/
package booking

import "context"

// =============================================================================
// REPORTS
// =============================================================================

// Reports computes occupancy and revenue metrics over a Store.
type Reports struct {
	store Store
}

func NewReports(store Store) *Reports {
	return &Reports{store: store}
}

// OccupancyReport is the result of an occupancy query.
type OccupancyReport struct {
	TotalRoomNights  int
	BookedRoomNights int
	Rate             float64 // 0 when the property has no rooms
}

// Occupancy counts BOOKED room-nights across all rooms of the property over
// the closed date range.
func (r *Reports) Occupancy(ctx context.Context, propertyID PropertyID, rng DateRange) (*OccupancyReport, error) {
	if err := r.checkProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	rooms, err := r.store.ListRooms(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	report := &OccupancyReport{TotalRoomNights: len(rooms) * rng.Days()}
	for _, room := range rooms {
		days, err := r.store.LoadCalendar(ctx, room.ID, rng)
		if err != nil {
			return nil, err
		}
		for _, day := range days {
			if day.Status == DayBooked {
				report.BookedRoomNights++
			}
		}
	}
	if report.TotalRoomNights > 0 {
		report.Rate = float64(report.BookedRoomNights) / float64(report.TotalRoomNights)
	}
	return report, nil
}

// RevenueReport is the result of a revenue query.
type RevenueReport struct {
	TotalRevenue     Money
	AverageDailyRate Money // revenue per booked room-night in range; 0 if none
	BookingCount     int
}

// DefaultRevenueStatuses counts realized and committed stays: pending and
// cancelled reservations carry no revenue.
var DefaultRevenueStatuses = []ReservationStatus{
	StatusConfirmed, StatusCheckedIn, StatusCheckedOut,
}

// Revenue sums reservation totals for stays overlapping the range, filtered
// by status (DefaultRevenueStatuses when empty). Stays partially inside the
// range contribute only the nights that fall within it.
func (r *Reports) Revenue(ctx context.Context, propertyID PropertyID, rng DateRange, statuses []ReservationStatus) (*RevenueReport, error) {
	if err := r.checkProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		statuses = DefaultRevenueStatuses
	}

	reservations, err := r.store.ListReservations(ctx, propertyID, ReservationFilter{
		Statuses: statuses,
		Overlaps: &rng,
	})
	if err != nil {
		return nil, err
	}

	report := &RevenueReport{}
	bookedNights := 0
	for _, res := range reservations {
		nights := res.Stay.Dates()
		// Even per-night shares that sum exactly to the total, so pro-rating
		// never loses or invents cents.
		shares := res.TotalAmount.SplitEven(len(nights))
		for i, night := range nights {
			if rng.Contains(night) {
				report.TotalRevenue = report.TotalRevenue.Add(shares[i])
				bookedNights++
			}
		}
		report.BookingCount++
	}
	if bookedNights > 0 {
		report.AverageDailyRate = Money(int64(report.TotalRevenue) / int64(bookedNights))
	}
	return report, nil
}

func (r *Reports) checkProperty(ctx context.Context, propertyID PropertyID) error {
	prop, err := r.store.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	if prop == nil {
		return &NotFoundError{Kind: "property", ID: string(propertyID)}
	}
	return nil
}
