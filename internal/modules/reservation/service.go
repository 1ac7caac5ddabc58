package reservation

import (
	"time"

	"github.com/google/uuid"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/logger"
)

const DefaultEndTolerance = 60 * time.Second

type VehicleRepository interface {
	FindByID(dbc dbctx.Context, id uuid.UUID) (*domain.Vehicle, error)
	UpdateReservationEnd(dbc dbctx.Context, reservationID uuid.UUID, end time.Time) error
}

// Adjustment records one reservation whose end moved.
type Adjustment struct {
	VehicleID     uuid.UUID
	ReservationID uuid.UUID
	OldEnd        time.Time
	NewEnd        time.Time
}

// Miss records a vehicle whose end date changed but whose calendar had no matching reservation.
type Miss struct {
	VehicleID uuid.UUID
	OldEnd    time.Time
}

type Report struct {
	Adjusted []Adjustment
	Missed   []Miss
}

type Service struct {
	vehicles  VehicleRepository
	tolerance time.Duration
	log       *logger.Logger
}

func NewService(vehicles VehicleRepository, tolerance time.Duration, log *logger.Logger) *Service {
	if tolerance <= 0 {
		tolerance = DefaultEndTolerance
	}
	return &Service{
		vehicles:  vehicles,
		tolerance: tolerance,
		log:       log.With("service", "VehicleReservationSync"),
	}
}

// ReconcileReservations moves the end of each vehicle reservation whose cart line changed
// its end date. Only the reservation closest to the old end, and within tolerance, is touched.
// A vehicle that cannot be loaded aborts the caller's transaction; a missing reservation does not.
func (s *Service) ReconcileReservations(dbc dbctx.Context, oldCart, newCart *domain.Cart) (*Report, error) {
	report := &Report{}
	if oldCart == nil || newCart == nil {
		s.log.Warn("reservation sync skipped: cart unavailable")
		return report, nil
	}

	for _, line := range newCart.Vehicles {
		previous, ok := oldCart.PreviousLine(line)
		if !ok || previous.Dates.End.Equal(line.Dates.End) {
			continue
		}

		vehicle, err := s.vehicles.FindByID(dbc, line.VehicleID)
		if err != nil {
			return nil, err
		}

		match, found := closestWithin(vehicle.Reservations, previous.Dates.End, s.tolerance)
		if !found {
			s.log.Warn("no reservation within tolerance",
				"vehicle_id", vehicle.ID,
				"old_end", previous.Dates.End,
				"new_end", line.Dates.End,
			)
			report.Missed = append(report.Missed, Miss{VehicleID: vehicle.ID, OldEnd: previous.Dates.End})
			continue
		}

		if err := s.vehicles.UpdateReservationEnd(dbc, match.ID, line.Dates.End); err != nil {
			return nil, err
		}
		report.Adjusted = append(report.Adjusted, Adjustment{
			VehicleID:     vehicle.ID,
			ReservationID: match.ID,
			OldEnd:        match.EndAt,
			NewEnd:        line.Dates.End,
		})
	}
	return report, nil
}

func closestWithin(reservations []domain.VehicleReservation, target time.Time, tolerance time.Duration) (domain.VehicleReservation, bool) {
	var (
		best     domain.VehicleReservation
		bestDist time.Duration
		found    bool
	)
	for _, r := range reservations {
		dist := absDuration(r.EndAt.Sub(target))
		if dist > tolerance {
			continue
		}
		if !found || dist < bestDist {
			best, bestDist, found = r, dist, true
		}
	}
	return best, found
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
