package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourrental/internal/domain"
)

func CreateUser(t *testing.T, db *gorm.DB, role domain.UserRole) *domain.User {
	t.Helper()
	id := uuid.New()
	user := &domain.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.test", id.String()[:8]),
		PasswordHash: "hash",
		Role:         role,
		Name:         "User " + id.String()[:8],
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func CreateVehicle(t *testing.T, db *gorm.DB, reservations ...domain.VehicleReservation) *domain.Vehicle {
	t.Helper()
	vehicle := &domain.Vehicle{Name: "Jeep Wrangler", Plate: "ABC-123"}
	if err := db.Omit(clause.Associations).Create(vehicle).Error; err != nil {
		t.Fatalf("failed to create vehicle: %v", err)
	}
	for i := range reservations {
		reservations[i].VehicleID = vehicle.ID
		if err := db.Create(&reservations[i]).Error; err != nil {
			t.Fatalf("failed to create reservation: %v", err)
		}
	}
	vehicle.Reservations = reservations
	return vehicle
}

// CreateBooking stores a booking; a non-nil cart becomes version 1 and the active version.
func CreateBooking(t *testing.T, db *gorm.DB, cart *domain.Cart) *domain.Booking {
	t.Helper()
	booking := &domain.Booking{ID: uuid.New(), BookingNumber: "BK-" + uuid.NewString()[:8]}
	if cart != nil {
		version := &domain.CartVersion{BookingID: booking.ID, Version: 1}
		version.Data = datatypes.NewJSONType(*cart)
		if err := db.Create(version).Error; err != nil {
			t.Fatalf("failed to create cart version: %v", err)
		}
		booking.ActiveCartVersionID = &version.ID
	}
	if err := db.Omit(clause.Associations).Create(booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	return booking
}

func CreateContract(t *testing.T, db *gorm.DB, booking *domain.Booking, user *domain.User) *domain.Contract {
	t.Helper()
	contract := &domain.Contract{
		BookingID:       booking.ID,
		ReservingUserID: user.ID,
		CreatedByUserID: user.ID,
		StatusID:        uuid.New(),
		Source:          domain.SourceDashboard,
	}
	if err := db.Omit(clause.Associations).Create(contract).Error; err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}
	return contract
}

func VehicleCart(vehicleID uuid.UUID, start, end time.Time) domain.Cart {
	return domain.Cart{
		Vehicles: []domain.CartVehicle{{
			VehicleID: vehicleID,
			Name:      "Jeep Wrangler",
			Dates:     domain.DateRange{Start: start, End: end},
			Quantity:  1,
			Total:     300,
		}},
		Total: 300,
	}
}

func Count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("failed to count %T: %v", model, err)
	}
	return n
}
