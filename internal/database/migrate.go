package database

import (
	"fmt"

	"gorm.io/gorm"

	"tourrental/internal/domain"
)

// Models lists every table owned by this service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.CartVersion{},
		&domain.Booking{},
		&domain.Contract{},
		&domain.ContractHistoryEntry{},
		&domain.Vehicle{},
		&domain.VehicleReservation{},
		&domain.Movement{},
	}
}

func Migrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}
