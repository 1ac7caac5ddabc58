package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tourrental/internal/config"
	"tourrental/internal/database"
	"tourrental/internal/domain"
	"tourrental/internal/modules/cartversion"
	"tourrental/internal/modules/contract"
	"tourrental/internal/modules/history"
	"tourrental/internal/modules/reservation"
	"tourrental/internal/pkg/logger"
	"tourrental/internal/repository"
)

var statusConfirmed = uuid.MustParse("6f1c2a52-3b1e-4c0a-9d43-0c7a3b6a1001")

func main() {
	_ = godotenv.Load()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	appLog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	db, err := database.Connect(cfg.DB, appLog)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	log.Println("Cleaning old data...")
	for _, table := range []string{"movements", "contract_history", "contracts", "cart_versions", "bookings", "vehicle_reservations", "vehicles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s failed: %v", table, err)
		}
	}

	// ================== USERS ==================
	log.Println("Creating staff users...")
	staff := map[domain.UserRole]*domain.User{}
	for _, u := range []struct {
		role  domain.UserRole
		email string
		name  string
		pass  string
	}{
		{domain.RoleAdmin, "admin@tourrental.local", "Administrator", "admin123"},
		{domain.RoleManager, "manager@tourrental.local", "Fleet Manager", "manager123"},
		{domain.RoleAgent, "agent@tourrental.local", "Sales Agent", "agent123"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.pass), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("hash password:", err)
		}
		user := &domain.User{Email: u.email, PasswordHash: string(hash), Role: u.role, Name: u.name}
		if err := db.Create(user).Error; err != nil {
			log.Fatalf("create %s failed: %v", u.email, err)
		}
		staff[u.role] = user
		log.Printf("%s created: %s / %s", u.role, u.email, u.pass)
	}
	admin := staff[domain.RoleAdmin]
	agent := staff[domain.RoleAgent]

	// ================== VEHICLES + BOOKINGS ==================
	log.Println("Creating vehicles and bookings with legacy carts...")
	base := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	var vehicles []domain.Vehicle
	for i, name := range []string{"Toyota Land Cruiser", "Jeep Wrangler", "Polaris RZR", "Can-Am Maverick"} {
		v := domain.Vehicle{Name: name, Plate: fmt.Sprintf("TR-%03d", i+1)}
		if err := db.Create(&v).Error; err != nil {
			log.Fatal("create vehicle failed:", err)
		}
		vehicles = append(vehicles, v)
	}

	var bookings []domain.Booking
	for i, v := range vehicles {
		start := base.Add(time.Duration(i*48) * time.Hour)
		end := start.Add(time.Duration(4+rng.Intn(6)) * time.Hour)
		total := float64(150 + rng.Intn(10)*25)
		cart := domain.Cart{
			Vehicles: []domain.CartVehicle{{
				VehicleID: v.ID, Name: v.Name, Quantity: 1, Total: total,
				Dates: domain.DateRange{Start: start, End: end},
			}},
			Total: total,
		}
		raw, err := cart.JSON()
		if err != nil {
			log.Fatal("encode cart:", err)
		}
		b := domain.Booking{BookingNumber: fmt.Sprintf("BK-%05d", 1001+i), LegacyCart: &raw}
		if err := db.Create(&b).Error; err != nil {
			log.Fatal("create booking failed:", err)
		}
		bookingID := b.ID
		res := domain.VehicleReservation{VehicleID: v.ID, BookingID: &bookingID, StartAt: start, EndAt: end}
		if err := db.Create(&res).Error; err != nil {
			log.Fatal("create reservation failed:", err)
		}
		bookings = append(bookings, b)
	}

	tx := database.NewTxRunner(db)
	contracts := repository.NewContractRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	ledger := history.NewService(repository.NewContractHistoryRepository(db), contracts, tx, appLog)
	carts := cartversion.NewService(repository.NewCartVersionRepository(db), bookingRepo, contracts, ledger, tx, appLog)
	syncer := reservation.NewService(repository.NewVehicleRepository(db), cfg.Reservation.EndTolerance, appLog)
	contractService := contract.NewService(contracts, bookingRepo, ledger, carts, syncer, tx, nil, appLog)

	report, err := carts.BackfillLegacyCarts(ctx, admin.ID)
	if err != nil {
		log.Fatal("cart backfill failed:", err)
	}
	log.Printf("Cart backfill: %+v", *report)

	// ================== CONTRACTS ==================
	log.Println("Creating contracts...")
	var created []*contract.ContractView
	for _, b := range bookings {
		view, err := contractService.Create(ctx, contract.CreateInput{
			BookingID:       b.ID,
			ReservingUserID: agent.ID,
			StatusID:        statusConfirmed,
			Source:          domain.SourceDashboard,
		}, agent.ID)
		if err != nil {
			log.Fatalf("create contract for %s failed: %v", b.BookingNumber, err)
		}
		created = append(created, view)
	}

	// ================== HISTORICAL PAYMENTS ==================
	// Written directly without links so the reconciliation job has something to pair up.
	log.Println("Creating unlinked historical payments...")
	medium := "card"
	for i, view := range created {
		vehicleID := vehicles[i].ID
		amount := decimal.NewFromInt(int64(100 + rng.Intn(20)*10))
		paidAt := base.Add(-time.Duration(72-i*6) * time.Hour)

		entry := domain.ContractHistoryEntry{
			ContractID:  view.ID,
			Action:      domain.ActionExtensionAdded,
			PerformedBy: agent.ID,
			Details:     "extension payment",
			Metadata: domain.EventMetadata{
				Amount:        decimal.NewNullDecimal(amount),
				Date:          &paidAt,
				VehicleID:     &vehicleID,
				BeneficiaryID: &agent.ID,
				PaymentMedium: &medium,
			},
		}
		if err := db.Create(&entry).Error; err != nil {
			log.Fatal("create history entry failed:", err)
		}

		// Every other movement drifts a little so fuzzy tiers get exercised.
		movementDate := paidAt
		if i%2 == 1 {
			movementDate = paidAt.Add(time.Duration(5+rng.Intn(40)) * time.Minute)
		}
		m := domain.Movement{
			Type:          "EXTENSION_PAYMENT",
			Direction:     domain.DirectionIn,
			Amount:        amount,
			Date:          movementDate,
			VehicleID:     &vehicleID,
			BeneficiaryID: &agent.ID,
			Detail:        fmt.Sprintf("payment via %s for %s", medium, bookings[i].BookingNumber),
			CreatedBy:     agent.ID,
		}
		if err := db.Create(&m).Error; err != nil {
			log.Fatal("create movement failed:", err)
		}
	}

	log.Printf("Seed completed: users=%d vehicles=%d bookings=%d contracts=%d", len(staff), len(vehicles), len(bookings), len(created))
}
