package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tourrental/internal/config"
	"tourrental/internal/database"
	"tourrental/internal/middleware"
	"tourrental/internal/modules/auth"
	"tourrental/internal/modules/cartversion"
	"tourrental/internal/modules/contract"
	"tourrental/internal/modules/events"
	"tourrental/internal/modules/history"
	"tourrental/internal/modules/movement"
	"tourrental/internal/modules/reconciliation"
	"tourrental/internal/modules/reservation"
	jwtsvc "tourrental/internal/pkg/jwt"
	"tourrental/internal/pkg/logger"
	"tourrental/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	appLog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.Connect(cfg.DB, appLog)
	if err != nil {
		appLog.Fatal("db connect failed", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		appLog.Fatal("migrate failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Events: with redis every instance publishes to the channel and forwards it to its own hub.
	hub := events.NewHub()
	defer hub.Close()
	sinks := []events.Sink{hub}
	if cfg.Events.RedisAddr != "" {
		publisher, err := events.NewRedisPublisher(cfg.Events.RedisAddr, cfg.Events.RedisChannel, appLog)
		if err != nil {
			appLog.Fatal("redis connect failed", "error", err)
		}
		defer publisher.Close()
		if err := publisher.StartForwarder(ctx, hub.Broadcast); err != nil {
			appLog.Fatal("redis forwarder failed", "error", err)
		}
		sinks = []events.Sink{publisher}
	}
	dispatcher := events.NewDispatcher(cfg.Events.BufferSize, appLog, sinks...)
	dispatcher.Start()
	defer dispatcher.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	versionRepo := repository.NewCartVersionRepository(db)
	contractRepo := repository.NewContractRepository(db)
	historyRepo := repository.NewContractHistoryRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	tx := database.NewTxRunner(db)

	j := jwtsvc.New(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	// Services
	authService := auth.NewService(userRepo, j, appLog)
	historyService := history.NewService(historyRepo, contractRepo, tx, appLog)
	cartService := cartversion.NewService(versionRepo, bookingRepo, contractRepo, historyService, tx, appLog)
	reservationService := reservation.NewService(vehicleRepo, cfg.Reservation.EndTolerance, appLog)
	contractService := contract.NewService(contractRepo, bookingRepo, historyService, cartService, reservationService, tx, dispatcher, appLog)
	movementService := movement.NewService(movementRepo, contractRepo, historyService, tx, dispatcher, appLog)
	reconcileService := reconciliation.NewService(movementRepo, historyRepo, reconciliation.Windows{
		Fuzzy:      cfg.Reconcile.FuzzyWindow,
		AmountOnly: cfg.Reconcile.AmountOnlyWindow,
	}, appLog)

	// Handlers
	authHandler := auth.NewHandler(authService)
	historyHandler := history.NewHandler(historyService)
	cartHandler := cartversion.NewHandler(cartService)
	contractHandler := contract.NewHandler(contractService)
	movementHandler := movement.NewHandler(movementService)
	reconcileHandler := reconciliation.NewHandler(reconcileService, reconciliation.NewReportWriter(), appLog)
	eventsHandler := events.NewHandler(hub, j, appLog)

	if config.IsProdLike(cfg.Environment) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.ErrorLogger(appLog))
	r.Use(middleware.RequestLogger(appLog))
	r.Use(middleware.CORS(cfg.HTTP.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	eventsHandler.RegisterRoutes(r)

	internal := r.Group("/internal")
	internal.Use(middleware.InternalTokenAuth(cfg.Internal.Token, cfg.Internal.AllowedIPs, appLog))
	{
		internal.POST("/reconciliation/run", reconcileHandler.Run)
	}

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))
		protected.Use(middleware.RequireRole("admin", "manager", "agent"))
		{
			authHandler.RegisterProtectedRoutes(protected)
			contractHandler.RegisterRoutes(protected)
			historyHandler.RegisterRoutes(protected)
			cartHandler.RegisterRoutes(protected)
			movementHandler.RegisterRoutes(protected)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(j), middleware.AdminOnly())
		{
			authHandler.RegisterAdminRoutes(admin)
			cartHandler.RegisterAdminRoutes(admin)
			reconcileHandler.RegisterRoutes(admin)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLog.Info("http server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("http shutdown failed", "error", err)
	}
}
