package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/seatgrid/seatgrid/internal/booking"
	"github.com/seatgrid/seatgrid/internal/claim"
	"github.com/seatgrid/seatgrid/internal/config"
	"github.com/seatgrid/seatgrid/internal/database"
	"github.com/seatgrid/seatgrid/internal/handler"
	"github.com/seatgrid/seatgrid/internal/queue"
	"github.com/seatgrid/seatgrid/internal/repository"
	"github.com/seatgrid/seatgrid/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}

	roomRepo := repository.NewRoomRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	showtimeRepo := repository.NewShowtimeRepo(db)
	holdRepo := repository.NewSeatHoldRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	ledger := claim.NewLedger(claim.WithTTL(time.Duration(cfg.HoldTTLMin) * time.Minute))
	sessions := booking.NewManager()
	claimer := booking.NewLedgerClaimer(ledger, db, holdRepo, bookingRepo)
	coupons := booking.ParseCouponBook(os.Getenv("COUPONS"))

	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	adminH := handler.NewAdminHandler(roomRepo, seatRepo, showtimeRepo, holdRepo, bookingRepo, ledger)
	customerH := handler.NewCustomerHandler(roomRepo, seatRepo, showtimeRepo, holdRepo, bookingRepo, ledger, sessions, claimer, coupons)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)
	router.RegisterCustomer(e, customerH, cfg.JWTSecret, rlCfg, rdb)

	// Background work: expired claims are dropped from the ledger, lapsed
	// sessions are abandoned and their holds released, and the broker
	// consumer appends confirmed bookings to the audit log.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweep := time.Duration(cfg.SweepSec) * time.Second
	go ledger.Sweep(ctx, sweep)
	go sessions.Sweep(ctx, sweep, claimer)
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
