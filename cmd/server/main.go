package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/leoli101/flight-reservation/internal/config"
	"github.com/leoli101/flight-reservation/internal/database"
	"github.com/leoli101/flight-reservation/internal/handler"
	"github.com/leoli101/flight-reservation/internal/middleware"
	"github.com/leoli101/flight-reservation/internal/queue"
	"github.com/leoli101/flight-reservation/internal/repository"
	"github.com/leoli101/flight-reservation/internal/router"
	"github.com/leoli101/flight-reservation/internal/service"
	"github.com/leoli101/flight-reservation/internal/session"
	"github.com/leoli101/flight-reservation/internal/txn"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := repository.NewUserRepo(db)
	flights := repository.NewFlightRepo(db)
	capacity := repository.NewCapacityRepo(db, flights)
	reservations := repository.NewReservationRepo(db)

	coord := txn.NewCoordinator(db, txn.MySQLClassifier{}, txn.SerializableOpts())

	authSvc := service.NewAuthService(users, coord)
	searchSvc := service.NewSearchService(flights)
	reservationSvc := service.NewReservationService(reservations, capacity, users, coord)

	store := session.NewStore()

	e := echo.New()
	e.Use(middleware.ResolveSession(store, cfg.JWTSecret, cfg.SessionTTLMin))

	// The search limiter is optional: without Redis it stays nil and the
	// endpoint runs unthrottled.
	var searchLimiter echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		searchLimiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewAuthHandler(authSvc),
		handler.NewSearchHandler(searchSvc),
		handler.NewReservationHandler(reservationSvc),
		searchLimiter,
	)

	go queue.StartReservationConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
