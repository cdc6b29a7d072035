package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"condo_calendar/internal/adapters/backend"
	server "condo_calendar/internal/adapters/http_server"
	"condo_calendar/internal/adapters/observability"
	redisad "condo_calendar/internal/adapters/redis"
	"condo_calendar/internal/app"
	"condo_calendar/internal/calendar"
	"condo_calendar/internal/shared"
	mysqlrepo "condo_calendar/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api", cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// backend
	client := backend.New(cfg.BackendBase, cfg.BackendRPS)
	if err := client.Authenticate(ctx, cfg.BackendKey, cfg.BackendUser, cfg.BackendPass); err != nil {
		log.Fatal().Err(err).Msg("backend authentication failed")
	}

	// cache
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, serving without cache hits")
	}

	// calendar source
	var src app.ReservationLister
	switch cfg.CalendarSource {
	case "backend":
		src = app.BackendReservations{Backend: client}
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		src = mysqlrepo.New(db)
	}

	cal := app.NewCalendarService(src, cache, cfg.CacheTTL).
		WithProjector(calendar.Projector{Policy: cfg.MarkPolicy})
	shares := app.NewShareService(client, client, cache, cfg.ShareWorkers, cfg.ShareMaxBytes)
	apts := app.NewApartmentService(client, cache, cfg.CacheTTL)

	// http
	srv := server.New(30 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Calendar:   cal,
		Shares:     shares,
		Apartments: apts,
		Location:   cfg.Location,
		MaxBytes:   cfg.ShareMaxBytes,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Str("source", cfg.CalendarSource).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
