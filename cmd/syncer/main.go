package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"condo_calendar/internal/adapters/backend"
	"condo_calendar/internal/adapters/observability"
	redisad "condo_calendar/internal/adapters/redis"
	"condo_calendar/internal/app"
	"condo_calendar/internal/shared"
	mysqlrepo "condo_calendar/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "syncer", cfg.LogLevel)

	log.Info().
		Str("base", cfg.BackendBase).
		Int("workers", cfg.SyncWorkers).
		Strs("condominiums", cfg.Condominiums).
		Msg("syncer starting")
	if len(cfg.Condominiums) == 0 {
		log.Fatal().Msg("SYNC_CONDOMINIUMS is empty")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client := backend.New(cfg.BackendBase, cfg.BackendRPS)
	if err := client.Authenticate(ctx, cfg.BackendKey, cfg.BackendUser, cfg.BackendPass); err != nil {
		log.Fatal().Err(err).Msg("backend authentication failed")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	svc := app.NewSyncService(client, repo, cache)

	workers := cfg.SyncWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, id := range cfg.Condominiums {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(condominiumID string) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := svc.SyncCondominium(ctx, condominiumID)
			if err != nil {
				log.Warn().Str("condominium", condominiumID).Err(err).Msg("sync failed")
				return
			}
			log.Info().
				Str("condominium", condominiumID).
				Int("reservations", res.Reservations).
				Int("skipped", res.Skipped).
				Bool("missed", res.Missed).
				Msg("sync ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("sync completed")
}
