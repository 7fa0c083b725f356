package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/observability"
	redisad "github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/redis"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/supplier"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/app"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/shared"
	mysqlrepo "github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/storage/mysql"
)

// syncref refreshes the local city and hotel tables from the supplier. Run it
// from cron; the API keeps serving the previous rows while it works.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.SupplierBase).
		Str("dialect", cfg.SupplierDialect).
		Int("workers", cfg.Workers).
		Msg("reference sync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	sup, err := supplier.New(cfg.SupplierBase,
		supplier.Credential{Login: cfg.SupplierLogin, Password: cfg.SupplierPassword},
		supplier.Options{Dialect: cfg.SupplierDialect, Timeout: cfg.SupplierTimeout, RPS: cfg.SupplierRPS},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize supplier client")
	}

	svc := app.NewSyncService(sup, repo, cache)
	if err := svc.SyncAll(ctx, cfg.Workers); err != nil {
		log.Fatal().Err(err).Msg("reference sync failed")
	}
	log.Info().Msg("reference sync completed")
}
