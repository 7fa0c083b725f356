package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/clicktopay"
	server "github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/http_server"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/observability"
	redisad "github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/redis"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/supplier"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/app"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/shared"
	mysqlrepo "github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	sup, err := supplier.New(cfg.SupplierBase,
		supplier.Credential{Login: cfg.SupplierLogin, Password: cfg.SupplierPassword},
		supplier.Options{Dialect: cfg.SupplierDialect, Timeout: cfg.SupplierTimeout, RPS: cfg.SupplierRPS},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize supplier client")
	}
	gw, err := clicktopay.New(cfg.GatewayBase, cfg.GatewayUser, cfg.GatewayPassword, cfg.GatewaySecret, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize payment gateway client")
	}

	search := app.NewSearchService(sup, cache, cfg.SearchCacheTTL)
	bookings := app.NewBookingService(sup, gw, repo, search, cfg.CheckoutPolicy, cfg.TokenSalt, cfg.ReturnURL)
	ref := app.NewRefService(sup, repo, cache, cfg.RefCacheTTL)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Search:        search,
		Bookings:      bookings,
		Ref:           ref,
		SearchLimiter: server.RateLimit(repo, cfg.SearchRateLimit, cfg.SearchRateWin),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Str("dialect", cfg.SupplierDialect).
		Str("policy", string(cfg.CheckoutPolicy)).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
