package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"medharvest/internal/adapters/browser"
	"medharvest/internal/adapters/geocode"
	"medharvest/internal/adapters/memcache"
	"medharvest/internal/adapters/observability"
	redisad "medharvest/internal/adapters/redis"
	"medharvest/internal/adapters/site"
	"medharvest/internal/app"
	"medharvest/internal/domain"
	"medharvest/internal/shared"
	mysqlrepo "medharvest/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("base", cfg.BaseURL).
		Int("concurrency", cfg.Concurrency).
		Int("max_pages", cfg.MaxPages).
		Bool("headless", cfg.Headless).
		Msg("scraper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	defer db.Close()
	log.Info().Msg("database connection ok")
	repo := mysqlrepo.New(db)

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory geocode cache")
			cache = memcache.New(0)
		} else {
			cache = rc
		}
	} else {
		cache = memcache.New(0)
	}
	geocoder := geocode.New(cfg.GeocoderBase, cfg.GeocoderUA, cfg.GeocoderFrom, cache, cfg.GeocodeTTL)

	session, err := browser.New(ctx, browser.Config{
		Headless:   cfg.Headless,
		NavTimeout: cfg.NavTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryBase:  cfg.RetryBase,
		DelayMin:   cfg.DelayMin,
		DelayMax:   cfg.DelayMax,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("browser launch failed")
	}
	defer session.Close()

	// the static client handles robots.txt and sitemap XML; the browser
	// session renders everything else
	staticClient := site.NewClient(2, "")
	harvester, err := site.NewHarvester(cfg.BaseURL, session, staticClient, cfg.MaxPages)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid base url")
	}

	pipeline := app.NewPipeline(harvester, repo, geocoder, app.Options{
		Concurrency: cfg.Concurrency,
		BatchDelay:  cfg.BatchDelay,
		UpsertBatch: cfg.UpsertBatch,
		ReportDir:   cfg.ReportDir,
		ExportCSV:   cfg.ExportCSV,
	})

	rep, err := pipeline.Execute(ctx)
	if err != nil {
		log.Error().Err(err).Msg("run aborted")
	}
	if rep != nil {
		log.Info().
			Str("state", rep.FinalState).
			Str("duration", rep.Duration).
			Int("hospitals", rep.Hospitals).
			Int("doctors", rep.Doctors).
			Int("treatments", rep.Treatments).
			Int("errors", len(rep.Errors)).
			Msg("harvest complete")
	}
}
