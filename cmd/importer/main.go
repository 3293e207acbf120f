package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"medharvest/internal/adapters/geocode"
	"medharvest/internal/adapters/memcache"
	"medharvest/internal/adapters/observability"
	"medharvest/internal/app"
	"medharvest/internal/domain"
	"medharvest/internal/shared"
	mysqlrepo "medharvest/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()

	file := flag.String("file", "", "path to the hospitals CSV export")
	geocodeRows := flag.Bool("geocode", false, "resolve coordinates for imported rows")
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if *file == "" {
		log.Fatal().Msg("usage: importer -file hospitals.csv [-geocode]")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	defer db.Close()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Str("file", *file).Err(err).Msg("open csv failed")
	}
	defer f.Close()

	var geocoder domain.Geocoder
	if *geocodeRows {
		geocoder = geocode.New(cfg.GeocoderBase, cfg.GeocoderUA, cfg.GeocoderFrom, memcache.New(0), cfg.GeocodeTTL)
	}

	im := app.NewImporter(mysqlrepo.New(db), geocoder, cfg.UpsertBatch)
	n, err := im.ImportHospitals(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	log.Info().Int("imported", n).Str("file", *file).Msg("import complete")
}
