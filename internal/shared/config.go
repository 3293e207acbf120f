package shared

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	BaseURL      string
	Headless     bool
	Concurrency  int
	MaxPages     int
	MaxRetries   int
	RetryBase    time.Duration
	BatchDelay   time.Duration
	DelayMin     time.Duration
	DelayMax     time.Duration
	NavTimeout   time.Duration
	UpsertBatch  int
	GeocoderBase string
	GeocoderUA   string
	GeocoderFrom string
	GeocodeTTL   time.Duration
	ReportDir    string
	ExportCSV    bool
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	abool := func(k string, def bool) bool {
		if v := os.Getenv(k); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
		return def
	}
	secs := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	millis := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Millisecond
	}
	return Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/medharvest?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		BaseURL:      env("SCRAPE_BASE_URL", "https://www.vaidam.com"),
		Headless:     abool("SCRAPE_HEADLESS", true),
		Concurrency:  atoi("SCRAPE_CONCURRENCY", 5),
		MaxPages:     atoi("SCRAPE_MAX_PAGES", 100),
		MaxRetries:   atoi("SCRAPE_MAX_RETRIES", 3),
		RetryBase:    millis("SCRAPE_RETRY_BASE_MS", 1000),
		BatchDelay:   secs("SCRAPE_BATCH_DELAY_SECONDS", 5),
		DelayMin:     millis("SCRAPE_DELAY_MIN_MS", 1000),
		DelayMax:     millis("SCRAPE_DELAY_MAX_MS", 3000),
		NavTimeout:   secs("SCRAPE_NAV_TIMEOUT_SECONDS", 30),
		UpsertBatch:  atoi("UPSERT_BATCH_SIZE", 100),
		GeocoderBase: env("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderUA:   env("GEOCODER_USER_AGENT", "medharvest/1.0"),
		GeocoderFrom: env("GEOCODER_EMAIL", ""),
		GeocodeTTL:   secs("GEOCODE_TTL_SECONDS", 86400),
		ReportDir:    env("REPORT_DIR", "."),
		ExportCSV:    abool("EXPORT_CSV", true),
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
