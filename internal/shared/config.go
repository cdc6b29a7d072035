package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"condo_calendar/internal/calendar"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	BackendBase string
	BackendUser string
	BackendPass string
	BackendKey  string // pre-issued access token, skips login when set
	BackendRPS  int

	CalendarSource string          // "mirror" (MySQL) or "backend"
	MarkPolicy     calendar.Policy // nil means the default order

	SyncWorkers   int
	Condominiums  []string
	ShareWorkers  int
	ShareMaxBytes int64
	CacheTTL      time.Duration
	Location      *time.Location
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric env value")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/condo?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		BackendBase:    strings.TrimRight(env("BACKEND_BASE_URL", "http://localhost:8000"), "/"),
		BackendUser:    env("BACKEND_USERNAME", ""),
		BackendPass:    env("BACKEND_PASSWORD", ""),
		BackendKey:     env("BACKEND_TOKEN", ""),
		BackendRPS:     atoi("BACKEND_RPS", 5),
		CalendarSource: env("CALENDAR_SOURCE", "mirror"),
		MarkPolicy:     markPolicy(env("CALENDAR_MARK_POLICY", "")),
		SyncWorkers:    atoi("SYNC_WORKERS", 4),
		Condominiums:   splitList(env("SYNC_CONDOMINIUMS", "")),
		ShareWorkers:   atoi("SHARE_WORKERS", 4),
		ShareMaxBytes:  int64(atoi("SHARE_MAX_BYTES", 10<<20)),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		Location:       location(env("APP_TZ", "America/Sao_Paulo")),
	}
	if c.BackendKey == "" && c.BackendUser == "" {
		log.Warn().Msg("neither BACKEND_TOKEN nor BACKEND_USERNAME is set")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func markPolicy(s string) calendar.Policy {
	p, err := calendar.ParsePolicy(s)
	if err != nil {
		log.Warn().Err(err).Str("policy", s).Msg("bad CALENDAR_MARK_POLICY, using default")
		return nil
	}
	return p
}

func location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("tz", name).Msg("unknown APP_TZ, using UTC")
		return time.UTC
	}
	return loc
}
