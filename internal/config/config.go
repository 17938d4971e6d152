package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Redis, rate limiting and caching have their own
// loaders (redis.go, ratelimit.go, cache.go) because they are optional.
type Config struct {
	Env            string        // application environment (development, test, production)
	Port           string        // HTTP port to listen on
	DBDriver       string        // mysql or sqlite3
	DBUser         string        // database username (mysql)
	DBPass         string        // database password (optional)
	DBHost         string        // database host address (mysql)
	DBPort         string        // database port number (mysql)
	DBName         string        // database name (mysql)
	DBPath         string        // database file (sqlite3)
	JWTSecret      string        // secret used to sign JWTs
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	BcryptCost     int           // bcrypt cost for password hashing
	BookingTimeout time.Duration // upper bound for a single booking transaction
	ClientURL      string        // allowed CORS origin
	LogLevel       string        // zerolog level name
	LogFormat      string        // json or console
	RabbitURL      string        // AMQP broker URL; empty disables events
	EventLogDir    string        // directory the event consumer appends to
}

// IsDevelopment reports whether internal error details may be exposed to
// callers.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration values from environment variables.  Required
// variables are collected by a loader and reported together so a broken
// deployment shows every missing key in one message.
func Load() (Config, error) {
	l := &loader{}
	cfg := Config{
		Env:            l.must("APP_ENV"),
		Port:           envStr("APP_PORT", "5000"),
		DBDriver:       strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
		DBPass:         os.Getenv("DB_PASS"),
		JWTSecret:      l.must("JWT_SECRET"),
		AccessTTLMin:   l.intOr("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays: l.intOr("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     l.intOr("BCRYPT_COST", 12),
		BookingTimeout: envDur("BOOKING_TIMEOUT", 5*time.Second),
		ClientURL:      envStr("CLIENT_URL", "http://localhost:3000"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFormat:      envStr("LOG_FORMAT", "json"),
		RabbitURL:      rabbitURL(),
		EventLogDir:    envStr("EVENT_LOG_DIR", "logs"),
	}

	switch cfg.DBDriver {
	case DriverMySQL:
		cfg.DBUser = l.must("DB_USER")
		cfg.DBHost = l.must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = l.must("DB_NAME")
	case DriverSQLite:
		cfg.DBPath = envStr("DB_PATH", "data/booking.db")
	default:
		l.fail("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		l.fail("BCRYPT_COST", "must be between 4 and 31")
	}
	if cfg.BookingTimeout <= 0 {
		l.fail("BOOKING_TIMEOUT", "must be positive")
	}

	if err := l.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// rabbitURL honours both RABBITMQ_URL and the older AMQP_URL name.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// loader accumulates problems with required variables.
type loader struct {
	problems map[string]string
}

func (l *loader) fail(key, msg string) {
	if l.problems == nil {
		l.problems = make(map[string]string)
	}
	l.problems[key] = msg
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		l.fail(key, "missing required env var")
		return ""
	}
	return v
}

// intOr is like envInt but records a problem when the value is set and not
// a number instead of silently using the default.
func (l *loader) intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.fail(key, fmt.Sprintf("invalid int %q", s))
		return def
	}
	return n
}

func (l *loader) err() error {
	if len(l.problems) == 0 {
		return nil
	}
	keys := make([]string, 0, len(l.problems))
	for k := range l.problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+l.problems[k])
	}
	return fmt.Errorf("config: %s", strings.Join(parts, "; "))
}
