package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/example/room-reservation/internal/scheduler"
)

// Store drivers accepted by RESERVATION_STORE.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort    int
	StoreDriver string
	SQLiteDSN   string

	TokenSecret string
	TokenTTL    time.Duration

	LockTimeout time.Duration
	Location    *time.Location
	Opens       scheduler.TimeOfDay
	Closes      scheduler.TimeOfDay

	LogLevel  string
	LogFormat string

	KafkaBrokers    []string
	KafkaTopic      string
	NotifyQueueSize int

	SeedDemo bool
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults. Every missing or malformed variable
// is collected so one error names all of them.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		StoreDriver:     StoreSQLite,
		SQLiteDSN:       "file:reservations.db",
		TokenTTL:        12 * time.Hour,
		LockTimeout:     2 * time.Second,
		Location:        time.UTC,
		Opens:           8 * 60,
		Closes:          19 * 60,
		LogLevel:        "info",
		LogFormat:       "json",
		KafkaTopic:      "reservation-status",
		NotifyQueueSize: 256,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("RESERVATION_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "RESERVATION_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.ToLower(env("RESERVATION_STORE")); driver != "" {
		switch driver {
		case StoreSQLite, StoreMemory:
			cfg.StoreDriver = driver
		default:
			invalid = append(invalid, "RESERVATION_STORE")
		}
	}

	if dsn := env("RESERVATION_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := env("RESERVATION_TOKEN_SECRET"); secret == "" {
		missing = append(missing, "RESERVATION_TOKEN_SECRET")
	} else {
		cfg.TokenSecret = secret
	}

	if ttl, ok := duration("RESERVATION_TOKEN_TTL", &invalid); ok {
		cfg.TokenTTL = ttl
	}
	if timeout, ok := duration("RESERVATION_LOCK_TIMEOUT", &invalid); ok {
		cfg.LockTimeout = timeout
	}

	if tz := env("RESERVATION_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "RESERVATION_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if hours := env("RESERVATION_OPENING_HOURS"); hours != "" {
		opens, closes, err := parseOpeningHours(hours)
		if err != nil {
			invalid = append(invalid, "RESERVATION_OPENING_HOURS")
		} else {
			cfg.Opens, cfg.Closes = opens, closes
		}
	}

	if level := env("RESERVATION_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := strings.ToLower(env("RESERVATION_LOG_FORMAT")); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, "RESERVATION_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if brokers := env("RESERVATION_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if topic := env("RESERVATION_KAFKA_TOPIC"); topic != "" {
		cfg.KafkaTopic = topic
	}

	if sizeValue := env("RESERVATION_NOTIFY_QUEUE_SIZE"); sizeValue != "" {
		size, err := strconv.Atoi(sizeValue)
		if err != nil || size <= 0 {
			invalid = append(invalid, "RESERVATION_NOTIFY_QUEUE_SIZE")
		} else {
			cfg.NotifyQueueSize = size
		}
	}

	if seedValue := env("RESERVATION_SEED_DEMO"); seedValue != "" {
		seed, err := strconv.ParseBool(seedValue)
		if err != nil {
			invalid = append(invalid, "RESERVATION_SEED_DEMO")
		} else {
			cfg.SeedDemo = seed
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variables d'environnement obligatoires manquantes: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valeurs de variables d'environnement invalides: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// KafkaEnabled reports whether notifications should also go to Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func duration(key string, invalid *[]string) (time.Duration, bool) {
	value := env(key)
	if value == "" {
		return 0, false
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*invalid = append(*invalid, key)
		return 0, false
	}
	return d, true
}

// parseOpeningHours reads "HH:MM-HH:MM".
func parseOpeningHours(value string) (scheduler.TimeOfDay, scheduler.TimeOfDay, error) {
	from, to, ok := strings.Cut(value, "-")
	if !ok {
		return 0, 0, fmt.Errorf("opening hours %q: expected HH:MM-HH:MM", value)
	}
	opens, err := scheduler.ParseTimeOfDay(strings.TrimSpace(from))
	if err != nil {
		return 0, 0, err
	}
	closes, err := scheduler.ParseTimeOfDay(strings.TrimSpace(to))
	if err != nil {
		return 0, 0, err
	}
	if opens >= closes {
		return 0, 0, fmt.Errorf("opening hours %q: opening must precede closing", value)
	}
	return opens, closes, nil
}
