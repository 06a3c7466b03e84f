package cmd

import (
	"fmt"
	"time"
)

// Config carries everything the composition root needs to wire the service.
// Values come from the environment; see cmd/app/main.go.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string

	// OfferTTL is how long a candidate driver has to answer an offer.
	OfferTTL time.Duration

	// PresenceFreshness is the staleness cutoff beyond which a driver is
	// treated as offline for candidate selection.
	PresenceFreshness time.Duration

	// SearchRadiusMeters bounds the candidate search around the dropoff.
	SearchRadiusMeters float64

	// MaxCandidates caps the candidate ladder built per dispatch round.
	MaxCandidates int

	// RequeueSweepSchedule and PresenceSweepSchedule are cron expressions
	// with a seconds field, e.g. "*/15 * * * * *".
	RequeueSweepSchedule  string
	PresenceSweepSchedule string
}

// DatabaseURL renders the postgres connection string used by both GORM and
// the migrator.
func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSslMode)
}
