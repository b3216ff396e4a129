// Package config loads service settings from environment variables and
// command-line flags under the BIKE_ETL namespace.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/conf"

	"github.com/velodata/bike-count-etl/internal/domain"
)

// ErrHelpWanted is returned by Load when the caller asked for --help or
// --version; main prints Usage and exits cleanly.
var ErrHelpWanted = conf.ErrHelpWanted

const namespace = "BIKE_ETL"

// Config holds all service settings.
type Config struct {
	Kafka struct {
		Brokers     string `conf:"default:localhost:9092"`
		SourceTopic string `conf:"default:bike-counts-raw"`
		SinkTopic   string `conf:"default:bike-count-features"`
		GroupID     string `conf:"default:bike-count-etl"`
	}
	Web struct {
		Addr string `conf:"default:0.0.0.0:8080"`
	}
	Log struct {
		Level  string `conf:"default:info"`
		Format string `conf:"default:json"`
	}
	Batch struct {
		Size          int           `conf:"default:500"`
		FlushInterval time.Duration `conf:"default:500ms"`
	}
	Holiday struct {
		Zone      string `conf:"default:C"`
		YearStart int    `conf:"default:2020"`
		YearEnd   int    `conf:"default:2021"`
	}
	CleanDeadPeriods bool          `conf:"default:true"`
	ShutdownTimeout  time.Duration `conf:"default:10s"`
}

// Load parses configuration from args and the environment, applying defaults
// where unset, and validates the result.
func Load(args []string) (*Config, error) {
	var cfg Config
	if err := conf.Parse(args, namespace, &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil, ErrHelpWanted
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage returns the generated help text for the configuration.
func Usage() (string, error) {
	var cfg Config
	return conf.Usage(namespace, &cfg)
}

func (c *Config) validate() error {
	if len(c.Brokers()) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.Kafka.SourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.Kafka.SinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.Batch.Size < 1 || c.Batch.Size > 100000 {
		return fmt.Errorf("BATCH_SIZE must be between 1 and 100000, got %d", c.Batch.Size)
	}
	if c.Batch.FlushInterval <= 0 {
		return errors.New("BATCH_FLUSH_INTERVAL must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	switch domain.Zone(c.Holiday.Zone) {
	case domain.ZoneA, domain.ZoneB, domain.ZoneC:
	default:
		return fmt.Errorf("HOLIDAY_ZONE must be A, B, or C, got %q", c.Holiday.Zone)
	}
	if c.Holiday.YearStart > c.Holiday.YearEnd {
		return fmt.Errorf("HOLIDAY_YEAR_START %d is after HOLIDAY_YEAR_END %d",
			c.Holiday.YearStart, c.Holiday.YearEnd)
	}
	return nil
}

// Brokers splits the comma-separated broker list.
func (c *Config) Brokers() []string {
	parts := strings.Split(c.Kafka.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// Zone returns the configured school-holiday zone.
func (c *Config) Zone() domain.Zone {
	return domain.Zone(c.Holiday.Zone)
}

// Years expands the configured year range.
func (c *Config) Years() []int {
	years := make([]int, 0, c.Holiday.YearEnd-c.Holiday.YearStart+1)
	for y := c.Holiday.YearStart; y <= c.Holiday.YearEnd; y++ {
		years = append(years, y)
	}
	return years
}
