package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"delivery_costs_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// DatabaseConfig holds the connection settings for PostgreSQL.
type DatabaseConfig struct {
	Driver     string // "postgres" (lib/pq) or "pgx"
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SchemaPath string
}

// DSN returns a key/value connection string understood by both drivers.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Config is the process configuration shared by the server and the CLI.
type Config struct {
	Database           DatabaseConfig
	Port               string
	JWTSecret          string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
	RecalcWorkers      int
	ProgressRetention  time.Duration
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("could not load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:     utils.Getenv("DB_DRIVER", "postgres"),
			Host:       utils.Getenv("DB_HOST", "localhost"),
			Port:       utils.Getenv("DB_PORT", "5432"),
			User:       utils.Getenv("DB_USER", "delivery_costs"),
			Password:   utils.Getenv("DB_PASSWORD", "delivery_costs"),
			Name:       utils.Getenv("DB_NAME", "delivery_costs_db"),
			SSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
			SchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),
		},
		Port:              utils.Getenv("PORT", "8080"),
		JWTSecret:         utils.Getenv("JWT_SECRET", ""),
		LogLevel:          utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:         utils.Getenv("LOG_FORMAT", "console"),
		RecalcWorkers:     utils.GetenvInt("RECALC_WORKERS", 4),
		ProgressRetention: utils.GetenvDuration("RECALC_PROGRESS_RETENTION", time.Hour),
	}

	origins := utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or pgx, got %q", c.Database.Driver)
	}
	if c.RecalcWorkers < 1 {
		return fmt.Errorf("RECALC_WORKERS must be at least 1, got %d", c.RecalcWorkers)
	}
	if c.ProgressRetention <= 0 {
		return fmt.Errorf("RECALC_PROGRESS_RETENTION must be positive, got %s", c.ProgressRetention)
	}
	return nil
}
