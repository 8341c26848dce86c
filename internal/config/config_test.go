package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "PORT", "RECALC_WORKERS", "RECALC_PROGRESS_RETENTION", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Port != "8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RecalcWorkers != 4 || cfg.ProgressRetention != time.Hour {
		t.Errorf("recalculation defaults = %d, %s", cfg.RecalcWorkers, cfg.ProgressRetention)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "DB_NAME", "RECALC_WORKERS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("DB_NAME", "from_env")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DRIVER=pgx\nDB_NAME=from_file\nRECALC_WORKERS=8\nCORS_ALLOWED_ORIGINS= https://a.example , https://b.example\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("RECALC_WORKERS")
		os.Unsetenv("CORS_ALLOWED_ORIGINS")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "pgx" || cfg.RecalcWorkers != 8 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Database.Name != "from_env" {
		t.Errorf("DB_NAME = %q, environment should win over the file", cfg.Database.Name)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "mysql"}, RecalcWorkers: 1, ProgressRetention: time.Minute}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported driver")
	}
	cfg.Database.Driver = "pgx"
	cfg.RecalcWorkers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero workers")
	}
}
