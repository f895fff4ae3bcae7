package config

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func setTestEnv(t *testing.T) {
	t.Helper()

	t.Setenv("HOTSPOTPAY_PRIMARY__ENV", "test")

	t.Setenv("HOTSPOTPAY_SERVER__PORT", "8080")
	t.Setenv("HOTSPOTPAY_SERVER__READ_TIMEOUT", "15s")
	t.Setenv("HOTSPOTPAY_SERVER__WRITE_TIMEOUT", "15s")
	t.Setenv("HOTSPOTPAY_SERVER__IDLE_TIMEOUT", "60s")

	t.Setenv("HOTSPOTPAY_DATABASE__HOST", "localhost")
	t.Setenv("HOTSPOTPAY_DATABASE__PORT", "5432")
	t.Setenv("HOTSPOTPAY_DATABASE__USER", "hotspotpay")
	t.Setenv("HOTSPOTPAY_DATABASE__PASSWORD", "hotspotpay")
	t.Setenv("HOTSPOTPAY_DATABASE__NAME", "hotspotpay")
	t.Setenv("HOTSPOTPAY_DATABASE__SSL_MODE", "disable")
	t.Setenv("HOTSPOTPAY_DATABASE__MAX_OPEN_CONNS", "25")
	t.Setenv("HOTSPOTPAY_DATABASE__MAX_IDLE_CONNS", "5")
	t.Setenv("HOTSPOTPAY_DATABASE__CONN_MAX_LIFETIME", "5m")
	t.Setenv("HOTSPOTPAY_DATABASE__CONN_MAX_IDLE_TIME", "5m")

	t.Setenv("HOTSPOTPAY_DARAJA__BASE_URL", "https://sandbox.safaricom.co.ke")
	t.Setenv("HOTSPOTPAY_DARAJA__CONSUMER_KEY", "key")
	t.Setenv("HOTSPOTPAY_DARAJA__CONSUMER_SECRET", "secret")
	t.Setenv("HOTSPOTPAY_DARAJA__SHORT_CODE", "174379")
	t.Setenv("HOTSPOTPAY_DARAJA__PASSKEY", "passkey")
	t.Setenv("HOTSPOTPAY_DARAJA__CALLBACK_URL", "https://pay.example.test/api/v1/payments/callback")
	t.Setenv("HOTSPOTPAY_DARAJA__ACCOUNT_REFERENCE", "HOTSPOT")
	t.Setenv("HOTSPOTPAY_DARAJA__CONN_TIMEOUT", "10s")

	t.Setenv("HOTSPOTPAY_LOGGER__LEVEL", "debug")
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	setTestEnv(t)
	t.Setenv("HOTSPOTPAY_WORKER__ENABLED", "true")
	t.Setenv("HOTSPOTPAY_WORKER__INTERVAL", "1m")
	t.Setenv("HOTSPOTPAY_WORKER__MIN_AGE", "2m")
	t.Setenv("HOTSPOTPAY_WORKER__BATCH_SIZE", "25")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Primary.Env != "test" {
		t.Errorf("expected env test, got %q", cfg.Primary.Env)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("expected read timeout 15s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("expected database port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("expected conn max lifetime 5m, got %v", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Daraja.ShortCode != "174379" {
		t.Errorf("expected short code 174379, got %q", cfg.Daraja.ShortCode)
	}
	if cfg.Daraja.ConnTimeout != 10*time.Second {
		t.Errorf("expected daraja timeout 10s, got %v", cfg.Daraja.ConnTimeout)
	}
	if !cfg.Worker.Enabled {
		t.Errorf("expected worker enabled")
	}
	if cfg.Worker.MinAge != 2*time.Minute {
		t.Errorf("expected worker min age 2m, got %v", cfg.Worker.MinAge)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Logger.Level)
	}
}

func TestLoadConfig_MissingRequiredValue(t *testing.T) {
	setTestEnv(t)
	t.Setenv("HOTSPOTPAY_DARAJA__PASSKEY", "")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected validation to reject a missing passkey")
	}
}

// Worker settings are optional: a deployment that never sets them gets no
// background sweep rather than a validation error.
func TestLoadConfig_WorkerDefaultsOff(t *testing.T) {
	setTestEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Worker.Enabled {
		t.Errorf("expected worker to stay off without configuration")
	}
	if cfg.Worker.Interval != 0 {
		t.Errorf("expected zero interval without configuration, got %v", cfg.Worker.Interval)
	}
}

func TestNewLogger_LevelMapping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		level       string
		wantDebugOn bool
		wantWarnOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"", false, true},
		{"WARN", false, true},
		{"error", false, false},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			logger := LoggerConfig{Level: tt.level}.NewLogger()

			if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.wantDebugOn {
				t.Errorf("level %q: debug enabled = %v, want %v", tt.level, got, tt.wantDebugOn)
			}
			if got := logger.Enabled(ctx, slog.LevelWarn); got != tt.wantWarnOn {
				t.Errorf("level %q: warn enabled = %v, want %v", tt.level, got, tt.wantWarnOn)
			}
		})
	}
}
