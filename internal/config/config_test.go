package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!!")
	os.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.TokenExpiry != 7*24*time.Hour {
		t.Errorf("TokenExpiry: got %v, want %v", cfg.Auth.TokenExpiry, 7*24*time.Hour)
	}
	if cfg.Database.ConnectRetryDelay != 5*time.Second {
		t.Errorf("ConnectRetryDelay: got %v, want 5s", cfg.Database.ConnectRetryDelay)
	}
	if cfg.Upload.MaxSize != 5*1024*1024 {
		t.Errorf("MaxSize: got %d, want %d", cfg.Upload.MaxSize, 5*1024*1024)
	}
	if cfg.Database.Name != "escola_solidaria" {
		t.Errorf("Database.Name: got %q, want escola_solidaria", cfg.Database.Name)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want JWT_SECRET error")
	}
}

func TestLoad_WeakJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"too short dev", "short", "development", true},
		{"long enough dev", "sixteen-chars-ok", "development", false},
		{"dev length rejected in production", "sixteen-chars-ok", "production", true},
		{"production length", "this-secret-is-at-least-32-chars!", "production", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("DB_PASSWORD", "test")
			os.Setenv("JWT_SECRET", tt.secret)
			os.Setenv("ENV", tt.env)
			defer os.Clearenv()

			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!!")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want DB_PASSWORD error")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv()
	os.Setenv("TOKEN_EXPIRY", "24h")
	os.Setenv("MAX_UPLOAD_SIZE", "1048576")
	os.Setenv("REDIS_ADDR", "localhost:6379")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.TokenExpiry != 24*time.Hour {
		t.Errorf("TokenExpiry: got %v, want 24h", cfg.Auth.TokenExpiry)
	}
	if cfg.Upload.MaxSize != 1048576 {
		t.Errorf("MaxSize: got %d, want 1048576", cfg.Upload.MaxSize)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr: got %q, want localhost:6379", cfg.Cache.RedisAddr)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5433, User: "app", Password: "pw",
		Name: "escola", SSLMode: "require",
	}

	want := "host=db port=5433 user=app password=pw dbname=escola sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
