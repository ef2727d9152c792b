package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validEnv sets the minimum required env vars for a valid config.
func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
  write_timeout: "15s"
  idle_timeout: "30s"
  shutdown_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2

log:
  level: "debug"
  format: "text"

rate_limit:
  enabled: true
  requests_per_minute: 60
  cleanup_interval: "2m"

upload:
  dir: "./data/uploads"

broker:
  zerodha_api_key: "zkey"
  zerodha_access_token: "ztoken"
  groww_accounts: "GROWW-ME:tok1,GROWW-DAD:tok2"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Server
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want %v", cfg.Server.ReadTimeout, 5*time.Second)
	}

	// Database
	if cfg.Database.DSN != "postgres://u:p@localhost:5432/testdb" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want %q", cfg.Log.Format, "text")
	}

	// Rate limit
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("rate_limit.requests_per_minute = %d, want 60", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.RateLimit.CleanupInterval != 2*time.Minute {
		t.Errorf("rate_limit.cleanup_interval = %v, want 2m", cfg.RateLimit.CleanupInterval)
	}

	// Upload
	if cfg.Upload.Dir != "./data/uploads" {
		t.Errorf("upload.dir = %q", cfg.Upload.Dir)
	}

	// Broker
	if !cfg.Broker.HasZerodha() {
		t.Error("broker.HasZerodha() should be true")
	}
	if len(cfg.Broker.GrowwAccounts) != 2 {
		t.Fatalf("broker.groww_accounts len = %d, want 2", len(cfg.Broker.GrowwAccounts))
	}
	if cfg.Broker.GrowwAccounts[0].Name != "GROWW-ME" || cfg.Broker.GrowwAccounts[0].AccessToken != "tok1" {
		t.Errorf("broker.groww_accounts[0] = %+v", cfg.Broker.GrowwAccounts[0])
	}
	if cfg.Broker.GrowwAccounts[1].Name != "GROWW-DAD" || cfg.Broker.GrowwAccounts[1].AccessToken != "tok2" {
		t.Errorf("broker.groww_accounts[1] = %+v", cfg.Broker.GrowwAccounts[1])
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000 (ENV override)", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	validEnv(t)

	t.Setenv("CONFIG_PATH", "")
	// Set working dir to a temp dir with no config.yaml
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080 (default)", cfg.Server.Port)
	}
	if cfg.Upload.Dir != "uploads" {
		t.Errorf("upload.dir = %q, want %q (default)", cfg.Upload.Dir, "uploads")
	}
	if cfg.Broker.HasZerodha() {
		t.Error("broker.HasZerodha() should be false without credentials")
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_EmptyUploadDir(t *testing.T) {
	cfg := validConfig()
	cfg.Upload.Dir = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty upload dir")
	}
}

func TestValidate_RateLimitEnabledZeroRPM(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMinute = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for RequestsPerMinute = 0 when enabled")
	}
}

func TestValidate_RateLimitDisabledZeroRPM(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.RequestsPerMinute = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error when rate limiting disabled: %v", err)
	}
}

func TestValidate_ZerodhaPartialCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Broker.ZerodhaAPIKey = "key"
	cfg.Broker.ZerodhaAccessToken = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for api key without access token")
	}
}

func TestValidate_ParsesGrowwAccounts(t *testing.T) {
	cfg := validConfig()
	cfg.Broker.GrowwAccountsRaw = "GROWW-ME:tok1"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Broker.GrowwAccounts) != 1 {
		t.Fatalf("GrowwAccounts len = %d, want 1", len(cfg.Broker.GrowwAccounts))
	}
	if cfg.Broker.GrowwAccounts[0].Name != "GROWW-ME" {
		t.Errorf("name = %q, want GROWW-ME", cfg.Broker.GrowwAccounts[0].Name)
	}
}

func TestParseGrowwAccounts_Valid(t *testing.T) {
	accounts, err := ParseGrowwAccounts("A:t1,B:t2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("len = %d, want 2", len(accounts))
	}
	if accounts[0].Name != "A" || accounts[0].AccessToken != "t1" {
		t.Errorf("[0] = %+v", accounts[0])
	}
	if accounts[1].Name != "B" || accounts[1].AccessToken != "t2" {
		t.Errorf("[1] = %+v", accounts[1])
	}
}

func TestParseGrowwAccounts_WithSpaces(t *testing.T) {
	accounts, err := ParseGrowwAccounts(" A : t1 , B : t2 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("len = %d, want 2", len(accounts))
	}
	if accounts[1].AccessToken != "t2" {
		t.Errorf("[1].AccessToken = %q, want t2", accounts[1].AccessToken)
	}
}

func TestParseGrowwAccounts_Empty(t *testing.T) {
	accounts, err := ParseGrowwAccounts("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accounts != nil {
		t.Errorf("expected nil, got %v", accounts)
	}
}

func TestParseGrowwAccounts_MissingToken(t *testing.T) {
	_, err := ParseGrowwAccounts("A:t1,B")
	if err == nil {
		t.Fatal("expected error for entry without token")
	}
}

func TestParseGrowwAccounts_DuplicateName(t *testing.T) {
	_, err := ParseGrowwAccounts("A:t1,A:t2")
	if err == nil {
		t.Fatal("expected error for duplicate account name")
	}
}

// validConfig returns a Config that passes all validation checks.
func validConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 120,
			CleanupInterval:   5 * time.Minute,
		},
		Upload: UploadConfig{
			Dir: "uploads",
		},
	}
}
