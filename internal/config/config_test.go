package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearAPIEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "REINNIN_API_ADDR", "DATABASE_URL", "REINNIN_DB_PATH",
		"REINNIN_GAME_CONFIG", "REINNIN_ADMIN_PASS", "REINNIN_CORS_ORIGINS",
		"REINNIN_STARTING_CASH", "REINNIN_SALE_CAP_FACTOR",
		"REINNIN_START_WEEK", "REINNIN_END_WEEK",
		"REINNIN_ACCRUE_INCOME", "REINNIN_ACCRUAL_DIVISOR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAPIDefaults(t *testing.T) {
	clearAPIEnv(t)

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.SQLitePath != "re_game.db" {
		t.Fatalf("sqlite path = %q, want re_game.db", cfg.SQLitePath)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("database url = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.AdminPass != "1nn1n" {
		t.Fatalf("admin pass = %q, want default", cfg.AdminPass)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("origins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.Rules.StartingCash != 26_000_000 || cfg.Rules.SaleCapFactor != 1.07 {
		t.Fatalf("rules = %+v, want defaults", cfg.Rules)
	}
}

func TestLoadAPIPortOverridesAddr(t *testing.T) {
	clearAPIEnv(t)
	t.Setenv("PORT", "9100")
	t.Setenv("REINNIN_API_ADDR", ":7000")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("addr = %q, want :9100", cfg.Addr)
	}
}

func TestLoadAPIEnvOverrides(t *testing.T) {
	clearAPIEnv(t)
	t.Setenv("REINNIN_ADMIN_PASS", "sup3r")
	t.Setenv("REINNIN_STARTING_CASH", "1000000")
	t.Setenv("REINNIN_SALE_CAP_FACTOR", "1.10")
	t.Setenv("REINNIN_END_WEEK", "10")
	t.Setenv("REINNIN_ACCRUE_INCOME", "true")
	t.Setenv("REINNIN_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminPass != "sup3r" {
		t.Fatalf("admin pass = %q", cfg.AdminPass)
	}
	if cfg.Rules.StartingCash != 1_000_000 || cfg.Rules.SaleCapFactor != 1.10 {
		t.Fatalf("rules = %+v", cfg.Rules)
	}
	if cfg.Rules.EndWeek != 10 || !cfg.Rules.AccrueWeeklyIncome {
		t.Fatalf("rules = %+v", cfg.Rules)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadAPIGameFileOverlay(t *testing.T) {
	clearAPIEnv(t)
	path := filepath.Join(t.TempDir(), "game.yaml")
	yaml := "admin_pass: classroom\nstarting_cash: 30000000\nsale_cap_factor: 1.05\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("REINNIN_GAME_CONFIG", path)

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminPass != "classroom" {
		t.Fatalf("admin pass = %q, want classroom", cfg.AdminPass)
	}
	if cfg.Rules.StartingCash != 30_000_000 || cfg.Rules.SaleCapFactor != 1.05 {
		t.Fatalf("rules = %+v, want yaml values", cfg.Rules)
	}
	// Fields the file omits keep their defaults.
	if cfg.Rules.EndWeek != 14 {
		t.Fatalf("end week = %d, want 14", cfg.Rules.EndWeek)
	}

	// Env still wins over the file.
	t.Setenv("REINNIN_ADMIN_PASS", "override")
	cfg, err = LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminPass != "override" {
		t.Fatalf("admin pass = %q, want override", cfg.AdminPass)
	}
}

func TestLoadAPIInvalidRules(t *testing.T) {
	clearAPIEnv(t)
	t.Setenv("REINNIN_SALE_CAP_FACTOR", "0.5")

	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatal("expected error for cap factor < 1")
	}
}

func TestLoadCLIFromEnv(t *testing.T) {
	t.Setenv("REIN_API_BASE_URL", "")
	if got := LoadCLIFromEnv().APIBaseURL; got != "http://localhost:8080" {
		t.Fatalf("base url = %q", got)
	}
	t.Setenv("REIN_API_BASE_URL", "https://game.example/")
	if got := LoadCLIFromEnv().APIBaseURL; got != "https://game.example" {
		t.Fatalf("base url = %q, want trailing slash trimmed", got)
	}
}
