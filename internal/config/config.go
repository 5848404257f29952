package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"reinnin/internal/game"
)

type APIConfig struct {
	Addr           string
	DatabaseURL    string
	SQLitePath     string
	AdminPass      string
	AllowedOrigins []string
	Rules          game.Rules
}

type CLIConfig struct {
	APIBaseURL string
}

// gameFile is the optional YAML overlay pointed at by REINNIN_GAME_CONFIG.
// It carries the classroom-variant knobs; env vars still win over it.
type gameFile struct {
	AdminPass string     `yaml:"admin_pass"`
	Rules     game.Rules `yaml:",inline"`
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("REINNIN_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:           addr,
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:     envDefault("REINNIN_DB_PATH", "re_game.db"),
		AdminPass:      "1nn1n",
		AllowedOrigins: envListDefault("REINNIN_CORS_ORIGINS", []string{"*"}),
		Rules:          game.DefaultRules(),
	}

	if path := strings.TrimSpace(os.Getenv("REINNIN_GAME_CONFIG")); path != "" {
		if err := loadGameFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.AdminPass = envDefault("REINNIN_ADMIN_PASS", cfg.AdminPass)
	cfg.Rules.StartingCash = envFloatDefault("REINNIN_STARTING_CASH", cfg.Rules.StartingCash)
	cfg.Rules.SaleCapFactor = envFloatDefault("REINNIN_SALE_CAP_FACTOR", cfg.Rules.SaleCapFactor)
	cfg.Rules.StartWeek = envIntDefault("REINNIN_START_WEEK", cfg.Rules.StartWeek)
	cfg.Rules.EndWeek = envIntDefault("REINNIN_END_WEEK", cfg.Rules.EndWeek)
	cfg.Rules.AccrueWeeklyIncome = envBoolDefault("REINNIN_ACCRUE_INCOME", cfg.Rules.AccrueWeeklyIncome)
	cfg.Rules.AccrualDivisor = envFloatDefault("REINNIN_ACCRUAL_DIVISOR", cfg.Rules.AccrualDivisor)

	if err := cfg.Rules.Validate(); err != nil {
		return cfg, err
	}
	if cfg.AdminPass == "" {
		return cfg, fmt.Errorf("admin password must not be empty")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("REIN_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func loadGameFile(path string, cfg *APIConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read game config %s: %w", path, err)
	}
	overlay := gameFile{AdminPass: cfg.AdminPass, Rules: cfg.Rules}
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse game config %s: %w", path, err)
	}
	cfg.AdminPass = overlay.AdminPass
	cfg.Rules = overlay.Rules
	return nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envListDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
