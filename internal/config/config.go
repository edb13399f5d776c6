// Package config loads and validates the trading client configuration. The
// engine refuses to start for a region it cannot price (missing tick or fee
// tables), so misconfiguration is fatal at startup rather than per call.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/krx-lab/meridian-trading/internal/market"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/internal/version"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// BrokerConfig describes the brokerage REST endpoint and account.
type BrokerConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	AppKey         string `yaml:"app_key" validate:"required"`
	AppSecret      string `yaml:"app_secret" validate:"required"`
	AccountNumber  string `yaml:"account_number" validate:"required"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1,lte=120"`
}

// Timeout returns the per-request timeout for broker calls.
func (c BrokerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthConfig controls the token lifecycle manager.
type AuthConfig struct {
	// CredentialPath is the persisted credential store file, shared by all
	// processes on the host.
	CredentialPath       string `yaml:"credential_path" validate:"required"`
	SafetyBufferMinutes  int    `yaml:"safety_buffer_minutes" validate:"gte=1"`
	RefreshWindowMinutes int    `yaml:"refresh_window_minutes" validate:"gte=1"`
}

// SafetyBuffer is the margin before nominal expiry in which the credential
// is no longer considered usable.
func (c AuthConfig) SafetyBuffer() time.Duration {
	return time.Duration(c.SafetyBufferMinutes) * time.Minute
}

// RefreshWindow is the proactive-refresh lead window before expiry.
func (c AuthConfig) RefreshWindow() time.Duration {
	return time.Duration(c.RefreshWindowMinutes) * time.Minute
}

// RateLimitConfig caps outbound API traffic, from provider policy.
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" validate:"gte=1"`
	MaxPerMinute int `yaml:"max_per_minute" validate:"gte=1"`
}

// RiskConfig holds stop-loss/take-profit thresholds and circuit-breaker
// limits. Loss thresholds are negative percentages.
type RiskConfig struct {
	StopLossPct          float64 `yaml:"stop_loss_pct" validate:"lt=0"`
	TakeProfitPct        float64 `yaml:"take_profit_pct" validate:"gt=0"`
	DailyLossLimitPct    float64 `yaml:"daily_loss_limit_pct" validate:"lt=0"`
	MaxPositionCount     int     `yaml:"max_position_count" validate:"gte=1"`
	MaxSectorExposurePct float64 `yaml:"max_sector_exposure_pct" validate:"gt=0,lte=100"`
	ConsecutiveLossLimit int     `yaml:"consecutive_loss_limit" validate:"gte=1"`
	PollIntervalSeconds  int     `yaml:"poll_interval_seconds" validate:"gte=1"`
}

// PollInterval is the risk evaluation cycle period.
func (c RiskConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// LedgerConfig locates the position/trade store.
type LedgerConfig struct {
	// Path is the DuckDB database file; empty means in-memory.
	Path string `yaml:"path"`
}

// PriceSourceConfig selects live quote providers.
type PriceSourceConfig struct {
	// PolygonAPIKey enables the Polygon price source for the US region.
	PolygonAPIKey string `yaml:"polygon_api_key"`
}

// Config is the full trading client configuration.
type Config struct {
	// SchemaVersion pins the config file to the client release it was
	// written for. Empty skips the compatibility check.
	SchemaVersion string            `yaml:"schema_version"`
	Broker        BrokerConfig      `yaml:"broker" validate:"required"`
	Auth          AuthConfig        `yaml:"auth" validate:"required"`
	RateLimit     RateLimitConfig   `yaml:"rate_limit"`
	Risk          RiskConfig        `yaml:"risk"`
	Ledger        LedgerConfig      `yaml:"ledger"`
	PriceSource   PriceSourceConfig `yaml:"price_source"`
	Regions       []types.Region    `yaml:"regions" validate:"required,min=1,dive,oneof=KR US JP HK CN VN"`
	// DryRun routes submissions through the simulated broker; no network
	// calls are made.
	DryRun bool `yaml:"dry_run"`
}

// DefaultConfig returns a Config populated with provider-policy defaults.
// Broker credentials and the credential path still have to be supplied.
func DefaultConfig() Config {
	return Config{
		Broker: BrokerConfig{
			TimeoutSeconds: 10,
		},
		Auth: AuthConfig{
			SafetyBufferMinutes:  5,
			RefreshWindowMinutes: 30,
		},
		RateLimit: RateLimitConfig{
			MaxPerSecond: 20,
			MaxPerMinute: 1000,
		},
		Risk: RiskConfig{
			StopLossPct:          -8,
			TakeProfitPct:        20,
			DailyLossLimitPct:    -3,
			MaxPositionCount:     10,
			MaxSectorExposurePct: 40,
			ConsecutiveLossLimit: 3,
			PollIntervalSeconds:  30,
		},
		Regions: []types.Region{types.RegionKR},
	}
}

// Load reads a YAML config file on top of the defaults and validates the
// result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks structural constraints and verifies every configured
// region has tick and fee tables.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if c.SchemaVersion != "" {
		if err := version.CheckSchemaCompatibility(version.GetVersion(), c.SchemaVersion); err != nil {
			return err
		}
	}

	for _, region := range c.Regions {
		if err := market.EnsureRegion(region); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "region %s is not tradable", region)
		}
	}

	return nil
}
