// Package config loads the reconciler's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no --config flag is given.
const DefaultPath = "app-reconciler.yaml"

// Update failure policies.
const (
	UpdateAbort = "abort"
	UpdateSkip  = "skip"
)

// ErrMissingAPIKey is returned when a command needs the remote API and no key
// was configured.
var ErrMissingAPIKey = errors.New("no API key configured (set api.api_key or FULCRUM_API_KEY)")

// Config holds all reconciler configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Upload    UploadConfig    `yaml:"upload"`
	Columns   ColumnsConfig   `yaml:"columns"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Transform TransformConfig `yaml:"transform"`
	Join      JoinConfig      `yaml:"join"`
}

// APIConfig configures the remote form/record API.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

// RateLimitConfig is the call ceiling: at most Calls per Per.
type RateLimitConfig struct {
	Calls int    `yaml:"calls"`
	Per   string `yaml:"per"`
}

// UploadConfig configures record creation and updates.
type UploadConfig struct {
	CreateAttempts int    `yaml:"create_attempts"`
	CreateBackoff  string `yaml:"create_backoff"`
	UpdateFailure  string `yaml:"update_failure"`
	FailureLog     string `yaml:"failure_log"`
	SkipLog        string `yaml:"skip_log"`
	IDMap          string `yaml:"id_map"`
	// LinkMap is the id map written by the import of the prior schema. It is
	// only read by follow-up imports, to resolve their record links.
	LinkMap string `yaml:"link_map,omitempty"`
}

// ColumnsConfig names the bookkeeping columns of flat exports.
type ColumnsConfig struct {
	ID        string `yaml:"id"`
	ParentID  string `yaml:"parent_id"`
	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`
}

// ReconcileConfig configures the column reconciliation pass.
type ReconcileConfig struct {
	OutputDir string       `yaml:"output_dir"`
	Rules     []RuleConfig `yaml:"rules,omitempty"`
	// FileAliases maps a target file postfix to the base postfix it should be
	// compared against, for repeatables renamed between the two apps.
	FileAliases map[string]string `yaml:"file_aliases,omitempty"`
}

// RuleConfig is a deterministic rename: columns matching Pattern are renamed
// to Replace, which may reference capture groups as ${1}.
type RuleConfig struct {
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

// TransformConfig configures the transform command.
type TransformConfig struct {
	Merges  []MergeConfig   `yaml:"merges,omitempty"`
	Copies  []CopyConfig    `yaml:"copies,omitempty"`
	Derived []DerivedConfig `yaml:"derived,omitempty"`
}

// MergeConfig fills Into from From when Into is empty. With AllowMultiple a
// non-empty Into gets From appended after a comma. Bucket defaults to base.
type MergeConfig struct {
	Bucket        string `yaml:"bucket,omitempty"`
	Into          string `yaml:"into"`
	From          string `yaml:"from"`
	AllowMultiple bool   `yaml:"allow_multiple,omitempty"`
}

// CopyConfig copies source columns into new columns. Bucket defaults to base.
type CopyConfig struct {
	Bucket  string            `yaml:"bucket,omitempty"`
	Columns map[string]string `yaml:"columns"`
}

// DerivedConfig adds a column to every transformed row. Either Value is set,
// or From names a source column whose value is looked up in Map.
type DerivedConfig struct {
	Column string            `yaml:"column"`
	Value  string            `yaml:"value"`
	From   string            `yaml:"from"`
	Map    map[string]string `yaml:"map,omitempty"`
}

// JoinConfig names the columns used to attach and build site locations.
type JoinConfig struct {
	// Column receives the matched site location id.
	Column string `yaml:"column"`
	// AddressPrefix prefixes every address component column.
	AddressPrefix string `yaml:"address_prefix"`
	// AddressChecks are the components that must be equal for a match.
	AddressChecks []string `yaml:"address_checks"`
	// AddressParts are the components copied into new site locations.
	AddressParts []string `yaml:"address_parts"`

	ClientName    string `yaml:"client_name"`
	AccountRef    string `yaml:"account_reference"`
	PropertyType  string `yaml:"property_type"`
	AccountStatus string `yaml:"account_status"`

	SiteID         string `yaml:"site_id"`
	SiteClientName string `yaml:"site_client_name"`
	SiteJobID      string `yaml:"site_job_id"`
	ClientID       string `yaml:"client_id"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.fulcrumapp.com/api/v2",
			Timeout: "60s",
		},
		RateLimit: RateLimitConfig{
			Calls: 4000,
			Per:   "1h",
		},
		Upload: UploadConfig{
			CreateAttempts: 3,
			CreateBackoff:  "5s",
			UpdateFailure:  UpdateAbort,
			FailureLog:     "failed_records.log",
			SkipLog:        "skipped_records.log",
			IDMap:          ".record_map.json",
		},
		Columns: ColumnsConfig{
			ID:        "fulcrum_id",
			ParentID:  "fulcrum_parent_id",
			Latitude:  "latitude",
			Longitude: "longitude",
		},
		Reconcile: ReconcileConfig{
			OutputDir: "new_files",
		},
		Join: JoinConfig{
			Column:        "site_location",
			AddressPrefix: "site_address_",
			AddressChecks: []string{
				"postal_code", "thoroughfare", "sub_thoroughfare",
				"locality", "admin_area", "country",
			},
			AddressParts: []string{
				"sub_thoroughfare", "thoroughfare", "locality", "sub_admin_area",
				"admin_area", "postal_code", "country", "full",
			},
			ClientName:     "client_name",
			AccountRef:     "account_reference",
			PropertyType:   "property_type",
			AccountStatus:  "account_status",
			SiteID:         "fulcrum_id",
			SiteClientName: "client_name",
			SiteJobID:      "job_id",
			ClientID:       "fulcrum_id",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("FULCRUM_API_KEY"); key != "" {
		c.API.APIKey = key
	}

	if url := os.Getenv("FULCRUM_BASE_URL"); url != "" {
		c.API.BaseURL = url
	}
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	var errs []error

	if c.RateLimit.Calls <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.calls must be positive, got %d", c.RateLimit.Calls))
	}

	if d, err := time.ParseDuration(c.RateLimit.Per); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.per: invalid duration %q", c.RateLimit.Per))
	}

	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("api.timeout: invalid duration %q", c.API.Timeout))
	}

	if c.Upload.CreateAttempts < 1 {
		errs = append(errs, fmt.Errorf("upload.create_attempts must be at least 1, got %d", c.Upload.CreateAttempts))
	}

	if _, err := time.ParseDuration(c.Upload.CreateBackoff); err != nil {
		errs = append(errs, fmt.Errorf("upload.create_backoff: invalid duration %q", c.Upload.CreateBackoff))
	}

	if c.Upload.UpdateFailure != UpdateAbort && c.Upload.UpdateFailure != UpdateSkip {
		errs = append(errs, fmt.Errorf("upload.update_failure must be %q or %q, got %q",
			UpdateAbort, UpdateSkip, c.Upload.UpdateFailure))
	}

	for i, r := range c.Reconcile.Rules {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("reconcile.rules[%d]: %w", i, err))
		}
	}

	for i, m := range c.Transform.Merges {
		if m.Into == "" || m.From == "" {
			errs = append(errs, fmt.Errorf("transform.merges[%d]: into and from are required", i))
		}
	}

	for i, d := range c.Transform.Derived {
		switch {
		case d.Column == "":
			errs = append(errs, fmt.Errorf("transform.derived[%d]: column is required", i))
		case d.From == "" && d.Map != nil:
			errs = append(errs, fmt.Errorf("transform.derived[%d] %s: map requires from", i, d.Column))
		case d.From != "" && d.Value != "":
			errs = append(errs, fmt.Errorf("transform.derived[%d] %s: value and from are exclusive", i, d.Column))
		}
	}

	return errors.Join(errs...)
}

// RequireAPIKey returns ErrMissingAPIKey when no key is configured.
func (c *Config) RequireAPIKey() error {
	if c.API.APIKey == "" {
		return ErrMissingAPIKey
	}

	return nil
}

// MinInterval is the minimum time between two remote calls.
func (c *Config) MinInterval() time.Duration {
	per, err := time.ParseDuration(c.RateLimit.Per)
	if err != nil || c.RateLimit.Calls <= 0 {
		return time.Hour / 4000
	}

	return per / time.Duration(c.RateLimit.Calls)
}

// GetAPITimeout returns the API timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 60 * time.Second
	}

	return d
}

// GetCreateBackoff returns the pause between create attempts.
func (c *Config) GetCreateBackoff() time.Duration {
	d, err := time.ParseDuration(c.Upload.CreateBackoff)
	if err != nil {
		return 5 * time.Second
	}

	return d
}
