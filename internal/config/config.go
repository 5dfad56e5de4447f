package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// APIBaseURLEnv overrides apiBaseURL when set
const APIBaseURLEnv = "MESCTL_API_BASE_URL"

const (
	DefaultRequestTimeout   = 15 * time.Second
	DefaultRefreshInterval  = 5 * time.Minute
	DefaultSearchDebounce   = 200 * time.Millisecond
	DefaultMaxEventSpanDays = 366
	DefaultRecurrenceLimit  = 100
	DefaultSite             = "main"
	DefaultBuilding         = "A"
)

// Session store backends
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// SessionConfig selects where the console session is persisted
type SessionConfig struct {
	Backend       string `yaml:"backend" validate:"omitempty,oneof=file redis postgres"`
	Path          string `yaml:"path,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty" validate:"required_if=Backend redis"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       int    `yaml:"redisDB,omitempty" validate:"min=0"`
	RedisKey      string `yaml:"redisKey,omitempty"`
	PostgresURL   string `yaml:"postgresURL,omitempty" validate:"required_if=Backend postgres"`
}

// PublishConfig points at the Google Sheet the board is published to
type PublishConfig struct {
	SpreadsheetID   string `yaml:"spreadsheetID,omitempty"`
	Tab             string `yaml:"tab,omitempty"`
	OAuthClientFile string `yaml:"oauthClientFile,omitempty"` // Overrides the mesctl_oauth.<env>.json lookup
}

// RecurringTemplate is a named event recipe for `calendar add --template`
type RecurringTemplate struct {
	Name     string `yaml:"name" validate:"required"`
	RRule    string `yaml:"rrule" validate:"required"`
	Tag      string `yaml:"tag,omitempty"`
	Detail   string `yaml:"detail,omitempty"`
	Owner    string `yaml:"owner,omitempty"`
	SpanDays int    `yaml:"spanDays,omitempty" validate:"min=0"`
}

// Config represents the application configuration
type Config struct {
	APIBaseURL         string              `yaml:"apiBaseURL" validate:"required,url"`
	RequestTimeout     time.Duration       `yaml:"requestTimeout,omitempty" validate:"min=0"`
	RefreshInterval    time.Duration       `yaml:"refreshInterval,omitempty" validate:"min=0"`
	SearchDebounce     time.Duration       `yaml:"searchDebounce,omitempty" validate:"min=0"`
	DefaultSite        string              `yaml:"defaultSite,omitempty"`
	DefaultBuilding    string              `yaml:"defaultBuilding,omitempty"`
	MaxEventSpanDays   int                 `yaml:"maxEventSpanDays,omitempty" validate:"min=0"`
	WeekStart          string              `yaml:"weekStart,omitempty" validate:"omitempty,oneof=sunday monday"`
	Session            SessionConfig       `yaml:"session,omitempty"`
	Publish            PublishConfig       `yaml:"publish,omitempty"`
	RecurrenceLimit    int                 `yaml:"recurrenceLimit,omitempty" validate:"min=0"`
	RecurringTemplates []RecurringTemplate `yaml:"recurringTemplates,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Template returns the recurring template with the given name
func (c *Config) Template(name string) (RecurringTemplate, bool) {
	for _, t := range c.RecurringTemplates {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return RecurringTemplate{}, false
}

// Load loads and validates the configuration from mesctl_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment
// For example, env="test" will look for "mesctl_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if override := strings.TrimSpace(os.Getenv(APIBaseURLEnv)); override != "" {
		cfg.APIBaseURL = override
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.SearchDebounce == 0 {
		cfg.SearchDebounce = DefaultSearchDebounce
	}
	if cfg.MaxEventSpanDays == 0 {
		cfg.MaxEventSpanDays = DefaultMaxEventSpanDays
	}
	if cfg.RecurrenceLimit == 0 {
		cfg.RecurrenceLimit = DefaultRecurrenceLimit
	}
	if cfg.DefaultSite == "" {
		cfg.DefaultSite = DefaultSite
	}
	if cfg.DefaultBuilding == "" {
		cfg.DefaultBuilding = DefaultBuilding
	}
	if cfg.WeekStart == "" {
		cfg.WeekStart = "sunday"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = BackendFile
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	seen := make(map[string]bool)
	for i, tmpl := range cfg.RecurringTemplates {
		if _, err := rrule.StrToRRule(tmpl.RRule); err != nil {
			return fmt.Errorf("invalid rrule in recurringTemplates[%d]: %w", i, err)
		}
		key := strings.ToLower(tmpl.Name)
		if seen[key] {
			return fmt.Errorf("duplicate template name in recurringTemplates[%d]: %s", i, tmpl.Name)
		}
		seen[key] = true
	}

	return nil
}

// findConfigFile searches for the config file in current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "mesctl_config.yaml"
	if env != "" {
		configFileName = "mesctl_config." + env + ".yaml"
	}
	return findFile(configFileName)
}
