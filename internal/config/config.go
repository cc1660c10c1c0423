package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/identity"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/quality"
)

// Config is the full reconciler configuration
type Config struct {
	Sources  SourcesConfig   `koanf:"sources"`
	Quality  QualityConfig   `koanf:"quality"`
	Identity identity.Policy `koanf:"identity"`
	Merge    MergeConfig     `koanf:"merge"`
	Output   OutputConfig    `koanf:"output"`
	Enrich   EnrichConfig    `koanf:"enrich"`
}

// SourceConfig names one input source and where its table lives
type SourceConfig struct {
	Name       string `koanf:"name" validate:"required"`
	Path       string `koanf:"path"`
	FlagPrefix string `koanf:"flag_prefix" validate:"required"`
}

// SourcesConfig holds the scraped (primary) and API (secondary) sources
type SourcesConfig struct {
	Primary   SourceConfig `koanf:"primary"`
	Secondary SourceConfig `koanf:"secondary"`
}

// QualityConfig holds the gate rules and extra language aliases
type QualityConfig struct {
	PrimaryGate   []quality.GateRule  `koanf:"primary_gate" validate:"dive"`
	SecondaryGate []quality.GateRule  `koanf:"secondary_gate" validate:"dive"`
	Languages     map[string][]string `koanf:"languages"`
}

// MergeConfig selects how rows sharing a book_id collapse
type MergeConfig struct {
	Collapse string `koanf:"collapse" validate:"oneof=keep-first most-complete"`
}

// OutputConfig controls where artifacts are written
type OutputConfig struct {
	Dir           string `koanf:"dir" validate:"required"`
	MetricsFormat string `koanf:"metrics_format" validate:"oneof=json yaml"`
	PromFile      string `koanf:"prom_file"`
}

// EnrichConfig controls the Google Books enrichment client
type EnrichConfig struct {
	APIKey         string        `koanf:"api_key"`
	Endpoint       string        `koanf:"endpoint" validate:"omitempty,url"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	RatePerSecond  float64       `koanf:"rate_per_second" validate:"gt=0"`
	Burst          int           `koanf:"burst" validate:"min=1"`
	MaxFailures    uint32        `koanf:"max_failures" validate:"min=1"`
	BreakerTimeout time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
	Limit          int           `koanf:"limit" validate:"min=0"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Primary:   SourceConfig{Name: "goodreads", FlagPrefix: "q_gr_"},
			Secondary: SourceConfig{Name: "googlebooks", FlagPrefix: "q_gb_"},
		},
		Quality: QualityConfig{
			PrimaryGate:   quality.DefaultPrimaryGate(),
			SecondaryGate: quality.DefaultSecondaryGate(),
		},
		Identity: identity.DefaultPolicy(),
		Merge:    MergeConfig{Collapse: "keep-first"},
		Output: OutputConfig{
			Dir:           "output",
			MetricsFormat: "json",
		},
		Enrich: EnrichConfig{
			Timeout:        10 * time.Second,
			RatePerSecond:  1,
			Burst:          1,
			MaxFailures:    5,
			BreakerTimeout: 30 * time.Second,
		},
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks struct constraints and cross-field rules
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			messages = append(messages, fmt.Sprintf("%s failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
	}

	if c.Sources.Primary.Name == c.Sources.Secondary.Name {
		return fmt.Errorf("invalid configuration: source names must differ, both are %q", c.Sources.Primary.Name)
	}
	if c.Sources.Primary.FlagPrefix == c.Sources.Secondary.FlagPrefix {
		return fmt.Errorf("invalid configuration: flag prefixes must differ, both are %q", c.Sources.Primary.FlagPrefix)
	}
	return nil
}
