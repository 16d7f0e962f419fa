// Package config resolves the matcher settings from flags, environment
// variables prefixed SESSION_MATCHER_, an optional YAML file, and defaults,
// in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"k8s.io/utils/ptr"

	"github.com/llm-d-incubation/session-matcher/internal/engines/trial"
	"github.com/llm-d-incubation/session-matcher/internal/report"
	"github.com/llm-d-incubation/session-matcher/internal/utils/names"
)

// EnvPrefix is prepended to every environment variable, e.g.
// SESSION_MATCHER_ITERATIONS.
const EnvPrefix = "SESSION_MATCHER"

// Setting keys. Flags, environment variables and config file entries use the
// same names.
const (
	KeyIterations   = "iterations"
	KeyPresort      = "presort"
	KeyNumeric      = "numeric"
	KeySeed         = "seed"
	KeyStrategy     = "strategy"
	KeyParallelism  = "parallelism"
	KeyMaxChoices   = "max-choices"
	KeyForce        = "force"
	KeyVerbose      = "verbose"
	KeyReportFormat = "report-format"
	KeyMetricsFile  = "metrics-file"
	KeyArchive      = "archive"
	KeyLogLevel     = "log-level"
	KeyDevelopment  = "log-development"
	KeyOverrides    = "overrides"
)

// Config holds the resolved settings of one invocation.
type Config struct {
	// Iterations is the number of trials to run; the best is kept.
	Iterations int
	// Presort is the pre-seeding depth. Nil disables pre-seeding.
	Presort *int
	// Numeric canonicalizes session names as integers.
	Numeric bool
	// Seed is the base seed of the trial runner; 0 draws a random one.
	Seed uint64
	// Strategy is "sequential" or "parallel".
	Strategy string
	// Parallelism bounds concurrent trials; 0 means unbounded.
	Parallelism int
	// MaxChoices truncates choice lists; 0 keeps them whole.
	MaxChoices int
	// Force allows overwriting the output file.
	Force bool
	// Verbose prints the statistics report.
	Verbose      bool
	ReportFormat string
	// MetricsFile is a node-exporter textfile path; empty disables it.
	MetricsFile string
	// Archive is the run history DSN; empty disables archiving.
	Archive     string
	LogLevel    string
	Development bool
	// Overrides replace the capacity of loaded sessions.
	Overrides []CapacityOverride
}

// SetDefaults registers the default of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyIterations, 1)
	v.SetDefault(KeyNumeric, false)
	v.SetDefault(KeySeed, uint64(0))
	v.SetDefault(KeyStrategy, trial.SequentialStrategy.String())
	v.SetDefault(KeyParallelism, 0)
	v.SetDefault(KeyMaxChoices, 0)
	v.SetDefault(KeyForce, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyReportFormat, string(report.FormatText))
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyArchive, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDevelopment, false)
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// BindFlags binds every flag of fs whose name is a setting key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			errs = append(errs, fmt.Errorf("binding flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load reads the optional config file and resolves a validated Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Iterations:   v.GetInt(KeyIterations),
		Numeric:      v.GetBool(KeyNumeric),
		Seed:         v.GetUint64(KeySeed),
		Strategy:     v.GetString(KeyStrategy),
		Parallelism:  v.GetInt(KeyParallelism),
		MaxChoices:   v.GetInt(KeyMaxChoices),
		Force:        v.GetBool(KeyForce),
		Verbose:      v.GetBool(KeyVerbose),
		ReportFormat: v.GetString(KeyReportFormat),
		MetricsFile:  v.GetString(KeyMetricsFile),
		Archive:      v.GetString(KeyArchive),
		LogLevel:     v.GetString(KeyLogLevel),
		Development:  v.GetBool(KeyDevelopment),
	}
	if v.IsSet(KeyPresort) {
		cfg.Presort = ptr.To(v.GetInt(KeyPresort))
	}

	overrides, err := decodeOverrides(v.Get(KeyOverrides))
	if err != nil {
		return nil, err
	}
	cfg.Overrides = overrides

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeOverrides converts the generic value viper holds for the overrides
// list into typed entries.
func decodeOverrides(raw any) ([]CapacityOverride, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding overrides: %w", err)
	}
	var out []CapacityOverride
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding overrides: %w", err)
	}
	return out, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}
	if c.Presort != nil && *c.Presort < 1 {
		return fmt.Errorf("presort must be >= 1, got %d", *c.Presort)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must be >= 0, got %d", c.Parallelism)
	}
	if c.MaxChoices < 0 {
		return fmt.Errorf("max-choices must be >= 0, got %d", c.MaxChoices)
	}
	if _, err := trial.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.ReportFormat); err != nil {
		return err
	}
	return nil
}

// Mode returns the session naming mode.
func (c *Config) Mode() names.Mode { return names.ModeFor(c.Numeric) }

// PresortDepth returns the pre-seeding depth, 0 when disabled.
func (c *Config) PresortDepth() int { return ptr.Deref(c.Presort, 0) }

// TrialConfig builds the trial runner configuration.
func (c *Config) TrialConfig(observer trial.Observer) *trial.Config {
	return &trial.Config{
		Iterations:  c.Iterations,
		Presort:     c.PresortDepth(),
		Seed:        c.Seed,
		Parallelism: c.Parallelism,
		Observer:    observer,
	}
}
