package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/maastricht-university/pasat-pipeline/scoring"
)

type Google struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	LanguageCode string `mapstructure:"language_code" yaml:"language_code"`
	Model        string `mapstructure:"model" yaml:"model"`
	Credentials  string `mapstructure:"credentials" yaml:"credentials"`
	MaxRetries   int    `mapstructure:"max_retries" yaml:"max_retries"`
}
type Service struct {
	URL string `mapstructure:"url" yaml:"url"`
}
type Services struct {
	Google Google  `mapstructure:"google" yaml:"google"`
	ASR    Service `mapstructure:"asr" yaml:"asr"`
}
type Scoring struct {
	ResponseWindow    float64 `mapstructure:"response_window" yaml:"response_window"`
	FastResponseGuard float64 `mapstructure:"fast_response_guard" yaml:"fast_response_guard"`
	AcceptanceFactor  float64 `mapstructure:"acceptance_factor" yaml:"acceptance_factor"`
	AcceptanceSlack   float64 `mapstructure:"acceptance_slack" yaml:"acceptance_slack"`
	OnTimeLimit       float64 `mapstructure:"on_time_limit" yaml:"on_time_limit"`
}
type Detector struct {
	SilenceThresholdDB float64 `mapstructure:"silence_threshold_db" yaml:"silence_threshold_db"`
	MinSilenceMs       int     `mapstructure:"min_silence_ms" yaml:"min_silence_ms"`
	SeekStepMs         int     `mapstructure:"seek_step_ms" yaml:"seek_step_ms"`
}
type Clips struct {
	PaddingMs int `mapstructure:"padding_ms" yaml:"padding_ms"`
}
type Transcription struct {
	Workers        int           `mapstructure:"workers" yaml:"workers"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	AlwaysFallback bool          `mapstructure:"always_fallback" yaml:"always_fallback"`
}
type Cache struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Disabled bool   `mapstructure:"disabled" yaml:"disabled"`
}
type Root struct {
	Pipeline struct {
		Name      string `mapstructure:"name" yaml:"name"`
		LogLvl    string `mapstructure:"log_level" yaml:"log_level"`
		LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	} `mapstructure:"pipeline" yaml:"pipeline"`
	Scoring       Scoring       `mapstructure:"scoring" yaml:"scoring"`
	Detector      Detector      `mapstructure:"detector" yaml:"detector"`
	Clips         Clips         `mapstructure:"clips" yaml:"clips"`
	Transcription Transcription `mapstructure:"transcription" yaml:"transcription"`
	Services      Services      `mapstructure:"services" yaml:"services"`
	Cache         Cache         `mapstructure:"cache" yaml:"cache"`
	Paths         struct {
		Data    string `mapstructure:"data" yaml:"data"`
		Outputs string `mapstructure:"outputs" yaml:"outputs"`
	} `mapstructure:"paths" yaml:"paths"`
}

// Defaults follow the last revision of the scoring scripts.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "pasat")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")

	v.SetDefault("scoring.response_window", 2.0)
	v.SetDefault("scoring.fast_response_guard", 0.1)
	v.SetDefault("scoring.acceptance_factor", 1.5)
	v.SetDefault("scoring.acceptance_slack", 0.0)
	v.SetDefault("scoring.on_time_limit", 2.0)

	v.SetDefault("detector.silence_threshold_db", -20.0)
	v.SetDefault("detector.min_silence_ms", 100)
	v.SetDefault("detector.seek_step_ms", 1)

	v.SetDefault("clips.padding_ms", 600)

	v.SetDefault("transcription.workers", 4)
	v.SetDefault("transcription.timeout", 30*time.Second)
	v.SetDefault("transcription.always_fallback", false)

	v.SetDefault("services.google.enabled", true)
	v.SetDefault("services.google.language_code", "en-US")
	v.SetDefault("services.google.max_retries", 3)
	v.SetDefault("services.asr.url", "")

	v.SetDefault("cache.dir", filepath.Join("outputs", "transcriptions"))
	v.SetDefault("cache.disabled", false)

	v.SetDefault("paths.data", ".")
	v.SetDefault("paths.outputs", "outputs")
}

// New returns a viper instance with defaults and PASAT_ env overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("PASAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path if given, otherwise the first config file found among the
// usual locations. A missing file is not an error; defaults apply.
func Load(v *viper.Viper, path string) (*Root, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		guess := []string{
			filepath.Join("config", env, "config.yaml"),
			"pasat.yaml",
		}
		for _, p := range guess {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config %s: %w", p, err)
			}
			break
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Root) Validate() error {
	var errs []error
	if c.Scoring.ResponseWindow <= 0 {
		errs = append(errs, fmt.Errorf("scoring.response_window must be positive, got %v", c.Scoring.ResponseWindow))
	}
	if c.Scoring.FastResponseGuard < 0 {
		errs = append(errs, fmt.Errorf("scoring.fast_response_guard must not be negative, got %v", c.Scoring.FastResponseGuard))
	}
	if c.Scoring.AcceptanceFactor <= 0 {
		errs = append(errs, fmt.Errorf("scoring.acceptance_factor must be positive, got %v", c.Scoring.AcceptanceFactor))
	}
	if c.Detector.MinSilenceMs <= 0 {
		errs = append(errs, fmt.Errorf("detector.min_silence_ms must be positive, got %d", c.Detector.MinSilenceMs))
	}
	if c.Detector.SeekStepMs <= 0 {
		errs = append(errs, fmt.Errorf("detector.seek_step_ms must be positive, got %d", c.Detector.SeekStepMs))
	}
	if c.Clips.PaddingMs < 0 {
		errs = append(errs, fmt.Errorf("clips.padding_ms must not be negative, got %d", c.Clips.PaddingMs))
	}
	if c.Transcription.Workers <= 0 {
		errs = append(errs, fmt.Errorf("transcription.workers must be positive, got %d", c.Transcription.Workers))
	}
	return errors.Join(errs...)
}

func (c *Root) MatchParams() scoring.MatchParams {
	return scoring.MatchParams{
		ResponseWindow:    c.Scoring.ResponseWindow,
		FastResponseGuard: c.Scoring.FastResponseGuard,
		AcceptanceFactor:  c.Scoring.AcceptanceFactor,
		AcceptanceSlack:   c.Scoring.AcceptanceSlack,
	}
}

func (c *Root) Scorer() scoring.Scorer {
	return scoring.Scorer{Delay: c.Scoring.OnTimeLimit, Words: scoring.DefaultWords()}
}
