// Package config loads the YAML configuration for the gate, prompt,
// compose, and stream-hub subsystems, layering a user-supplied file over
// built-in defaults via dario.cat/mergo.
package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/revpilot/gateway/pkg/gate"
	"github.com/revpilot/gateway/pkg/scrub"
)

// GateYAMLConfig mirrors gate.Config for YAML decoding; zero fields are
// left unset so mergo only overrides what the user actually specified.
type GateYAMLConfig struct {
	AutoThresholdChars        *int               `yaml:"auto_threshold_chars,omitempty"`
	AutoThresholdPct          *float64           `yaml:"auto_threshold_pct,omitempty"`
	ManualThresholdChars      *int               `yaml:"manual_threshold_chars,omitempty"`
	ManualThresholdPct        *float64           `yaml:"manual_threshold_pct,omitempty"`
	ColdStartChars            *int               `yaml:"cold_start_chars,omitempty"`
	SemanticDistanceAutoMin   *float64           `yaml:"semantic_distance_auto_min,omitempty"`
	SemanticDistanceManualMin *float64           `yaml:"semantic_distance_manual_min,omitempty"`
	EmbeddingModelID          string             `yaml:"embedding_model_id,omitempty"`
	IntentModels              map[string]string  `yaml:"intent_models,omitempty"`
}

// StreamYAMLConfig configures the encounter delta stream hub.
type StreamYAMLConfig struct {
	MinIntervalMS  int `yaml:"min_interval_ms,omitempty"`
	WriteTimeoutMS int `yaml:"write_timeout_ms,omitempty"`
}

// ScrubYAMLConfig configures PHI tokenization.
type ScrubYAMLConfig struct {
	Mode string `yaml:"mode,omitempty"`
}

// PromptYAMLConfig configures the prompt builder.
type PromptYAMLConfig struct {
	StableCacheSize int    `yaml:"stable_cache_size,omitempty"`
	SchemaVersion   string `yaml:"schema_version,omitempty"`
	PolicyVersion   string `yaml:"policy_version,omitempty"`
}

// FileConfig is the top-level YAML document shape.
type FileConfig struct {
	Gate   *GateYAMLConfig   `yaml:"gate"`
	Stream *StreamYAMLConfig `yaml:"stream"`
	Scrub  *ScrubYAMLConfig  `yaml:"scrub"`
	Prompt *PromptYAMLConfig `yaml:"prompt"`
}

// Config is the fully resolved, ready-to-use configuration.
type Config struct {
	Gate   gate.Config
	Stream StreamConfig
	Scrub  scrub.Mode
	Prompt PromptConfig
}

// StreamConfig holds resolved encounter stream settings.
type StreamConfig struct {
	MinInterval  time.Duration
	WriteTimeout time.Duration
}

// PromptConfig holds resolved prompt-builder settings.
type PromptConfig struct {
	StableCacheSize int
	SchemaVersion   string
	PolicyVersion   string
}

// DefaultConfig returns built-in defaults for every subsystem.
func DefaultConfig() Config {
	return Config{
		Gate: gate.DefaultConfig(),
		Stream: StreamConfig{
			MinInterval:  500 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		Scrub: scrub.ModeMinimum,
		Prompt: PromptConfig{
			StableCacheSize: 32,
			SchemaVersion:   "2024-06-01",
			PolicyVersion:   "v1",
		},
	}
}

// Load reads path as YAML and merges it over DefaultConfig, with
// user-supplied values taking precedence. A missing file is not an error:
// Load returns DefaultConfig() unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := applyGate(&cfg.Gate, file.Gate); err != nil {
		return cfg, err
	}
	applyStream(&cfg.Stream, file.Stream)
	applyScrub(&cfg.Scrub, file.Scrub)
	applyPrompt(&cfg.Prompt, file.Prompt)

	return cfg, nil
}

func applyGate(dst *gate.Config, src *GateYAMLConfig) error {
	if src == nil {
		return nil
	}
	overrides := gate.Config{}
	if src.AutoThresholdChars != nil {
		overrides.AutoThresholdChars = *src.AutoThresholdChars
	}
	if src.AutoThresholdPct != nil {
		overrides.AutoThresholdPct = *src.AutoThresholdPct
	}
	if src.ManualThresholdChars != nil {
		overrides.ManualThresholdChars = *src.ManualThresholdChars
	}
	if src.ManualThresholdPct != nil {
		overrides.ManualThresholdPct = *src.ManualThresholdPct
	}
	if src.ColdStartChars != nil {
		overrides.ColdStartChars = *src.ColdStartChars
	}
	if src.SemanticDistanceAutoMin != nil {
		overrides.SemanticDistanceAutoMin = *src.SemanticDistanceAutoMin
	}
	if src.SemanticDistanceManualMin != nil {
		overrides.SemanticDistanceManualMin = *src.SemanticDistanceManualMin
	}
	overrides.EmbeddingModelID = src.EmbeddingModelID
	overrides.IntentModels = src.IntentModels

	if err := mergo.Merge(dst, overrides, mergo.WithOverride); err != nil {
		return fmt.Errorf("merging gate config: %w", err)
	}
	return nil
}

func applyStream(dst *StreamConfig, src *StreamYAMLConfig) {
	if src == nil {
		return
	}
	if src.MinIntervalMS > 0 {
		dst.MinInterval = time.Duration(src.MinIntervalMS) * time.Millisecond
	}
	if src.WriteTimeoutMS > 0 {
		dst.WriteTimeout = time.Duration(src.WriteTimeoutMS) * time.Millisecond
	}
}

func applyScrub(dst *scrub.Mode, src *ScrubYAMLConfig) {
	if src == nil || src.Mode == "" {
		return
	}
	*dst = scrub.Mode(src.Mode)
}

func applyPrompt(dst *PromptConfig, src *PromptYAMLConfig) {
	if src == nil {
		return
	}
	if src.StableCacheSize > 0 {
		dst.StableCacheSize = src.StableCacheSize
	}
	if src.SchemaVersion != "" {
		dst.SchemaVersion = src.SchemaVersion
	}
	if src.PolicyVersion != "" {
		dst.PolicyVersion = src.PolicyVersion
	}
}
