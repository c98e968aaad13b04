// Package config loads the reconciliation parameters from a JSON file.
// Fields omitted from the file keep their defaults, so partial configs are
// safe; the Get* accessors provide the fallback values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the tunable parameters of the acquisition pipeline. The
// schema matches the /api/params endpoint so the same JSON serves startup
// configuration and runtime inspection.
type Config struct {
	// ToleranceSeconds is the window under which two observed start times
	// count as the same session.
	ToleranceSeconds *int `json:"tolerance_seconds,omitempty"`

	// MergeToleranceMinutes is the spacing under which two historical slot
	// candidates merge into one canonical slot.
	MergeToleranceMinutes *int `json:"merge_tolerance_minutes,omitempty"`

	// SamplingRateHz is the sensors' sampling rate.
	SamplingRateHz *int `json:"sampling_rate_hz,omitempty"`

	// SubjectsFile is the path of the subjects_info.csv metadata table.
	SubjectsFile *string `json:"subjects_file,omitempty"`

	// OutputDir is where rendered day plots are written.
	OutputDir *string `json:"output_dir,omitempty"`
}

// Defaults, matching the study protocol.
const (
	defaultToleranceSeconds      = 600
	defaultMergeToleranceMinutes = 20
	defaultSamplingRateHz        = 100
	defaultSubjectsFile          = "subjects_info.csv"
	defaultOutputDir             = "."
)

func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// Default returns a Config populated with the default values.
func Default() *Config {
	return &Config{
		ToleranceSeconds:      ptrInt(defaultToleranceSeconds),
		MergeToleranceMinutes: ptrInt(defaultMergeToleranceMinutes),
		SamplingRateHz:        ptrInt(defaultSamplingRateHz),
		SubjectsFile:          ptrString(defaultSubjectsFile),
		OutputDir:             ptrString(defaultOutputDir),
	}
}

// Load reads a Config from a JSON file. Missing fields keep their
// defaults via the Get* accessors.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configured values for internal consistency.
func (c *Config) Validate() error {
	if c.ToleranceSeconds != nil && *c.ToleranceSeconds <= 0 {
		return fmt.Errorf("tolerance_seconds must be positive, got %d", *c.ToleranceSeconds)
	}
	if c.MergeToleranceMinutes != nil && *c.MergeToleranceMinutes <= 0 {
		return fmt.Errorf("merge_tolerance_minutes must be positive, got %d", *c.MergeToleranceMinutes)
	}
	if c.SamplingRateHz != nil && *c.SamplingRateHz <= 0 {
		return fmt.Errorf("sampling_rate_hz must be positive, got %d", *c.SamplingRateHz)
	}
	return nil
}

func (c *Config) GetToleranceSeconds() int {
	if c.ToleranceSeconds != nil {
		return *c.ToleranceSeconds
	}
	return defaultToleranceSeconds
}

func (c *Config) GetMergeToleranceMinutes() int {
	if c.MergeToleranceMinutes != nil {
		return *c.MergeToleranceMinutes
	}
	return defaultMergeToleranceMinutes
}

func (c *Config) GetSamplingRateHz() int {
	if c.SamplingRateHz != nil {
		return *c.SamplingRateHz
	}
	return defaultSamplingRateHz
}

func (c *Config) GetSubjectsFile() string {
	if c.SubjectsFile != nil {
		return *c.SubjectsFile
	}
	return defaultSubjectsFile
}

func (c *Config) GetOutputDir() string {
	if c.OutputDir != nil {
		return *c.OutputDir
	}
	return defaultOutputDir
}
