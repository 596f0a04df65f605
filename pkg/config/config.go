// Package config provides the unified configuration system for Quasar.
// It defines a single BuildConfig structure shared by type inference and
// column construction, ensuring both phases make identical decisions.
//
// The same BuildConfig value must be passed to inference and to the
// builder: a threshold used to accept a type during inference and a
// different threshold at build time would produce columns whose values
// no longer classify under their own declared type.
//
// Example usage:
//
//	cfg := config.NewBuildConfig()
//	cfg.AcceptanceThreshold = 0.95
//	cfg.FailurePolicy = config.FailureLenient
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"runtime"
	"time"
)

// FailurePolicy controls what happens when a value fails to classify
// against a column's already-fixed type during construction.
type FailurePolicy string

const (
	// FailureStrict fails the whole column build on the first mismatch,
	// identifying the offending row.
	FailureStrict FailurePolicy = "strict"
	// FailureLenient stores a null in place of the mismatched value and
	// increments the column's coerced-null counter.
	FailureLenient FailurePolicy = "lenient"
)

// DefaultDateTimeFormats is the ordered list of accepted datetime layouts:
// date-only, date+time, then date+time+offset. The first matching layout
// wins; no further guessing happens after a match.
var DefaultDateTimeFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
}

// BuildConfig is the single configuration structure for inference and
// column construction. Zero values are not usable; start from
// NewBuildConfig and override.
type BuildConfig struct {
	// SampleSize caps how many leading rows the inferencer scans.
	// Zero means scan the full value sequence.
	SampleSize int `yaml:"sample_size" json:"sample_size"`

	// AcceptanceThreshold is the minimum fraction of non-null values that
	// must classify successfully for a candidate type to be chosen.
	// Must be in (0, 1]. The default of 1.0 is strict: a single
	// mismatching value disqualifies a candidate.
	AcceptanceThreshold float64 `yaml:"acceptance_threshold" json:"acceptance_threshold"`

	// FailurePolicy selects strict or lenient handling of values that
	// fail to classify during construction.
	FailurePolicy FailurePolicy `yaml:"failure_policy" json:"failure_policy"`

	// EnumCardinalityCap is the maximum distinct-value count for a column
	// to be dictionary-encoded. Exceeding it disqualifies the enum
	// candidate permanently for that column.
	EnumCardinalityCap int `yaml:"enum_cardinality_cap" json:"enum_cardinality_cap"`

	// DisableEnumFallback turns the automatic dictionary-overflow
	// fallback to plain text into a hard error during merges.
	DisableEnumFallback bool `yaml:"disable_enum_fallback" json:"disable_enum_fallback"`

	// DateTimeFormats is the ordered list of accepted datetime layouts.
	DateTimeFormats []string `yaml:"datetime_formats" json:"datetime_formats"`

	// PercentDecode enables percent-decoding of raw field values before
	// classification.
	PercentDecode bool `yaml:"percent_decode" json:"percent_decode"`

	// Workers defines the number of concurrent column builders used when
	// assembling a dataset. Zero means one worker per CPU.
	Workers int `yaml:"workers" json:"workers"`
}

// NewBuildConfig creates a BuildConfig with documented defaults: strict
// acceptance, strict failure policy, a 256-value enum cap, and the
// default datetime layouts.
func NewBuildConfig() *BuildConfig {
	formats := make([]string, len(DefaultDateTimeFormats))
	copy(formats, DefaultDateTimeFormats)

	return &BuildConfig{
		SampleSize:          0, // full scan
		AcceptanceThreshold: 1.0,
		FailurePolicy:       FailureStrict,
		EnumCardinalityCap:  256,
		DisableEnumFallback: false,
		DateTimeFormats:     formats,
		PercentDecode:       false,
		Workers:             runtime.NumCPU(),
	}
}

// Validate validates the configuration for correctness.
// Callers should invoke it once after loading configuration; the build
// path assumes a validated config.
func (c *BuildConfig) Validate() error {
	if c.AcceptanceThreshold <= 0 || c.AcceptanceThreshold > 1 {
		return fmt.Errorf("acceptance_threshold must be in (0, 1], got %v", c.AcceptanceThreshold)
	}
	if c.FailurePolicy != FailureStrict && c.FailurePolicy != FailureLenient {
		return fmt.Errorf("failure_policy must be %q or %q, got %q",
			FailureStrict, FailureLenient, c.FailurePolicy)
	}
	if c.EnumCardinalityCap <= 0 {
		return fmt.Errorf("enum_cardinality_cap must be positive, got %d", c.EnumCardinalityCap)
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size cannot be negative, got %d", c.SampleSize)
	}
	if len(c.DateTimeFormats) == 0 {
		return fmt.Errorf("datetime_formats cannot be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.Workers)
	}
	return nil
}

// GetWorkers returns the number of workers, ensuring it's at least 1
func (c *BuildConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// Clone returns a deep copy so callers can derive variants without
// mutating a shared config.
func (c *BuildConfig) Clone() *BuildConfig {
	dup := *c
	dup.DateTimeFormats = make([]string, len(c.DateTimeFormats))
	copy(dup.DateTimeFormats, c.DateTimeFormats)
	return &dup
}
