// Package thresholds holds the physical-range bounds samples are validated against.
package thresholds

import (
	"fmt"
	"math"
)

// ConfigurationError is fatal at startup: a bound is missing or unusable.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("thresholds: %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("thresholds: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Raw mirrors the configuration source. Nil means the bound was not provided.
type Raw struct {
	TemperatureDelta *float64 `yaml:"temperatureDelta" env:"INGEST_THRESHOLD_DELTA_T"`
	ResistanceMin    *float64 `yaml:"resistanceMin" env:"INGEST_R_MIN"`
	ResistanceMax    *float64 `yaml:"resistanceMax" env:"INGEST_R_MAX"`
	RangeMin         *float64 `yaml:"rangeMin" env:"INGEST_RANGE_MIN"`
	RangeMax         *float64 `yaml:"rangeMax" env:"INGEST_RANGE_MAX"`
}

// Config is immutable once built; pass it by value.
type Config struct {
	temperatureDelta float64
	resistanceMin    float64
	resistanceMax    float64
	rangeMin         float64
	rangeMax         float64
}

// New validates raw bounds and freezes them.
func New(raw Raw) (Config, error) {
	fields := []struct {
		name string
		val  *float64
	}{
		{"temperatureDelta", raw.TemperatureDelta},
		{"resistanceMin", raw.ResistanceMin},
		{"resistanceMax", raw.ResistanceMax},
		{"rangeMin", raw.RangeMin},
		{"rangeMax", raw.RangeMax},
	}
	for _, f := range fields {
		if f.val == nil {
			return Config{}, &ConfigurationError{Field: f.name, Reason: "required"}
		}
		if math.IsNaN(*f.val) || math.IsInf(*f.val, 0) {
			return Config{}, &ConfigurationError{Field: f.name, Reason: "must be finite"}
		}
	}

	cfg := Config{
		temperatureDelta: *raw.TemperatureDelta,
		resistanceMin:    *raw.ResistanceMin,
		resistanceMax:    *raw.ResistanceMax,
		rangeMin:         *raw.RangeMin,
		rangeMax:         *raw.RangeMax,
	}
	if cfg.temperatureDelta < 0 {
		return Config{}, &ConfigurationError{Field: "temperatureDelta", Reason: "must not be negative"}
	}
	if cfg.resistanceMin > cfg.resistanceMax {
		return Config{}, &ConfigurationError{Field: "resistanceMin", Reason: "greater than resistanceMax"}
	}
	if cfg.rangeMin > cfg.rangeMax {
		return Config{}, &ConfigurationError{Field: "rangeMin", Reason: "greater than rangeMax"}
	}
	return cfg, nil
}

// MustNew is New for tests and fixed defaults; it panics on invalid input.
func MustNew(deltaT, rMin, rMax, rangeMin, rangeMax float64) Config {
	cfg, err := New(Raw{
		TemperatureDelta: &deltaT,
		ResistanceMin:    &rMin,
		ResistanceMax:    &rMax,
		RangeMin:         &rangeMin,
		RangeMax:         &rangeMax,
	})
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c Config) TemperatureDelta() float64 { return c.temperatureDelta }
func (c Config) ResistanceMin() float64 { return c.resistanceMin }
func (c Config) ResistanceMax() float64 { return c.resistanceMax }
func (c Config) RangeMin() float64 { return c.rangeMin }
func (c Config) RangeMax() float64 { return c.rangeMax }
