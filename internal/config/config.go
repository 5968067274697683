package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"freight-assignment-service/internal/normalize"
	"freight-assignment-service/internal/planner"
	"freight-assignment-service/internal/services"

	"gopkg.in/yaml.v3"
)

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// File is the optional solver tuning file. Every field has a working zero
// value, so running without the file keeps the built-in defaults.
type File struct {
	Planner struct {
		CostPerKgKm     float64 `yaml:"cost_per_kg_km"`
		AllowUnserved   bool    `yaml:"allow_unserved"`
		UnservedPenalty float64 `yaml:"unserved_penalty"`
		ZeroCandidate   string  `yaml:"zero_candidate"`
		TruckTieBreak   float64 `yaml:"truck_tie_break"`
	} `yaml:"planner"`
	Normalize struct {
		HorizonDays int `yaml:"horizon_days"`
	} `yaml:"normalize"`
	Service struct {
		TimeLimitSec int `yaml:"time_limit_sec"`
		CacheTTLSec  int `yaml:"cache_ttl_sec"`
		BatchWorkers int `yaml:"batch_workers"`
	} `yaml:"service"`
}

// Load reads the tuning file at path. A missing file is not an error; the
// caller gets the zero File.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	switch planner.ZeroCandidatePolicy(f.Planner.ZeroCandidate) {
	case "", planner.ZeroCandidateFail, planner.ZeroCandidateUnserved:
	default:
		return fmt.Errorf("config: zero_candidate must be %q or %q", planner.ZeroCandidateFail, planner.ZeroCandidateUnserved)
	}
	if f.Planner.CostPerKgKm < 0 {
		return errors.New("config: cost_per_kg_km must not be negative")
	}
	if f.Planner.UnservedPenalty < 0 {
		return errors.New("config: unserved_penalty must not be negative")
	}
	if f.Planner.TruckTieBreak < 0 {
		return errors.New("config: truck_tie_break must not be negative")
	}
	if f.Normalize.HorizonDays < 0 {
		return errors.New("config: horizon_days must not be negative")
	}
	if f.Service.TimeLimitSec < 0 || f.Service.CacheTTLSec < 0 || f.Service.BatchWorkers < 0 {
		return errors.New("config: service limits must not be negative")
	}
	return nil
}

// PlannerOptions converts the tuning file into solver options.
func (f *File) PlannerOptions() planner.Options {
	return planner.Options{
		CostPerKgKm:     f.Planner.CostPerKgKm,
		AllowUnserved:   f.Planner.AllowUnserved,
		UnservedPenalty: f.Planner.UnservedPenalty,
		ZeroCandidate:   planner.ZeroCandidatePolicy(f.Planner.ZeroCandidate),
		TruckTieBreak:   f.Planner.TruckTieBreak,
	}
}

// NormalizeConfig converts the tuning file into timeline settings. The
// reference day stays zero so each run anchors on the current day.
func (f *File) NormalizeConfig() normalize.Config {
	return normalize.Config{HorizonDays: f.Normalize.HorizonDays}
}

// ServiceSettings applies the tuning file onto a plan service.
func (f *File) ServiceSettings(svc *services.PlanService) {
	svc.Normalize = f.NormalizeConfig()
	svc.Planner = f.PlannerOptions()
	svc.DefaultTimeLimit = time.Duration(f.Service.TimeLimitSec) * time.Second
	svc.CacheTTL = time.Duration(f.Service.CacheTTLSec) * time.Second
	svc.BatchWorkers = f.Service.BatchWorkers
}
