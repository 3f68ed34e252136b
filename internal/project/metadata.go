// Package project models the upstream project metadata that produced a
// rendered artifact: expected duration and ordered shot boundaries, used
// to localize quality issues.
package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Shot is one planned segment of the artifact timeline.
type Shot struct {
	Name     string  `yaml:"name"`
	Start    float64 `yaml:"start"`    // seconds from artifact start
	Duration float64 `yaml:"duration"` // seconds
	Dialogue bool    `yaml:"dialogue"` // audio expected during this shot
}

// End returns the shot's end timestamp in seconds.
func (s Shot) End() float64 {
	return s.Start + s.Duration
}

// Metadata describes what the artifact was supposed to contain. The zero
// value is valid and means "no expectations".
type Metadata struct {
	Title            string    `yaml:"title"`
	ExpectedDuration float64   `yaml:"expected_duration"` // seconds, 0 = unspecified
	Shots            []Shot    `yaml:"shots"`
	Cuts             []float64 `yaml:"cuts"` // expected shot-cut timestamps, ascending
}

// Load reads metadata from a YAML file and validates it.
func Load(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	var meta Metadata
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Validate checks ordering and non-negativity of the declared timeline.
func (m *Metadata) Validate() error {
	if m.ExpectedDuration < 0 {
		return fmt.Errorf("expected_duration must not be negative")
	}
	prevEnd := 0.0
	for i, shot := range m.Shots {
		if shot.Start < 0 || shot.Duration < 0 {
			return fmt.Errorf("shot %d: start and duration must not be negative", i+1)
		}
		if shot.Start < prevEnd {
			return fmt.Errorf("shot %d: overlaps previous shot", i+1)
		}
		prevEnd = shot.End()
	}
	for i := 1; i < len(m.Cuts); i++ {
		if m.Cuts[i] < m.Cuts[i-1] {
			return fmt.Errorf("cut %d: cuts must be ascending", i+1)
		}
	}
	return nil
}

// ShotAt returns the 1-based index and shot covering timestamp t, or
// (0, nil) when no shot covers it.
func (m *Metadata) ShotAt(t float64) (int, *Shot) {
	if m == nil {
		return 0, nil
	}
	for i := range m.Shots {
		if t >= m.Shots[i].Start && t < m.Shots[i].End() {
			return i + 1, &m.Shots[i]
		}
	}
	return 0, nil
}
