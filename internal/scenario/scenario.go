// Package scenario loads dice simulations described in YAML and runs them.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Face kinds accepted in a scenario file.
const (
	KindInt    = "int"
	KindFloat  = "float"
	KindString = "string"
)

// DieSpec describes one die, optionally repeated Count times.
type DieSpec struct {
	Faces []string `yaml:"faces"`
	// Weights overrides the default weight of selected faces.
	Weights map[string]float64 `yaml:"weights"`
	// Count is how many identical dice this entry contributes; 0 means 1.
	Count int `yaml:"count"`
}

// Scenario is a simulation definition loaded from YAML.
type Scenario struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Kind is the face type: "int", "float" or "string". Empty means "int"
	// when every face parses as an integer and "string" otherwise.
	Kind string `yaml:"kind"`
	// Rolls is the number of rolls per play; 0 defers to the run default.
	Rolls int `yaml:"rolls"`
	// Seed makes the play reproducible when non-nil.
	Seed *int64    `yaml:"seed"`
	Dice []DieSpec `yaml:"dice"`
}

// Validate checks that the scenario satisfies its invariants.
//
// Precondition: s must not be nil.
// Postcondition: Returns nil iff ID is non-empty, Kind is known, Rolls >= 0 and
// every die has faces, a non-negative count and weights only for its own faces
// that are >= 0; returns an error on the first violation otherwise.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario: id must not be empty")
	}
	if s.Rolls < 0 {
		return fmt.Errorf("scenario %q: rolls must be >= 0, got %d", s.ID, s.Rolls)
	}
	if len(s.Dice) == 0 {
		return fmt.Errorf("scenario %q: at least one die is required", s.ID)
	}
	kind, err := s.ResolvedKind()
	if err != nil {
		return err
	}
	for i, d := range s.Dice {
		if len(d.Faces) == 0 {
			return fmt.Errorf("scenario %q: dice[%d] must have at least one face", s.ID, i)
		}
		if d.Count < 0 {
			return fmt.Errorf("scenario %q: dice[%d] count must be >= 0, got %d", s.ID, i, d.Count)
		}
		for _, f := range d.Faces {
			if err := checkFace(kind, f); err != nil {
				return fmt.Errorf("scenario %q: dice[%d]: %w", s.ID, i, err)
			}
		}
		for face, w := range d.Weights {
			if !contains(d.Faces, face) {
				return fmt.Errorf("scenario %q: dice[%d] weight for unknown face %q", s.ID, i, face)
			}
			if w < 0 {
				return fmt.Errorf("scenario %q: dice[%d] weight for face %q must be >= 0, got %v", s.ID, i, face, w)
			}
		}
	}
	return nil
}

// ResolvedKind returns Kind, inferring it when empty.
func (s *Scenario) ResolvedKind() (string, error) {
	switch s.Kind {
	case KindInt, KindFloat, KindString:
		return s.Kind, nil
	case "":
		for _, d := range s.Dice {
			for _, f := range d.Faces {
				if _, err := strconv.Atoi(f); err != nil {
					return KindString, nil
				}
			}
		}
		return KindInt, nil
	default:
		return "", fmt.Errorf("scenario %q: kind must be one of [int, float, string], got %q", s.ID, s.Kind)
	}
}

// DieCount returns the number of dice the scenario expands to.
func (s *Scenario) DieCount() int {
	n := 0
	for _, d := range s.Dice {
		n += max(d.Count, 1)
	}
	return n
}

func checkFace(kind, f string) error {
	switch kind {
	case KindInt:
		if _, err := strconv.Atoi(f); err != nil {
			return fmt.Errorf("face %q is not an integer", f)
		}
	case KindFloat:
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return fmt.Errorf("face %q is not a number", f)
		}
	}
	return nil
}

func contains(faces []string, face string) bool {
	for _, f := range faces {
		if f == face {
			return true
		}
	}
	return false
}

// LoadFromBytes parses a single scenario from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Scenario.
// Postcondition: Returns a validated *Scenario, or an error.
func LoadFromBytes(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	s, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return s, nil
}

// LoadDir reads all *.yaml files in dir and returns the parsed scenarios.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all scenarios or an error on the first parse or validate
// failure, including a scenario ID that repeats across files; on error, the
// partial result is discarded.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario dir %q: %w", dir, err)
	}

	var scenarios []*Scenario
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		s, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario ID %q: in %q and %q", s.ID, prev, path)
		}
		seen[s.ID] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
