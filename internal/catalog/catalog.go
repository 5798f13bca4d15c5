// Package catalog loads the hand-maintained goal list and the benefit
// income thresholds from a YAML file. The file is the source of truth for
// what the earnings pool is allocated against; it is read once at startup
// and treated as immutable afterwards.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"paydash/internal/core"
)

// Catalog is the parsed, validated goal file.
type Catalog struct {
	Goals      []core.FundingTarget
	Thresholds []core.Threshold
}

var ErrNoGoals = errors.New("goal catalog contains no goals")

type fileFormat struct {
	Goals []struct {
		Name      string `yaml:"name"`
		Details   string `yaml:"details"`
		Cost      string `yaml:"cost"`
		Priority  string `yaml:"priority"`
		StartDate string `yaml:"start_date"`
	} `yaml:"goals"`
	Thresholds []struct {
		Name   string `yaml:"name"`
		Annual string `yaml:"annual"`
	} `yaml:"thresholds"`
}

// Load reads and validates the goal catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read goal catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates raw YAML catalog content. Split from Load so tests and
// callers holding bytes (e.g. an embedded default) can reuse it.
func Parse(data []byte) (*Catalog, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse goal catalog: %w", err)
	}
	if len(raw.Goals) == 0 {
		return nil, ErrNoGoals
	}

	cat := &Catalog{
		Goals:      make([]core.FundingTarget, 0, len(raw.Goals)),
		Thresholds: make([]core.Threshold, 0, len(raw.Thresholds)),
	}

	for i, g := range raw.Goals {
		tier, err := core.ParsePriorityTier(g.Priority)
		if err != nil {
			return nil, fmt.Errorf("goal %d (%q): %w", i+1, g.Name, err)
		}
		cents, err := core.ParseDecimalToCents(g.Cost)
		if err != nil {
			return nil, fmt.Errorf("goal %d (%q): %w", i+1, g.Name, err)
		}
		var start time.Time
		if g.StartDate != "" {
			start, err = time.Parse("2006-01-02", g.StartDate)
			if err != nil {
				return nil, fmt.Errorf("goal %d (%q): parse start_date: %w", i+1, g.Name, err)
			}
		}
		target := core.FundingTarget{
			Name:      g.Name,
			Details:   g.Details,
			Cost:      core.Money{Cents: cents},
			Tier:      tier,
			StartDate: start,
		}
		if err := target.Validate(); err != nil {
			return nil, fmt.Errorf("goal %d: %w", i+1, err)
		}
		cat.Goals = append(cat.Goals, target)
	}

	for i, th := range raw.Thresholds {
		cents, err := core.ParseDecimalToCents(th.Annual)
		if err != nil {
			return nil, fmt.Errorf("threshold %d (%q): %w", i+1, th.Name, err)
		}
		threshold := core.Threshold{Name: th.Name, Annual: core.Money{Cents: cents}}
		if err := threshold.Validate(); err != nil {
			return nil, fmt.Errorf("threshold %d: %w", i+1, err)
		}
		cat.Thresholds = append(cat.Thresholds, threshold)
	}

	return cat, nil
}
