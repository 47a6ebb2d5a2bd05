package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"payoff/internal/core"
)

var ErrEmptyPlan = errors.New("plan has no debts")

// Plan is a CLI input file: the debts plus the strategies to run on them.
type Plan struct {
	Debts                     []core.RawDebt  `yaml:"debts"`
	Strategies                []core.Strategy `yaml:"strategies"`
	HorizonMonths             int             `yaml:"horizon_months"`
	Rounding                  string          `yaml:"rounding"`
	AllowNegativeAmortization bool            `yaml:"allow_negative_amortization"`
}

// LoadPlan reads and sanity-checks a YAML plan. Field-level validation of
// the debts is left to the validator.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data)
}

func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if len(p.Debts) == 0 {
		return nil, ErrEmptyPlan
	}
	if p.Rounding != "" {
		if _, err := core.ParseRoundingPolicy(p.Rounding); err != nil {
			return nil, fmt.Errorf("plan rounding: %w", err)
		}
	}
	for i, s := range p.Strategies {
		kind, err := core.ParseStrategyKind(string(s.Kind))
		if err != nil {
			return nil, fmt.Errorf("plan strategy %d: %w", i+1, err)
		}
		p.Strategies[i].Kind = kind
		if err := p.Strategies[i].Validate(); err != nil {
			return nil, fmt.Errorf("plan strategy %d: %w", i+1, err)
		}
	}
	return &p, nil
}
