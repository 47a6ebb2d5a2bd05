// Package scenario builds on the engine to compare strategies and to answer
// "what if" questions about a debt set.
package scenario

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"payoff/internal/core"
	"payoff/internal/engine"
)

var ErrNoStrategies = errors.New("no strategies to compare")

// Outcome is one strategy's result measured against the baseline.
type Outcome struct {
	Strategy      core.Strategy `json:"strategy"`
	Name          string        `json:"name"`
	Summary       core.Summary  `json:"summary"`
	InterestSaved core.Money    `json:"interest_saved"`
	MonthsSaved   int           `json:"months_saved"`
}

// Comparison holds every outcome in request order, with a minimum-only
// baseline prepended when the request did not include one.
type Comparison struct {
	Outcomes      []Outcome `json:"outcomes"`
	BaselineIndex int       `json:"baseline"`
	Best          int       `json:"best"`
}

// Baseline returns the minimum-only outcome.
func (c *Comparison) Baseline() Outcome {
	return c.Outcomes[c.BaselineIndex]
}

// BestOutcome returns the strategy with the lowest total interest.
func (c *Comparison) BestOutcome() Outcome {
	return c.Outcomes[c.Best]
}

// Compare simulates every strategy concurrently over the same debt set.
func Compare(ctx context.Context, set core.DebtSet, strategies []core.Strategy, opts engine.Options) (*Comparison, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}
	runs, baseIdx := withBaseline(strategies)
	results := make([]*engine.Result, len(runs))

	g, ctx := errgroup.WithContext(ctx)
	for i, s := range runs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := engine.Simulate(set, s, opts)
			if err != nil {
				return fmt.Errorf("simulate %s: %w", s.Name(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	base := results[baseIdx].Summary
	cmp := &Comparison{Outcomes: make([]Outcome, len(runs)), BaselineIndex: baseIdx}
	for i, res := range results {
		cmp.Outcomes[i] = Outcome{
			Strategy:      runs[i],
			Name:          runs[i].Name(),
			Summary:       res.Summary,
			InterestSaved: core.Money{Cents: base.TotalInterest.Cents - res.Summary.TotalInterest.Cents},
			MonthsSaved:   base.Months - res.Summary.Months,
		}
		if better(res.Summary, cmp.Outcomes[cmp.Best].Summary) {
			cmp.Best = i
		}
	}
	return cmp, nil
}

func withBaseline(strategies []core.Strategy) ([]core.Strategy, int) {
	for i, s := range strategies {
		if s.Kind == core.MinimumOnly {
			return strategies, i
		}
	}
	return append([]core.Strategy{{Kind: core.MinimumOnly}}, strategies...), 0
}

// better ranks converged runs ahead of non-converged ones, then by interest
// and months. Equal runs keep the earlier position.
func better(a, b core.Summary) bool {
	if a.Converged != b.Converged {
		return a.Converged
	}
	if a.TotalInterest.Cents != b.TotalInterest.Cents {
		return a.TotalInterest.Cents < b.TotalInterest.Cents
	}
	return a.Months < b.Months
}
