// Package services orchestrates validation, simulation and caching on behalf
// of the HTTP API, the queue worker and the CLI.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"payoff/internal/cache"
	"payoff/internal/core"
	"payoff/internal/engine"
	"payoff/internal/log"
	"payoff/internal/scenario"
	"payoff/internal/validator"
)

var ErrHorizonTooLarge = errors.New("horizon exceeds the configured maximum")

// Limits are the deployment-wide defaults and bounds.
type Limits struct {
	DefaultHorizon            int
	MaxHorizon                int
	MaxAPR                    decimal.Decimal
	Rounding                  core.RoundingPolicy
	AllowNegativeAmortization bool
}

// RunOptions are the per-request overrides. Zero values fall back to Limits.
type RunOptions struct {
	HorizonMonths             int                 `json:"horizon_months,omitempty"`
	Rounding                  core.RoundingPolicy `json:"rounding,omitempty"`
	AllowNegativeAmortization bool                `json:"allow_negative_amortization,omitempty"`
}

// Planner runs simulations under a fixed set of limits.
type Planner struct {
	limits Limits
	cache  cache.Cache[*engine.Result]
	logger *log.Logger
	runLog *log.StructuredLogger
}

// NewPlanner creates a planner. resultCache may be nil.
func NewPlanner(limits Limits, resultCache cache.Cache[*engine.Result], logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.Discard()
	}
	if limits.DefaultHorizon <= 0 {
		limits.DefaultHorizon = engine.DefaultHorizonMonths
	}
	if limits.MaxHorizon < limits.DefaultHorizon {
		limits.MaxHorizon = limits.DefaultHorizon
	}
	if limits.Rounding == "" {
		limits.Rounding = core.RoundHalfUp
	}
	engineLog := logger.WithComponent(log.ComponentEngine)
	return &Planner{
		limits: limits,
		cache:  resultCache,
		logger: engineLog,
		runLog: log.NewStructuredLogger(engineLog),
	}
}

func (p *Planner) Limits() Limits {
	return p.limits
}

func (p *Planner) rounding(ro RunOptions) core.RoundingPolicy {
	if ro.Rounding != "" {
		return ro.Rounding
	}
	return p.limits.Rounding
}

// ValidatorOptions builds validator options for a request.
func (p *Planner) ValidatorOptions(ro RunOptions) validator.Options {
	opts := validator.DefaultOptions()
	if p.limits.MaxAPR.Sign() > 0 {
		opts.MaxAPR = p.limits.MaxAPR
	}
	opts.Rounding = p.rounding(ro)
	opts.AllowNegativeAmortization = p.limits.AllowNegativeAmortization || ro.AllowNegativeAmortization
	return opts
}

// EngineOptions resolves the horizon and rounding for a request.
func (p *Planner) EngineOptions(ro RunOptions) (engine.Options, error) {
	h := ro.HorizonMonths
	switch {
	case h < 0:
		return engine.Options{}, fmt.Errorf("%w: %d", engine.ErrInvalidHorizon, h)
	case h == 0:
		h = p.limits.DefaultHorizon
	case h > p.limits.MaxHorizon:
		return engine.Options{}, fmt.Errorf("%w: %d > %d", ErrHorizonTooLarge, h, p.limits.MaxHorizon)
	}
	rounding := p.rounding(ro)
	if !rounding.IsValid() {
		return engine.Options{}, fmt.Errorf("%w: %q", core.ErrUnknownRounding, string(rounding))
	}
	return engine.Options{HorizonMonths: h, Rounding: rounding}, nil
}

// Validate normalizes raw records under the planner's limits.
func (p *Planner) Validate(raw []core.RawDebt, ro RunOptions) (*validator.Result, error) {
	res, err := validator.Validate(raw, p.ValidatorOptions(ro))
	if err != nil {
		return nil, err
	}
	if len(res.Warnings) > 0 {
		p.logger.Debug("Debts accepted with warnings",
			log.FieldOperation, log.OpValidate,
			log.FieldDebtCount, res.Set.Len(),
			log.FieldWarnings, len(res.Warnings))
	}
	return res, nil
}

// ValidateSet re-checks an already typed set, such as one loaded from a
// session, under the options of the current request.
func (p *Planner) ValidateSet(set core.DebtSet, ro RunOptions) (*validator.Result, error) {
	return validator.ValidateDebts(set.Debts(), p.ValidatorOptions(ro))
}

// Simulate runs one strategy, serving repeated requests from the cache.
func (p *Planner) Simulate(ctx context.Context, set core.DebtSet, s core.Strategy, ro RunOptions) (*engine.Result, error) {
	opts, err := p.EngineOptions(ro)
	if err != nil {
		return nil, err
	}

	var key string
	if p.cache != nil {
		if key, err = cache.Key(set, s, opts); err == nil {
			if res, ok := p.cache.Get(ctx, key); ok {
				p.logger.DebugContext(ctx, "Simulation served from cache", log.FieldStrategy, s.Name())
				return res, nil
			}
		}
	}

	res, err := engine.Simulate(set, s, opts)
	if err != nil {
		return nil, err
	}
	p.runLog.LogRun(ctx, set.Len(), res.Summary)

	if p.cache != nil && key != "" {
		p.cache.Set(ctx, key, res)
	}
	return res, nil
}

// Compare runs several strategies against the minimum-only baseline.
func (p *Planner) Compare(ctx context.Context, set core.DebtSet, strategies []core.Strategy, ro RunOptions) (*scenario.Comparison, error) {
	opts, err := p.EngineOptions(ro)
	if err != nil {
		return nil, err
	}
	cmp, err := scenario.Compare(ctx, set, strategies, opts)
	if err != nil {
		return nil, err
	}
	best := cmp.BestOutcome()
	p.logger.InfoContext(ctx, "Strategies compared",
		log.FieldOperation, log.OpCompare,
		"count", len(cmp.Outcomes),
		"best", best.Name,
		"interest_saved_cents", best.InterestSaved.Cents)
	return cmp, nil
}

// WhatIf evaluates one hypothetical change against base.
func (p *Planner) WhatIf(ctx context.Context, set core.DebtSet, base core.Strategy, w scenario.WhatIf, ro RunOptions) (*scenario.WhatIfResult, error) {
	opts, err := p.EngineOptions(ro)
	if err != nil {
		return nil, err
	}
	res, err := scenario.Evaluate(set, base, w, opts)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "What-if evaluated",
		log.FieldOperation, log.OpWhatIf,
		"kind", string(w.Kind),
		"interest_saved_cents", res.InterestSaved.Cents,
		"months_saved", res.MonthsSaved)
	return res, nil
}
