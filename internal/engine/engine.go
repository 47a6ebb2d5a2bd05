// Package engine runs the month-by-month payoff simulation.
//
// Simulate is pure: it reads an immutable core.DebtSet, performs no I/O and
// returns the same schedule for the same inputs, so callers may run any
// number of simulations concurrently over one set.
package engine

import (
	"errors"
	"fmt"

	"payoff/internal/core"
)

// DefaultHorizonMonths caps a run at 50 years unless the caller asks otherwise.
const DefaultHorizonMonths = 600

var (
	ErrInvalidHorizon = errors.New("horizon must not be negative")
	ErrUnknownTarget  = errors.New("target debt not found")
)

// Options controls a single simulation run.
type Options struct {
	// HorizonMonths is the maximum number of months simulated. Zero means
	// DefaultHorizonMonths.
	HorizonMonths int
	// Rounding is applied to every monthly interest charge.
	Rounding core.RoundingPolicy
}

// Result is the full output of a run.
type Result struct {
	Schedule []core.MonthlySnapshot `json:"schedule"`
	Summary  core.Summary           `json:"summary"`
}

func (o Options) normalize() (Options, error) {
	if o.HorizonMonths < 0 {
		return o, fmt.Errorf("%w: %d", ErrInvalidHorizon, o.HorizonMonths)
	}
	if o.HorizonMonths == 0 {
		o.HorizonMonths = DefaultHorizonMonths
	}
	if o.Rounding == "" {
		o.Rounding = core.RoundHalfUp
	}
	if !o.Rounding.IsValid() {
		return o, fmt.Errorf("%w: %q", core.ErrUnknownRounding, string(o.Rounding))
	}
	return o, nil
}

// Simulate pays down set under strategy s.
//
// Each month accrues interest on every open balance, pays every minimum
// (capped at the balance), then spends the strategy's pool. Avalanche and
// snowball add minimums freed by paid-off debts to the pool. Planned tops each
// debt up to its own planned payment. A run that hits the horizon or
// overflows a balance is reported through Summary.NonConvergence rather than
// an error. A set with nothing owed yields an empty, non-nil schedule.
func Simulate(set core.DebtSet, s core.Strategy, opts Options) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.TargetID != "" {
		if _, ok := set.ByID(s.TargetID); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, s.TargetID)
		}
	}
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	alloc, ok := allocators[s.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownStrategy, string(s.Kind))
	}

	l := newLedger(set)
	scheduled := l.scheduledMinimums()

	var extra int64
	switch s.Kind {
	case core.MinimumOnly:
	case core.Planned:
		extra = l.plannedTopUps()
	default:
		extra = s.ExtraAmount.Cents
	}

	var (
		schedule  = []core.MonthlySnapshot{}
		running   int64
		extraUsed int64
		stop      string
	)

	for month := 1; l.outstanding(); month++ {
		if month > opts.HorizonMonths {
			stop = core.ReasonHorizon
			break
		}

		l.beginMonth()
		interest, ok := l.accrue(opts.Rounding)
		if !ok {
			l.lines = nil
			stop = core.ReasonOverflow
			break
		}
		running += interest

		applied := l.payMinimums()

		pool := extra
		if s.Kind.RollsFreedMinimums() {
			pool += scheduled - applied
		}
		if pool > 0 {
			extraUsed += alloc(l, s, pool)
		}

		schedule = append(schedule, l.closeMonth(month, interest, running))
	}

	summary := core.Summary{
		Strategy:      s,
		Converged:     stop == "",
		Months:        len(schedule),
		TotalInterest: core.Money{Cents: running},
		ExtraUsed:     core.Money{Cents: extraUsed},
		SumMinimums:   core.Money{Cents: scheduled},
		SumPlanned:    set.TotalPlanned(),
		Debts:         l.outcomes(),
	}
	for _, d := range summary.Debts {
		summary.TotalPaid.Cents += d.TotalPaid.Cents
	}
	if stop != "" {
		summary.NonConvergence = &core.NonConvergence{
			Reason:    stop,
			Horizon:   opts.HorizonMonths,
			Remaining: l.remaining(),
		}
	}

	return &Result{Schedule: schedule, Summary: summary}, nil
}
