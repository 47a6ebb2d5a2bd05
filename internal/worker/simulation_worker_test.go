package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"payoff/internal/amqp"
	"payoff/internal/core"
	"payoff/internal/services"
	"payoff/internal/validator"
)

type fakePublisher struct {
	results []*amqp.SimulationResult
	err     error
}

func (f *fakePublisher) PublishResult(_ context.Context, res *amqp.SimulationResult) error {
	if f.err != nil {
		return f.err
	}
	f.results = append(f.results, res)
	return nil
}

func newWorker(pub ResultPublisher) *SimulationWorker {
	p := services.NewPlanner(services.Limits{DefaultHorizon: 600, MaxHorizon: 1200}, nil, nil)
	w := NewSimulationWorker(p, pub, nil)
	w.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return w
}

func twoCards() []core.RawDebt {
	return []core.RawDebt{
		{ID: "A", Name: "Card A", Balance: "3000", APR: "22", MinimumPayment: "90"},
		{ID: "B", Name: "Card B", Balance: "2000", APR: "9", MinimumPayment: "60"},
	}
}

func TestSimulationWorker_HandleRequest(t *testing.T) {
	avalanche := core.Strategy{Kind: core.Avalanche, ExtraAmount: core.Money{Cents: 20000}}

	tests := []struct {
		name  string
		req   *amqp.SimulationRequest
		check func(t *testing.T, res *amqp.SimulationResult)
	}{
		{
			name: "valid request produces summary",
			req:  &amqp.SimulationRequest{RequestID: "r1", Debts: twoCards(), Strategy: avalanche},
			check: func(t *testing.T, res *amqp.SimulationResult) {
				if res.Summary == nil || res.Summary.Months != 16 || res.Summary.TotalInterest.Cents != 53876 {
					t.Fatalf("unexpected summary %+v", res.Summary)
				}
				if res.Schedule != nil {
					t.Fatal("schedule should be omitted unless requested")
				}
			},
		},
		{
			name: "schedule included on request",
			req:  &amqp.SimulationRequest{RequestID: "r2", Debts: twoCards(), Strategy: avalanche, IncludeSchedule: true},
			check: func(t *testing.T, res *amqp.SimulationResult) {
				if len(res.Schedule) != 16 {
					t.Fatalf("expected 16 months, got %d", len(res.Schedule))
				}
			},
		},
		{
			name: "field errors are reported",
			req: &amqp.SimulationRequest{RequestID: "r3", Strategy: avalanche, Debts: []core.RawDebt{
				{ID: "x", Name: "", Balance: "abc", APR: "-1", MinimumPayment: "10"},
			}},
			check: func(t *testing.T, res *amqp.SimulationResult) {
				if res.Summary != nil || len(res.Errors) != 3 {
					t.Fatalf("expected 3 field errors, got %+v", res.Errors)
				}
				fields := map[string]bool{}
				for _, fe := range res.Errors {
					fields[fe.Field] = true
				}
				if !fields[validator.FieldName] || !fields[validator.FieldBalance] || !fields[validator.FieldAPR] {
					t.Fatalf("unexpected fields %v", fields)
				}
			},
		},
		{
			name: "horizon above limit is an error",
			req:  &amqp.SimulationRequest{RequestID: "r4", Debts: twoCards(), Strategy: avalanche, HorizonMonths: 5000},
			check: func(t *testing.T, res *amqp.SimulationResult) {
				if res.Error == "" || res.Summary != nil {
					t.Fatalf("expected an error result, got %+v", res)
				}
			},
		},
		{
			name: "unknown target is an error",
			req: &amqp.SimulationRequest{RequestID: "r5", Debts: twoCards(),
				Strategy: core.Strategy{Kind: core.FixedExtra, ExtraAmount: core.Money{Cents: 100}, TargetID: "Z"}},
			check: func(t *testing.T, res *amqp.SimulationResult) {
				if res.Error == "" {
					t.Fatal("expected an error result")
				}
			},
		},
		{
			name: "non-convergence is a summary not an error",
			req:  &amqp.SimulationRequest{RequestID: "r6", Debts: twoCards(), Strategy: core.Strategy{Kind: core.MinimumOnly}, HorizonMonths: 12},
			check: func(t *testing.T, res *amqp.SimulationResult) {
				if res.Error != "" || res.Summary == nil || res.Summary.Converged {
					t.Fatalf("expected a non-converged summary, got %+v", res)
				}
				if res.Summary.NonConvergence.Reason != core.ReasonHorizon {
					t.Fatalf("unexpected reason %q", res.Summary.NonConvergence.Reason)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			if err := newWorker(pub).HandleRequest(context.Background(), tt.req); err != nil {
				t.Fatalf("HandleRequest: %v", err)
			}
			if len(pub.results) != 1 {
				t.Fatalf("expected one published result, got %d", len(pub.results))
			}
			res := pub.results[0]
			if res.RequestID != tt.req.RequestID || res.Timestamp.IsZero() {
				t.Fatalf("result not correlated: %+v", res)
			}
			tt.check(t, res)
		})
	}
}

func TestSimulationWorker_PublishFailureIsReturned(t *testing.T) {
	pub := &fakePublisher{err: amqp.ErrCircuitOpen}
	req := &amqp.SimulationRequest{RequestID: "r", Debts: twoCards(), Strategy: core.Strategy{Kind: core.Snowball}}

	err := newWorker(pub).HandleRequest(context.Background(), req)
	if !errors.Is(err, amqp.ErrCircuitOpen) {
		t.Fatalf("expected publish error to propagate, got %v", err)
	}
}
