// Package worker consumes simulation requests from the queue and publishes
// the matching results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payoff/internal/amqp"
	"payoff/internal/log"
	"payoff/internal/services"
	"payoff/internal/validator"
)

// ResultPublisher sends a finished result back to the broker.
type ResultPublisher interface {
	PublishResult(ctx context.Context, res *amqp.SimulationResult) error
}

// SimulationWorker validates and simulates one request per message.
type SimulationWorker struct {
	planner   *services.Planner
	publisher ResultPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewSimulationWorker(planner *services.Planner, publisher ResultPublisher, logger *log.Logger) *SimulationWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SimulationWorker{
		planner:   planner,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// HandleRequest always answers the request, even when it is invalid. Only a
// failed publish is returned, so the delivery is requeued.
func (w *SimulationWorker) HandleRequest(ctx context.Context, req *amqp.SimulationRequest) error {
	w.logger.InfoContext(ctx, "Processing simulation request",
		log.FieldRequestID, req.RequestID,
		log.FieldStrategy, req.Strategy.Name(),
		log.FieldDebtCount, len(req.Debts))

	res := w.process(ctx, req)
	res.Timestamp = w.now()

	if err := w.publisher.PublishResult(ctx, res); err != nil {
		return fmt.Errorf("publish result %s: %w", req.RequestID, err)
	}

	w.logger.InfoContext(ctx, "Published simulation result",
		log.FieldRequestID, req.RequestID,
		"ok", res.Summary != nil,
		"field_errors", len(res.Errors))
	return nil
}

func (w *SimulationWorker) process(ctx context.Context, req *amqp.SimulationRequest) *amqp.SimulationResult {
	res := &amqp.SimulationResult{RequestID: req.RequestID}
	ro := services.RunOptions{
		HorizonMonths:             req.HorizonMonths,
		Rounding:                  req.Rounding,
		AllowNegativeAmortization: req.AllowNegativeAmortization,
	}

	vr, err := w.planner.Validate(req.Debts, ro)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			res.Errors = verrs
		} else {
			res.Error = err.Error()
		}
		w.logger.WarnContext(ctx, "Rejected simulation request",
			log.FieldRequestID, req.RequestID, log.FieldError, err)
		return res
	}
	res.Warnings = vr.Warnings

	sim, err := w.planner.Simulate(ctx, vr.Set, req.Strategy, ro)
	if err != nil {
		res.Error = err.Error()
		w.logger.WarnContext(ctx, "Simulation failed",
			log.FieldRequestID, req.RequestID, log.FieldError, err)
		return res
	}

	sum := sim.Summary
	res.Summary = &sum
	if req.IncludeSchedule {
		res.Schedule = sim.Schedule
	}
	return res
}
