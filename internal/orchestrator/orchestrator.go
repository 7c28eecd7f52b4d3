// Package orchestrator sequences documentation tasks under a call budget and
// aggregates their outcomes into a run report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"repodoc/internal/budget"
	"repodoc/internal/docgen"
	"repodoc/internal/output"
	"repodoc/internal/summary"
)

// Generator produces one result per task; *docgen.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, t docgen.Task, sum *summary.Summary, b *budget.CallBudget) docgen.Result
}

// ErrorKindWrite marks a result whose content was generated but could not be persisted.
const ErrorKindWrite = "write"

// Orchestrator runs tasks strictly in priority order. A failed task never
// blocks later ones; budget exhaustion ends generation for the rest of the run.
type Orchestrator struct {
	Generator Generator
	// Writer persists written results; nil keeps content in the report only.
	Writer output.Writer
	Log    *zap.Logger
}

func New(gen Generator, w output.Writer, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{Generator: gen, Writer: w, Log: log}
}

// Execute processes tasks and returns the report. The context is checked
// before each task; a cancelled run returns the results so far and ctx.Err().
func (o *Orchestrator) Execute(ctx context.Context, tasks []docgen.Task, sum *summary.Summary, b *budget.CallBudget) (Report, error) {
	log := o.logger()
	emit := EmitterFrom(ctx)
	started := time.Now()

	report := Report{
		Status:    StatePending,
		CallsMax:  b.Max(),
		StartedAt: started,
		Results:   make([]docgen.Result, 0, len(tasks)),
	}
	if o.Generator == nil {
		return report, errors.New("orchestrator: generator is required")
	}
	ordered := byPriority(tasks)

	o.transition(emit, &report, StateRunning)
	exhausted := false
	for i, t := range ordered {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			report.CallsUsed = b.Used()
			report.Duration = time.Since(started)
			// The run never reached a terminal state; it stays running.
			log.Warn("run cancelled", zap.Int("completed_tasks", i), zap.Error(err))
			return report, err
		}
		emit.Emit(Event{Type: EventTaskStart, Kind: t.Kind, Index: i + 1, Total: len(ordered)})

		var res docgen.Result
		if exhausted {
			res = docgen.Result{
				Kind:   t.Kind,
				Status: docgen.StatusSkippedBudget,
				Reason: fmt.Sprintf("call budget exhausted (%d/%d)", b.Used(), b.Max()),
			}
		} else {
			res = o.Generator.Generate(ctx, t, sum, b)
		}
		switch res.Status {
		case docgen.StatusSkippedBudget:
			if !exhausted {
				log.Info("call budget exhausted", zap.String("artifact", string(t.Kind)), zap.Int("calls_used", b.Used()))
			}
			exhausted = true
		case docgen.StatusWritten:
			res = o.persist(ctx, res)
		}

		report.Results = append(report.Results, res)
		emit.Emit(Event{Type: EventTaskDone, Kind: t.Kind, Result: &report.Results[len(report.Results)-1], Index: i + 1, Total: len(ordered)})
	}

	report.CallsUsed = b.Used()
	report.Duration = time.Since(started)
	o.transition(emit, &report, finalState(report.Results))
	return report, nil
}

func (o *Orchestrator) persist(ctx context.Context, res docgen.Result) docgen.Result {
	if o.Writer == nil {
		return res
	}
	p, err := o.Writer.Write(ctx, res.Kind, res.Content)
	if err != nil {
		o.logger().Warn("write failed", zap.String("artifact", string(res.Kind)), zap.Error(err))
		return docgen.Result{
			Kind:      res.Kind,
			Status:    docgen.StatusFailed,
			Error:     fmt.Sprintf("write %s: %v", output.Path(res.Kind), err),
			ErrorKind: ErrorKindWrite,
		}
	}
	res.Path = p
	return res
}

func (o *Orchestrator) transition(emit Emitter, r *Report, to State) {
	o.logger().Info("run state", zap.String("from", string(r.Status)), zap.String("to", string(to)))
	r.Status = to
	emit.Emit(Event{Type: EventState, State: to})
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// byPriority returns a copy of tasks sorted by ascending priority; ties keep input order.
func byPriority(tasks []docgen.Task) []docgen.Task {
	out := append([]docgen.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
