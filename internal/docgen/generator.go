package docgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"repodoc/internal/budget"
	"repodoc/internal/llm"
	"repodoc/internal/summary"
)

// State answers whether an artifact already exists in the output location.
type State interface {
	Present(ctx context.Context, kind ArtifactKind) (bool, error)
}

// StateFunc adapts a function to State.
type StateFunc func(ctx context.Context, kind ArtifactKind) (bool, error)

func (f StateFunc) Present(ctx context.Context, kind ArtifactKind) (bool, error) { return f(ctx, kind) }

// Generator runs one task at a time against the model client.
type Generator struct {
	Client llm.Client
	State  State
	Detail llm.DetailLevel
	Log    *zap.Logger
}

// NewGenerator returns a generator; a nil logger disables logging.
func NewGenerator(client llm.Client, state State, detail llm.DetailLevel, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{Client: client, State: state, Detail: detail, Log: log}
}

// Generate evaluates the precondition, reserves one call, invokes the model
// exactly once and post-processes the reply. A reserved slot is never given
// back, even when the call fails. Retries, if any, are the client's concern.
func (g *Generator) Generate(ctx context.Context, t Task, sum *summary.Summary, b *budget.CallBudget) Result {
	log := g.logger().With(zap.String("artifact", string(t.Kind)))
	res := Result{Kind: t.Kind}

	if t.Precondition == WhenAbsent && g.State != nil {
		present, err := g.State.Present(ctx, t.Kind)
		if err != nil {
			res.Status = StatusFailed
			res.Error = fmt.Sprintf("check existing %s: %v", t.Kind, err)
			res.ErrorKind = ErrorKindPrecondition
			log.Warn("precondition check failed", zap.Error(err))
			return res
		}
		if present {
			res.Status = StatusSkippedPrecondition
			res.Reason = "artifact already exists"
			log.Info("skipped", zap.String("reason", res.Reason))
			return res
		}
	}

	if !b.TryReserve() {
		res.Status = StatusSkippedBudget
		res.Reason = fmt.Sprintf("call budget exhausted (%d/%d)", b.Used(), b.Max())
		log.Info("skipped", zap.String("reason", res.Reason))
		return res
	}

	if g.Client == nil {
		res.Status = StatusFailed
		res.Error = "no model client configured"
		res.ErrorKind = string(llm.KindUnknown)
		return res
	}

	req := BuildRequest(t, sum, g.Detail)
	out, err := g.Client.Generate(ctx, req)
	if err == nil && strings.TrimSpace(out) == "" {
		err = llm.Malformed(g.Client.Name(), llm.ErrEmptyResponse)
	}
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		res.ErrorKind = errorKind(err)
		log.Warn("generation failed", zap.Int("calls_used", b.Used()), zap.Error(err))
		return res
	}

	res.Status = StatusWritten
	res.Content = Normalize(t.Kind, out)
	log.Info("generated",
		zap.Int("calls_used", b.Used()),
		zap.Int("bytes", len(res.Content)),
		zap.Int("headings", len(Headings(res.Content))),
	)
	return res
}

func (g *Generator) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

func errorKind(err error) string {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Kind)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return string(llm.KindNetwork)
	}
	return string(llm.KindUnknown)
}
