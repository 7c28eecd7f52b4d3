package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, retries, logging, timeouts).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		if rps <= 0 {
			return next
		}
		if burst <= 0 {
			burst = 1
		}
		return &rateLimited{next: next, lim: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next Client
	lim  *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Generate(ctx context.Context, req Request) (string, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Generate(ctx, req)
}

// -------- Timeout --------

// Timeout bounds every Generate call. d <= 0 disables it.
func Timeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next Client
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }
func (t *timed) Close() error { return t.next.Close() }
func (t *timed) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Generate(ctx, req)
}

// -------- Logging --------

// WithLogging logs request size, latency and errors. A nil logger disables it.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next Client) Client {
		if logger == nil {
			return next
		}
		return &logging{next: next, log: logger.With(zap.String("client", next.Name()))}
	}
}

type logging struct {
	next Client
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	l.log.Debug("llm request",
		zap.String("artifact", req.Artifact),
		zap.String("detail", string(req.Detail)),
		zap.Int("prompt_bytes", len(req.System)+len(req.Prompt)),
	)
	out, err := l.next.Generate(ctx, req)
	if err != nil {
		l.log.Warn("llm error", zap.String("artifact", req.Artifact), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return out, err
	}
	l.log.Debug("llm response", zap.String("artifact", req.Artifact), zap.Duration("elapsed", time.Since(start)), zap.Int("bytes", len(out)))
	return out, nil
}
