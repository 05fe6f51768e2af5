package llmclient

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns.
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WithTimeout bounds every completion call. There is no retry: a timed-out
// call surfaces as an error and the stage falls back to its template path.
func WithTimeout(d time.Duration) Middleware {
	return func(next LLMClient) LLMClient {
		return &timeLimited{next: next, d: d}
	}
}

type timeLimited struct {
	next LLMClient
	d    time.Duration
}

func (t *timeLimited) Name() string { return t.next.Name() }
func (t *timeLimited) Close() error { return t.next.Close() }

func (t *timeLimited) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if t.d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.d)
		defer cancel()
	}
	return t.next.GenerateJSON(ctx, prompt, input)
}

// WithLogging logs request size and errors.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next LLMClient) LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next LLMClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.Marshal(input)
	l.log.Debug("LLM request", zap.String("client", l.next.Name()), zap.Int("bytes", len(prompt)+len(in)))
	raw, err := l.next.GenerateJSON(ctx, prompt, input)
	if err != nil {
		l.log.Warn("LLM error", zap.String("client", l.next.Name()), zap.Error(err))
	}
	return raw, err
}
