package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubClient struct {
	name  string
	calls int
	fn    func(ctx context.Context) (json.RawMessage, error)
}

func (s *stubClient) Name() string { return s.name }
func (s *stubClient) Close() error { return nil }
func (s *stubClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx)
	}
	return json.RawMessage(`{}`), nil
}

func TestWithTimeoutSetsDeadline(t *testing.T) {
	stub := &stubClient{name: "stub", fn: func(ctx context.Context) (json.RawMessage, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok, "deadline expected")
		assert.LessOrEqual(t, time.Until(deadline), time.Second)
		return json.RawMessage(`{}`), nil
	}}

	_, err := Wrap(stub, WithTimeout(time.Second)).GenerateJSON(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestWithTimeoutZeroIsNoop(t *testing.T) {
	stub := &stubClient{name: "stub", fn: func(ctx context.Context) (json.RawMessage, error) {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return json.RawMessage(`{}`), nil
	}}
	_, err := Wrap(stub, WithTimeout(0)).GenerateJSON(context.Background(), "p", nil)
	require.NoError(t, err)
}

func TestWithTimeoutDoesNotRetry(t *testing.T) {
	stub := &stubClient{name: "stub", fn: func(ctx context.Context) (json.RawMessage, error) {
		return nil, context.DeadlineExceeded
	}}
	_, err := Wrap(stub, WithTimeout(time.Millisecond)).GenerateJSON(context.Background(), "p", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, stub.calls, "a timed-out call must not be retried")
}

func TestWrapOrder(t *testing.T) {
	stub := &stubClient{name: "inner"}
	wrapped := Wrap(stub, WithLogging(zap.NewNop()), WithTimeout(time.Second))
	assert.Equal(t, "inner", wrapped.Name())

	_, err := wrapped.GenerateJSON(context.Background(), "p", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestWithLoggingPassesErrorThrough(t *testing.T) {
	want := errors.New("backend down")
	stub := &stubClient{name: "stub", fn: func(ctx context.Context) (json.RawMessage, error) {
		return nil, want
	}}
	_, err := Wrap(stub, WithLogging(nil)).GenerateJSON(context.Background(), "p", nil)
	assert.ErrorIs(t, err, want)
}
