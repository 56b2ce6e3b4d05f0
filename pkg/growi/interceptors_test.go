package growi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/growi/pkg/growi"
)

var errTestStop = errors.New("stop")

type captureLogger struct {
	entries []captured
}

type captured struct {
	level  string
	msg    string
	fields map[string]interface{}
}

func (l *captureLogger) Debug(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, captured{"debug", msg, fields})
}

func (l *captureLogger) Info(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, captured{"info", msg, fields})
}

func (l *captureLogger) Warn(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, captured{"warn", msg, fields})
}

func (l *captureLogger) Error(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, captured{"error", msg, fields})
}

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	t.Parallel()

	chain := growi.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *growi.Request) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})

	chain.AddRequestInterceptor(func(ctx context.Context, req *growi.Request) error {
		executionOrder = append(executionOrder, "second")

		return errTestStop
	})

	chain.AddRequestInterceptor(func(ctx context.Context, req *growi.Request) error {
		executionOrder = append(executionOrder, "third")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(ctx, &growi.Request{Method: http.MethodGet, Path: "/_api/v3/page"})
	require.ErrorIs(t, err, errTestStop)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_ResponseInterceptors(t *testing.T) {
	t.Parallel()

	chain := growi.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddResponseInterceptor(func(ctx context.Context, req *growi.Request, resp *growi.Response) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})

	chain.AddResponseInterceptor(func(ctx context.Context, req *growi.Request, resp *growi.Response) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	err := chain.ExecuteResponseInterceptors(ctx, &growi.Request{Method: http.MethodGet, Path: "/test"}, &growi.Response{StatusCode: http.StatusOK})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := growi.HeaderInterceptor(map[string]string{
		"X-Custom-Header": "custom-value",
		"X-Request-ID":    "123456",
	})

	req := &growi.Request{Method: http.MethodGet, Path: "/test"}

	require.NoError(t, interceptor(context.Background(), req))

	assert.Equal(t, "custom-value", req.Headers.Get("X-Custom-Header"))
	assert.Equal(t, "123456", req.Headers.Get("X-Request-ID"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}
	ctx := context.Background()
	req := &growi.Request{Method: http.MethodPost, Path: "/_api/pages.update"}

	require.NoError(t, growi.TimingInterceptor()(ctx, req))
	require.NoError(t, growi.LoggingInterceptor(logger)(ctx, req))

	_, stamped := req.Metadata["start_time"].(time.Time)
	assert.True(t, stamped)

	require.NoError(t, growi.LoggingResponseInterceptor(logger)(ctx, req, &growi.Response{StatusCode: http.StatusOK}))
	require.NoError(t, growi.LoggingResponseInterceptor(logger)(ctx, req, &growi.Response{Error: errTestStop}))

	require.Len(t, logger.entries, 3)
	assert.Equal(t, "API Request", logger.entries[0].msg)
	assert.Equal(t, "debug", logger.entries[1].level)
	assert.Contains(t, logger.entries[1].fields, "duration")
	assert.Equal(t, "error", logger.entries[2].level)
	assert.Equal(t, "stop", logger.entries[2].fields["error"])
}
