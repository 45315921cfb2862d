// Package toolinvoker calls tools exposed by tool servers over JSON-RPC 2.0
// and normalizes their responses.
package toolinvoker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	commonhttp "agri-advisor/internal/common/http"
	"agri-advisor/internal/common/logger"
	"agri-advisor/internal/common/metrics"
	"agri-advisor/internal/common/observability"
)

var (
	ErrTransport         = errors.New("tool transport failed")
	ErrTimeout           = errors.New("tool call timed out")
	ErrHTTPStatus        = errors.New("tool server returned non-success status")
	ErrMalformedResponse = errors.New("malformed tool response")
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultImageTimeout = 45 * time.Second

	acceptHeader = "application/json, text/event-stream"
)

// Result is the outcome of one tool call. Err is nil when a payload was
// decoded; the payload itself may still be an error object.
type Result struct {
	Payload  interface{}
	Err      error
	Duration time.Duration
}

// Failed reports whether the call produced nothing usable.
func (r Result) Failed() bool {
	return r.Err != nil || IsErrorOrNoData(r.Payload)
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Invoker posts tools/call requests to tool server endpoints.
type Invoker struct {
	client         *commonhttp.Client
	defaultTimeout time.Duration
	logger         logger.Logger
}

func New(client *commonhttp.Client, defaultTimeout time.Duration, log logger.Logger) *Invoker {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Invoker{
		client:         client,
		defaultTimeout: defaultTimeout,
		logger:         log.With(map[string]interface{}{"component": "tool-invoker"}),
	}
}

// CallTool invokes toolName on the server at endpoint. It never panics and
// never returns an error separately: every failure is tagged on Result.Err
// with one of the package sentinels.
func (i *Invoker) CallTool(ctx context.Context, endpoint, toolName string, args map[string]interface{}, headers map[string]string, timeout time.Duration) (res Result) {
	start := time.Now()
	if timeout <= 0 {
		timeout = i.defaultTimeout
	}

	ctx, span := observability.StartSpan(ctx, "tool.call",
		attribute.String("tool", toolName),
		attribute.String("endpoint", endpoint),
	)
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("%w: panic: %v", ErrTransport, r)}
		}
		res.Duration = time.Since(start)
		outcome := i.observe(toolName, res)
		span.SetAttributes(attribute.String("outcome", outcome))
		if res.Err != nil {
			span.SetStatus(codes.Error, res.Err.Error())
		}
		span.End()
	}()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if args == nil {
		args = map[string]interface{}{}
	}
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  rpcParams{Name: toolName, Arguments: args},
	}

	hdrs := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		hdrs[k] = v
	}
	hdrs["Accept"] = acceptHeader
	if tp := observability.W3CTraceparent(ctx); tp != "" {
		hdrs["traceparent"] = tp
	}

	url := strings.TrimRight(endpoint, "/") + "/mcp"
	status, body, err := i.client.PostJSON(callCtx, url, req, hdrs)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{Err: fmt.Errorf("%w: %s after %s", ErrTimeout, toolName, timeout)}
		}
		return Result{Err: fmt.Errorf("%w: %s: %v", ErrTransport, toolName, err)}
	}
	if status < 200 || status >= 300 {
		return Result{Err: fmt.Errorf("%w: %s: status %d", ErrHTTPStatus, toolName, status)}
	}

	decoded := Decode(body)
	if !decoded.OK {
		return Result{Err: fmt.Errorf("%w: %s: %s", ErrMalformedResponse, toolName, decoded.Reason)}
	}
	return Result{Payload: decoded.Payload}
}

func (i *Invoker) observe(toolName string, res Result) string {
	outcome := outcomeOf(res)
	metrics.ToolCalls.WithLabelValues(toolName, outcome).Inc()
	metrics.ToolCallDuration.WithLabelValues(toolName).Observe(res.Duration.Seconds())

	if res.Err != nil {
		i.logger.Warn("tool call failed", map[string]interface{}{
			"tool":       toolName,
			"outcome":    outcome,
			"durationMs": res.Duration.Milliseconds(),
			"error":      res.Err.Error(),
		})
		return outcome
	}
	i.logger.Debug("tool call completed", map[string]interface{}{
		"tool":       toolName,
		"outcome":    outcome,
		"durationMs": res.Duration.Milliseconds(),
	})
	return outcome
}

func outcomeOf(res Result) string {
	switch {
	case errors.Is(res.Err, ErrTimeout):
		return "timeout"
	case errors.Is(res.Err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(res.Err, ErrMalformedResponse):
		return "malformed"
	case res.Err != nil:
		return "transport"
	case IsErrorOrNoData(res.Payload):
		return "no_data"
	default:
		return "ok"
	}
}
