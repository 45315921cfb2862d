// Package orchestrator turns one farmer message into per-category tool data
// or fallback guidance for the answer composer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"agri-advisor/internal/catalog"
	apperrors "agri-advisor/internal/common/errors"
	"agri-advisor/internal/common/logger"
	"agri-advisor/internal/common/metrics"
	"agri-advisor/internal/common/observability"
	"agri-advisor/internal/intent"
	"agri-advisor/internal/toolinvoker"
	"agri-advisor/pkg/registry"
)

// ToolCaller is satisfied by *toolinvoker.Invoker.
type ToolCaller interface {
	CallTool(ctx context.Context, endpoint, toolName string, args map[string]interface{}, headers map[string]string, timeout time.Duration) toolinvoker.Result
}

// IntentDetector is satisfied by *intent.Detector.
type IntentDetector interface {
	DetectIntents(ctx context.Context, message, country, language string) intent.Detection
}

type Config struct {
	ToolTimeout  time.Duration
	ImageTimeout time.Duration
}

// Request is one orchestration input. Servers comes from the server
// registry for the same coordinates.
type Request struct {
	RequestID string
	Message   string
	Language  string
	Latitude  *float64
	Longitude *float64
	Servers   catalog.LocationServers
}

// Result is created fresh per request and never persisted here.
type Result struct {
	RequestID          string                                `json:"requestId"`
	Country            string                                `json:"country"`
	Results            map[catalog.Category]interface{}      `json:"results"`
	DetectedCategories []catalog.Category                    `json:"detectedCategories"`
	Classification     *intent.Classification                `json:"classification"`
	IntentSource       intent.Source                         `json:"intentSource"`
	FallbackContexts   map[catalog.Category]*FallbackContext `json:"fallbackContexts"`
}

type Orchestrator struct {
	detector IntentDetector
	tools    ToolCaller
	bindings *Bindings
	config   Config
	obs      *observability.Observability
	logger   logger.Logger
}

// New builds an orchestrator. obs may be nil.
func New(detector IntentDetector, tools ToolCaller, bindings *Bindings, cfg Config, obs *observability.Observability, log logger.Logger) *Orchestrator {
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = toolinvoker.DefaultTimeout
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = toolinvoker.DefaultImageTimeout
	}
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &Orchestrator{
		detector: detector,
		tools:    tools,
		bindings: bindings,
		config:   cfg,
		obs:      obs,
		logger:   log.With(map[string]interface{}{"component": "orchestrator"}),
	}
}

// categoryOutcome is what one category dispatch produces: exactly one of
// payload or fallback is set.
type categoryOutcome struct {
	payload  interface{}
	fallback *FallbackContext
}

// Orchestrate never fails. Every problem on the way degrades to a fallback
// context for the affected category.
func (o *Orchestrator) Orchestrate(ctx context.Context, req Request) *Result {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := o.logger.With(map[string]interface{}{"requestId": requestID})

	ctx, span := observability.StartSpan(ctx, "orchestrate", attribute.String("request_id", requestID))
	defer span.End()

	country := CountryLabel(req.Servers.DetectedRegions)
	result := &Result{
		RequestID:          requestID,
		Country:            country,
		Results:            make(map[catalog.Category]interface{}),
		DetectedCategories: []catalog.Category{},
		IntentSource:       intent.SourceNone,
		FallbackContexts:   make(map[catalog.Category]*FallbackContext),
	}

	detection, ok := o.detect(ctx, req, country, log)
	if ok {
		result.DetectedCategories = detection.Categories
		result.Classification = detection.Classification
		result.IntentSource = detection.Source
	}

	in := callInput{
		latitude:       req.Latitude,
		longitude:      req.Longitude,
		message:        req.Message,
		language:       req.Language,
		country:        country,
		classification: result.Classification,
	}

	outcomes := make(map[catalog.Category]categoryOutcome, len(result.DetectedCategories))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, category := range result.DetectedCategories {
		wg.Add(1)
		go func(category catalog.Category) {
			defer wg.Done()
			out := o.dispatchSafely(ctx, category, req.Servers, in, log)

			mu.Lock()
			outcomes[category] = out
			mu.Unlock()
		}(category)
	}
	wg.Wait()

	// Nothing resolved before a cancellation is handed back to the caller.
	cancelled := ctx.Err() != nil
	for category, out := range outcomes {
		if cancelled && out.fallback == nil {
			binding, _ := o.bindings.For(category)
			out = categoryOutcome{fallback: newFallback(category, binding.DataSource, ReasonCancelled, country)}
		}
		if out.fallback != nil {
			result.FallbackContexts[category] = out.fallback
			metrics.CategoryOutcomes.WithLabelValues(string(category), "fallback").Inc()
			continue
		}
		result.Results[category] = out.payload
		metrics.CategoryOutcomes.WithLabelValues(string(category), "data").Inc()
	}
	if cancelled {
		log.Warn("request cancelled; completed results withheld", map[string]interface{}{
			"categories": result.DetectedCategories,
		})
	}

	span.SetAttributes(
		attribute.String("intent_source", string(result.IntentSource)),
		attribute.Int("fallbacks", len(result.FallbackContexts)),
	)
	metrics.Orchestrations.WithLabelValues(string(result.IntentSource)).Inc()
	o.obs.RecordOrchestration(ctx, time.Since(start), string(result.IntentSource), len(result.FallbackContexts))

	log.Info("orchestration complete", map[string]interface{}{
		"country":      country,
		"intentSource": string(result.IntentSource),
		"categories":   result.DetectedCategories,
		"results":      len(result.Results),
		"fallbacks":    len(result.FallbackContexts),
		"durationMs":   time.Since(start).Milliseconds(),
	})
	return result
}

func (o *Orchestrator) detect(ctx context.Context, req Request, country string, log logger.Logger) (det intent.Detection, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("intent detection panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			ok = false
		}
	}()
	return o.detector.DetectIntents(ctx, req.Message, country, req.Language), true
}

func (o *Orchestrator) dispatchSafely(ctx context.Context, category catalog.Category, servers catalog.LocationServers, in callInput, log logger.Logger) (out categoryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("category dispatch panicked", map[string]interface{}{
				"category": string(category),
				"panic":    fmt.Sprint(r),
			})
			out = categoryOutcome{fallback: newFallback(category, "", ReasonNoData, in.country)}
		}
	}()
	return o.dispatch(ctx, category, servers, in, log)
}

func (o *Orchestrator) dispatch(ctx context.Context, category catalog.Category, servers catalog.LocationServers, in callInput, log logger.Logger) categoryOutcome {
	ctx, span := observability.StartSpan(ctx, "category.dispatch", attribute.String("category", string(category)))
	defer span.End()

	binding, ok := o.bindings.For(category)
	if !ok {
		return categoryOutcome{fallback: newFallback(category, "", reasonNoService(category, in.country), in.country)}
	}

	if binding.RequiresCoordinates && (in.latitude == nil || in.longitude == nil) {
		return categoryOutcome{fallback: newFallback(category, binding.DataSource, ReasonNoCoordinates, in.country)}
	}

	server, ok := selectServer(binding, servers)
	if !ok {
		return categoryOutcome{fallback: newFallback(category, binding.DataSource, reasonNoService(category, in.country), in.country)}
	}

	in.defaults = binding.Defaults
	merged, failures := o.invoke(ctx, binding, server, in)
	if !toolinvoker.IsErrorOrNoData(merged) {
		return categoryOutcome{payload: merged}
	}

	reason := failureReason(ctx, failures)
	log.Warn("category degraded to fallback", map[string]interface{}{
		"category": string(category),
		"server":   server.Slug,
		"reason":   reason,
	})
	return categoryOutcome{fallback: newFallback(category, binding.DataSource, reason, in.country)}
}

// invoke runs a binding's sub-calls concurrently. A single call yields its
// payload; several are merged into a map keyed by call name, with failed
// calls carrying an error entry. The merged value is nil when every call
// failed.
func (o *Orchestrator) invoke(ctx context.Context, binding registry.Binding, server catalog.ToolServer, in callInput) (interface{}, []error) {
	timeout := o.config.ToolTimeout
	if binding.TimeoutClass == registry.TimeoutClassImage {
		timeout = o.config.ImageTimeout
	}
	headers := buildHeaders(binding, in)

	results := make([]toolinvoker.Result, len(binding.Calls))
	var wg sync.WaitGroup
	for i, call := range binding.Calls {
		wg.Add(1)
		go func(i int, call registry.ToolCall) {
			defer wg.Done()
			results[i] = o.tools.CallTool(ctx, server.Endpoint, call.Tool, buildArguments(call, in), headers, timeout)
		}(i, call)
	}
	wg.Wait()

	var failures []error
	for i, res := range results {
		if res.Err != nil {
			failures = append(failures, classifyFailure(binding.Calls[i].Tool, timeout, res.Err))
		}
	}

	if len(binding.Calls) == 1 {
		if results[0].Err != nil {
			return nil, failures
		}
		return results[0].Payload, failures
	}

	merged := make(map[string]interface{}, len(results))
	usable := 0
	for i, res := range results {
		name := binding.Calls[i].Name
		if res.Failed() {
			merged[name] = map[string]interface{}{"error": failureText(res)}
			continue
		}
		merged[name] = res.Payload
		usable++
	}
	if usable == 0 {
		return nil, failures
	}
	return merged, failures
}

func classifyFailure(tool string, timeout time.Duration, err error) error {
	switch {
	case errors.Is(err, toolinvoker.ErrTimeout):
		return apperrors.NewToolTimeoutError(tool, timeout)
	case errors.Is(err, toolinvoker.ErrMalformedResponse):
		return apperrors.NewMalformedUpstreamError(tool, err)
	default:
		return apperrors.NewToolTransportError(tool, err)
	}
}

func failureText(res toolinvoker.Result) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return "no data"
}

func failureReason(ctx context.Context, failures []error) string {
	if ctx.Err() != nil {
		return ReasonCancelled
	}
	if len(failures) == 0 {
		return ReasonNoData
	}
	for _, err := range failures {
		if !apperrors.HasCode(err, apperrors.ErrCodeToolTimeout) {
			return ReasonUnreachable
		}
	}
	return ReasonTimeout
}
