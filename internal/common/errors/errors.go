// Package errors provides the standardized error taxonomy of the advisory
// core and its mapping onto BPMN errors for the job workers.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Recovered inside the orchestration core; surface only in logs/metrics.
	ErrCodeToolTransportFailed       ErrorCode = "TOOL_TRANSPORT_FAILED"
	ErrCodeToolTimeout               ErrorCode = "TOOL_TIMEOUT"
	ErrCodeClassificationUnavailable ErrorCode = "CLASSIFICATION_UNAVAILABLE"
	ErrCodeEndpointNotConfigured     ErrorCode = "ENDPOINT_NOT_CONFIGURED"
	ErrCodeMalformedUpstream         ErrorCode = "MALFORMED_UPSTREAM_RESPONSE"
	ErrCodeRegionHierarchyCycle      ErrorCode = "REGION_HIERARCHY_CYCLE"

	// Reach the workflow engine.
	ErrCodeCatalogQueryFailed ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

func newError(code ErrorCode, message string, retryable bool, cause error) *StandardError {
	se := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
}

// BPMNError represents an error thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func NewToolTransportError(tool string, err error) *StandardError {
	se := newError(ErrCodeToolTransportFailed, "Tool server request failed", true, err)
	se.Metadata = map[string]interface{}{"tool": tool}
	return se
}

func NewToolTimeoutError(tool string, timeout time.Duration) *StandardError {
	se := newError(ErrCodeToolTimeout, "Tool server request timed out", true, nil)
	se.Details = fmt.Sprintf("tool: %s, timeout: %s", tool, timeout)
	se.Metadata = map[string]interface{}{"tool": tool}
	return se
}

func NewClassificationUnavailableError(err error) *StandardError {
	return newError(ErrCodeClassificationUnavailable, "Intent classifier unavailable", true, err)
}

func NewEndpointNotConfiguredError(slug string) *StandardError {
	se := newError(ErrCodeEndpointNotConfigured, "No endpoint configured for tool server", false, nil)
	se.Details = fmt.Sprintf("slug: %s", slug)
	return se
}

func NewMalformedUpstreamError(source string, err error) *StandardError {
	se := newError(ErrCodeMalformedUpstream, "Upstream response could not be decoded", false, err)
	se.Metadata = map[string]interface{}{"source": source}
	return se
}

func NewRegionHierarchyCycleError(regionID string) *StandardError {
	se := newError(ErrCodeRegionHierarchyCycle, "Region parent chain is cyclic or too deep", false, nil)
	se.Details = fmt.Sprintf("regionId: %s", regionID)
	return se
}

func NewCatalogQueryFailedError(query string, err error) *StandardError {
	se := newError(ErrCodeCatalogQueryFailed, "Catalog query failed", true, err)
	se.Metadata = map[string]interface{}{"query": query}
	return se
}

func NewInvalidInputError(details string) *StandardError {
	se := newError(ErrCodeInvalidInput, "Job input failed validation", false, nil)
	se.Details = details
	return se
}

// BPMNErrorMapping maps internal codes to the error codes modelled in BPMN.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCatalogQueryFailed: "CATALOG_UNAVAILABLE",
	ErrCodeInvalidInput:       "INVALID_INPUT",
}

// GetRetryCount returns how many engine retries a code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogQueryFailed:
		return 3
	case ErrCodeToolTransportFailed, ErrCodeToolTimeout, ErrCodeClassificationUnavailable:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError maps a StandardError onto the engine vocabulary.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		code = string(stdErr.Code)
	}
	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: stdErr.Metadata,
	}
}

// AsStandard extracts a StandardError from err or wraps it as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	var se *StandardError
	if errors.As(err, &se) {
		return se
	}
	return newError(ErrCodeInternal, "Unexpected error", false, err)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var se *StandardError
	return errors.As(err, &se) && se.Code == code
}
