// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Pipeline and session-state error codes.
const (
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeInsufficientData    ErrorCode = "INSUFFICIENT_DATA"
	ErrCodeLocationBlocked     ErrorCode = "LOCATION_BLOCKED"
	ErrCodeNoResults           ErrorCode = "NO_RESULTS"

	ErrCodeUnknownSession     ErrorCode = "UNKNOWN_SESSION"
	ErrCodeAlreadyPaid        ErrorCode = "ALREADY_PAID"
	ErrCodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"
	ErrCodeNotPaid            ErrorCode = "NOT_PAID"
	ErrCodeOrderNotRequired   ErrorCode = "ORDER_NOT_REQUIRED"

	ErrCodeGatewayError          ErrorCode = "GATEWAY_ERROR"
	ErrCodeDatabaseConnFailed    ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseQueryFailed   ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeSessionPersistFailed  ErrorCode = "SESSION_PERSIST_FAILED"
	ErrCodeNarrativeTimeout      ErrorCode = "NARRATIVE_TIMEOUT"
	ErrCodeGeoIPTimeout          ErrorCode = "GEOIP_TIMEOUT"
	ErrCodeNotificationSendError ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
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

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError rejects malformed coordinates/amounts/tiers before any I/O.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Request input failed shape validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderUnavailableError wraps an unreachable places/geo provider. The
// failure is surfaced to the caller, never retried internally.
func NewProviderUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   "Places provider unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsufficientDataError marks a provider response with no usable places.
// Distinct from a validation block: data availability, not policy.
func NewInsufficientDataError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientData,
		Message:   "Provider returned no usable places",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLocationBlockedError marks the uninhabitable-area hard block.
func NewLocationBlockedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocationBlocked,
		Message:   "Location failed habitability validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownSessionError creates a non-retryable missing-session error.
func NewUnknownSessionError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownSession,
		Message:   "Analysis session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadyPaidError marks an order request against a paid session that has
// no surviving order row to return.
func NewAlreadyPaidError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadyPaid,
		Message:   "Session is already paid",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderNotRequiredError rejects order creation for free-tier sessions.
func NewOrderNotRequiredError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrderNotRequired,
		Message:   "Free tier sessions do not require payment orders",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVerificationFailedError marks a gateway signature mismatch.
func NewVerificationFailedError(orderID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVerificationFailed,
		Message:   "Payment signature verification failed",
		Details:   fmt.Sprintf("orderId: %s", orderID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotPaidError blocks result reads on unpaid non-free sessions.
func NewNotPaidError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotPaid,
		Message:   "Session is not paid",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayError wraps a payment gateway request failure.
func NewGatewayError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayError,
		Message:   "Payment gateway request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseQueryFailedError creates a retryable query execution error.
func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseQueryFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionPersistFailedError creates a retryable session insert error.
func NewSessionPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionPersistFailed,
		Message:   "Failed to persist analysis session",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNarrativeTimeoutError marks a narrative call that exceeded its budget.
// Non-retryable: the report degrades to no recommendations instead.
func NewNarrativeTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNarrativeTimeout,
		Message:   "Narrative service timeout",
		Details:   "recommendation call exceeded timeout threshold",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable receipt delivery error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendError,
		Message:   "Receipt delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (identical
// by convention so process models and worker logs read the same).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:          "INVALID_INPUT",
	ErrCodeProviderUnavailable:   "PROVIDER_UNAVAILABLE",
	ErrCodeInsufficientData:      "INSUFFICIENT_DATA",
	ErrCodeLocationBlocked:       "LOCATION_BLOCKED",
	ErrCodeNoResults:             "NO_RESULTS",
	ErrCodeUnknownSession:        "UNKNOWN_SESSION",
	ErrCodeAlreadyPaid:           "ALREADY_PAID",
	ErrCodeVerificationFailed:    "VERIFICATION_FAILED",
	ErrCodeNotPaid:               "NOT_PAID",
	ErrCodeOrderNotRequired:      "ORDER_NOT_REQUIRED",
	ErrCodeGatewayError:          "GATEWAY_ERROR",
	ErrCodeDatabaseConnFailed:    "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseQueryFailed:   "DATABASE_QUERY_FAILED",
	ErrCodeSessionPersistFailed:  "SESSION_PERSIST_FAILED",
	ErrCodeNarrativeTimeout:      "NARRATIVE_TIMEOUT",
	ErrCodeGeoIPTimeout:          "GEOIP_TIMEOUT",
	ErrCodeNotificationSendError: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
// Validation and session-state violations are never retried; only transient
// provider/infrastructure failures are eligible, and even those are
// caller/orchestrator-directed.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderUnavailable,
		ErrCodeGatewayError,
		ErrCodeDatabaseConnFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeSessionPersistFailed,
		ErrCodeNotificationSendError:
		return 3 // Retryable technical errors

	default:
		return 0 // Validation and state-machine errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "PAID") ||
		strings.Contains(codeStr, "ORDER") || strings.Contains(codeStr, "VERIFICATION"):
		return "PAYMENT"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "DATA") ||
		strings.Contains(codeStr, "LOCATION") || strings.Contains(codeStr, "RESULTS"):
		return "ANALYSIS"
	case strings.Contains(codeStr, "GATEWAY"):
		return "GATEWAY"
	case strings.Contains(codeStr, "NARRATIVE") || strings.Contains(codeStr, "GEOIP"):
		return "EXTERNAL"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
