package errors

import "fmt"

// Error codes
const (
	CodeNetwork    = "NETWORK_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeService    = "SERVICE_ERROR"
)

type PipelineError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NetworkError marks an outbound request that failed after the retry cap.
// Callers use it to tell "source unreachable" apart from "book not found".
type NetworkError struct {
	*PipelineError
	URL      string
	Attempts int
}

func NewNetworkError(message, url string, attempts int, cause error) *NetworkError {
	return &NetworkError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeNetwork,
			StatusCode: 503,
			Context: map[string]any{
				"url":      url,
				"attempts": attempts,
			},
			Cause: cause,
		},
		URL:      url,
		Attempts: attempts,
	}
}

type ValidationError struct {
	*PipelineError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*PipelineError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*PipelineError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}
