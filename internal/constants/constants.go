package constants

import "time"

var RetryConfig = struct {
	BaseDelay time.Duration
	Jitter    time.Duration
}{
	BaseDelay: 500 * time.Millisecond,
	Jitter:    250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 3,
	ResetTimeout:     60 * time.Second,
}

// Retryable HTTP statuses for outbound scraper requests.
var RetryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

var AnalyzerVersion = "2.0.0"
