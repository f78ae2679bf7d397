package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Token Operations
	RecordTokenIssued(grantType string, generationTime time.Duration)
	RecordTokenRefresh(success bool)
	RecordTokenValidation(result string, duration time.Duration)

	// Authorization codes: issued, consumed, revoked, rejected
	RecordAuthorizationCode(event string)

	// Authentication
	RecordLogin(success bool)
	RecordLogout()
	RecordRegistration(success bool)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}
