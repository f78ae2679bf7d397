package metrics

import "time"

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

// Token validation results
const (
	ValidationValid   = "valid"
	ValidationExpired = "expired"
	ValidationInvalid = "invalid"
	ValidationRevoked = "revoked"
)

// Authorization code events
const (
	CodeIssued   = "issued"
	CodeConsumed = "consumed"
	CodeRevoked  = "revoked"
	CodeRejected = "rejected"
)

func outcome(success bool, failed string) string {
	if success {
		return resultSuccess
	}
	return failed
}

// RecordTokenIssued records a token pair issued for a grant
func (m *Metrics) RecordTokenIssued(grantType string, generationTime time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(grantType).Inc()
	m.TokenGenerationDuration.WithLabelValues(grantType).Observe(generationTime.Seconds())
}

// RecordTokenRefresh records token refresh attempt
func (m *Metrics) RecordTokenRefresh(success bool) {
	m.TokensRefreshedTotal.WithLabelValues(outcome(success, resultError)).Inc()
}

// RecordTokenValidation records bearer token validation
func (m *Metrics) RecordTokenValidation(result string, duration time.Duration) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
	m.TokenValidationDuration.Observe(duration.Seconds())
}

// RecordAuthorizationCode records an authorization code lifecycle event
func (m *Metrics) RecordAuthorizationCode(event string) {
	m.AuthorizationCodesTotal.WithLabelValues(event).Inc()
}

// RecordLogin records login attempt
func (m *Metrics) RecordLogin(success bool) {
	m.AuthLoginTotal.WithLabelValues(outcome(success, resultFailure)).Inc()
}

// RecordLogout records logout
func (m *Metrics) RecordLogout() {
	m.AuthLogoutTotal.Inc()
}

// RecordRegistration records an account registration attempt
func (m *Metrics) RecordRegistration(success bool) {
	m.AuthRegistrationTotal.WithLabelValues(outcome(success, resultFailure)).Inc()
}

// RecordDatabaseQueryError records a failed database query
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
