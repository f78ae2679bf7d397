package metrics

import (
	"time"

	"github.com/fielddb/fieldauth/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements core.Recorder at compile time
var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordTokenIssued(grantType string, generationTime time.Duration) {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)                                  {}
func (n *NoopMetrics) RecordTokenValidation(result string, duration time.Duration)      {}
func (n *NoopMetrics) RecordAuthorizationCode(event string)                             {}
func (n *NoopMetrics) RecordLogin(success bool)                                         {}
func (n *NoopMetrics) RecordLogout()                                                    {}
func (n *NoopMetrics) RecordRegistration(success bool)                                  {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string)                        {}
