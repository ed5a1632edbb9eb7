package reconciler

import "time"

// Outcome labels for finished runs.
const (
	OutcomeClean    = "clean"
	OutcomeRestored = "restored"
	OutcomeMissing  = "missing"
	OutcomeFailed   = "failed"
)

// Recorder receives run metrics. Implementations may forward to Prometheus.
type Recorder interface {
	SetDeclared(n int)
	SetOnDisk(n int)
	IncRestored(id string)
	ObserveRun(outcome string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

// SetDeclared does nothing.
func (NoopRecorder) SetDeclared(int) {}

// SetOnDisk does nothing.
func (NoopRecorder) SetOnDisk(int) {}

// IncRestored does nothing.
func (NoopRecorder) IncRestored(string) {}

// ObserveRun does nothing.
func (NoopRecorder) ObserveRun(string, time.Duration) {}
