// Package metrics defines the minimal metrics surface used by the guess
// toolkit. Core code depends only on Backend; concrete backends (Datadog)
// live in subpackages so their SDKs never leak into the engine.
package metrics

// Labels are free-form metric dimensions.
type Labels map[string]string

// Backend receives counter and histogram updates. Implementations must be
// safe for concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Nop discards all metrics. It is the default backend.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}

var _ Backend = Nop{}
