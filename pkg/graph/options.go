package graph

import (
	"log/slog"

	"scrivener/pkg/graph/checkpoint"
	"scrivener/pkg/graph/observability"
)

// runConfig holds per-Run execution configuration.
type runConfig struct {
	maxIterations int
	logger        *slog.Logger

	checkpointStore        checkpoint.Store
	threadID               string
	sequence               int
	checkpointFailureFatal bool

	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
}

func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 100,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations caps the number of node executions per turn.
// Default: 100. A graph that exceeds the cap fails with ErrMaxIterations
// instead of looping forever.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithRunLogger sets the logger used for run-level events. Without it the
// Context's logger is used.
func WithRunLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) { c.logger = logger }
}

// WithCheckpointing persists state to the store after every node,
// keyed by the given thread ID. Checkpoint failures are logged and
// ignored unless WithFatalCheckpointFailures is also set.
func WithCheckpointing(store checkpoint.Store, threadID string) RunOption {
	return func(c *runConfig) {
		c.checkpointStore = store
		c.threadID = threadID
	}
}

// WithFatalCheckpointFailures makes a failed checkpoint save abort the
// turn instead of being logged and skipped.
func WithFatalCheckpointFailures() RunOption {
	return func(c *runConfig) { c.checkpointFailureFatal = true }
}

// WithMetrics records node and turn metrics through the given recorder.
func WithMetrics(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing emits OpenTelemetry spans for the turn and each node.
func WithTracing(spans observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if spans != nil {
			c.spans = spans
			c.tracingEnabled = true
		}
	}
}
