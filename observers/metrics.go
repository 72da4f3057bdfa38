// Package observers holds sandbox.Observer implementations that forward
// events to external systems: Prometheus metrics and analytics.
package observers

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/asbx/agent-sandbox/sandbox"
)

var (
	commandsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_sandbox_commands_executed_total",
			Help: "Number of commands executed, labeled by exit status.",
		},
		[]string{"sandbox_id", "exit_status"},
	)

	commandDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_sandbox_command_duration_seconds",
			Help:    "Command execution duration.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"sandbox_id"},
	)

	fileChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_sandbox_file_changes_total",
			Help: "Number of quota-checked file mutations, labeled by operation.",
		},
		[]string{"sandbox_id", "op"},
	)

	lifecycleEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_sandbox_lifecycle_events_total",
			Help: "Sandbox lifecycle transitions.",
		},
		[]string{"sandbox_id", "phase"},
	)
)

func init() {
	prometheus.MustRegister(
		commandsExecutedTotal,
		commandDurationSeconds,
		fileChangesTotal,
		lifecycleEventsTotal,
	)
}

// Metrics is a sandbox.Observer that records CommandExecuted, FileChanged
// and LifecycleEvent events against the package's Prometheus collectors;
// other event kinds are ignored. Construct once and Subscribe it to
// every sandbox you want metered; the collectors are process-global so
// metrics aggregate across sandboxes by label.
type Metrics struct{}

// NewMetrics constructs a Metrics observer.
func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) Handle(event sandbox.Event) error {
	switch event.Kind {
	case sandbox.EventCommandExecuted:
		data, ok := event.Data.(sandbox.CommandExecutedData)
		if !ok {
			return nil
		}

		status := "success"
		if data.ExitCode != 0 {
			status = "failure"
		}

		commandsExecutedTotal.WithLabelValues(event.SandboxID, status).Inc()
		commandDurationSeconds.WithLabelValues(event.SandboxID).Observe(data.Duration.Seconds())

	case sandbox.EventFileChanged:
		data, ok := event.Data.(sandbox.FileChangedData)
		if !ok {
			return nil
		}

		fileChangesTotal.WithLabelValues(event.SandboxID, data.Op).Inc()

	case sandbox.EventLifecycle:
		data, ok := event.Data.(sandbox.LifecycleData)
		if !ok {
			return nil
		}

		lifecycleEventsTotal.WithLabelValues(event.SandboxID, data.Phase).Inc()
	}

	return nil
}
