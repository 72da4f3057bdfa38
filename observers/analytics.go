package observers

import (
	analytics "github.com/segmentio/analytics-go/v3"

	"github.com/asbx/agent-sandbox/sandbox"
)

// Analytics is a sandbox.Observer that forwards CommandExecuted and
// LifecycleEvent events to Segment, one Track call per event. Errors
// enqueueing are swallowed per the fanout's contract (spec §4.5); the
// sandbox.Observer interface only uses the returned error to decide
// whether to log, never to abort dispatch.
type Analytics struct {
	client analytics.Client
}

// NewAnalytics constructs an Analytics observer backed by a Segment
// client created from writeKey. Callers should call Close on the
// returned client (via Client) when done, to flush buffered events.
func NewAnalytics(writeKey string) (*Analytics, error) {
	client, err := analytics.NewWithConfig(writeKey, analytics.Config{})
	if err != nil {
		return nil, err
	}

	return &Analytics{client: client}, nil
}

// NewAnalyticsWithClient wraps a pre-built analytics.Client, primarily
// so tests can inject a fake without a real write key or network call.
func NewAnalyticsWithClient(client analytics.Client) (*Analytics, error) {
	return &Analytics{client: client}, nil
}

// Client exposes the underlying Segment client so callers can Close it
// during shutdown.
func (a *Analytics) Client() analytics.Client { return a.client }

func (a *Analytics) Handle(event sandbox.Event) error {
	switch event.Kind {
	case sandbox.EventCommandExecuted:
		data, ok := event.Data.(sandbox.CommandExecutedData)
		if !ok {
			return nil
		}

		return a.client.Enqueue(analytics.Track{
			UserId: event.SandboxID,
			Event:  "command_executed",
			Properties: analytics.NewProperties().
				Set("command_name", data.CommandName).
				Set("exit_code", data.ExitCode).
				Set("duration_ms", data.Duration.Milliseconds()).
				Set("working_directory", data.WorkingDirectory),
			Timestamp: event.Timestamp,
		})

	case sandbox.EventLifecycle:
		data, ok := event.Data.(sandbox.LifecycleData)
		if !ok {
			return nil
		}

		return a.client.Enqueue(analytics.Track{
			UserId:     event.SandboxID,
			Event:      "sandbox_lifecycle",
			Properties: analytics.NewProperties().Set("phase", data.Phase),
			Timestamp:  event.Timestamp,
		})
	}

	return nil
}
