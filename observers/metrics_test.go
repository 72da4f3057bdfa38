package observers_test

import (
	"testing"

	"github.com/asbx/agent-sandbox/observers"
	"github.com/asbx/agent-sandbox/sandbox"
)

func Test_Metrics_Handle_Accepts_Command_And_File_Events_Without_Error(t *testing.T) {
	t.Parallel()

	m := observers.NewMetrics()

	sb := sandbox.New("metrics-test", sandbox.DefaultOptions(), nil)
	t.Cleanup(sb.Dispose)

	var lastErr error

	sb.Subscribe(sandbox.ObserverFunc(func(event sandbox.Event) error {
		lastErr = m.Handle(event)

		return nil
	}))

	sb.Execute("pwd")
	sb.Execute("touch /f.txt")
	sb.Execute("cd /nope")

	if lastErr != nil {
		t.Fatalf("Handle returned an error: %v", lastErr)
	}
}

func Test_Metrics_Handle_Ignores_Unknown_Payload_Shape(t *testing.T) {
	t.Parallel()

	m := observers.NewMetrics()

	err := m.Handle(sandbox.Event{Kind: sandbox.EventCommandExecuted, Data: "not the expected struct"})
	if err != nil {
		t.Fatalf("expected Handle to tolerate a mismatched payload, got %v", err)
	}
}
