package restapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/asbx/agent-sandbox/sandbox"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wireEvent is the JSON shape of a sandbox.Event sent over the
// websocket stream.
type wireEvent struct {
	Kind      string    `json:"kind"`
	SandboxID string    `json:"sandboxId"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// streamEvents upgrades GET /{id}/events to a websocket and forwards
// every subsequent sandbox.Event as JSON, until the client disconnects
// or the sandbox is disposed. This is SPEC_FULL.md's REST expansion, not
// part of the enumerated spec.md §6 surface.
func (s *Server) streamEvents(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	events := make(chan sandbox.Event, 64)

	sub := sb.Subscribe(sandbox.ObserverFunc(func(event sandbox.Event) error {
		select {
		case events <- event:
		default:
			// Slow consumer: drop the event rather than block command
			// execution on a full channel.
		}

		return nil
	}))
	defer sub.Dispose()

	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-events:
			payload := wireEvent{
				Kind:      string(event.Kind),
				SandboxID: event.SandboxID,
				Timestamp: event.Timestamp,
				Data:      event.Data,
			}

			if err := ws.WriteJSON(payload); err != nil {
				return nil
			}

			if data, ok := event.Data.(sandbox.LifecycleData); ok && data.Phase == "disposed" {
				return nil
			}
		case <-done:
			return nil
		}
	}
}
