package restapi

import (
	"sync"

	"github.com/google/uuid"

	"github.com/asbx/agent-sandbox/sandbox"
)

// snapshotStore holds snapshots server-side so the REST surface's
// restore endpoint can reference one by a short id in a query
// parameter, per spec.md §6 (`POST /{id}/restore?snapshotId=`), instead
// of round-tripping the full opaque blob through the client.
type snapshotStore struct {
	mu   sync.Mutex
	byID map[string]sandbox.Snapshot
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{byID: make(map[string]sandbox.Snapshot)}
}

func (s *snapshotStore) put(snap sandbox.Snapshot) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.byID[id] = snap
	s.mu.Unlock()

	return id
}

func (s *snapshotStore) get(id string) (sandbox.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.byID[id]

	return snap, ok
}
