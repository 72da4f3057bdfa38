// Package sandbox owns one isolated execution environment: a VFS, a
// Shell over it, quota enforcement on every mutating write, command
// history, and an observer fanout. A Sandbox is the unit the session
// manager tracks by id.
package sandbox

import (
	"fmt"
	"sync"
	"time"

	"github.com/asbx/agent-sandbox/shell"
	"github.com/asbx/agent-sandbox/vfs"
)

const truncatedOutputLimit = 4096

// Sandbox must not be copied after first use.
type Sandbox struct {
	id   string
	opts Options

	fs     *vfs.VFS
	shell  *shell.Shell
	writer *quotaWriter

	mu             sync.Mutex
	history        []shell.Result
	fanout         observerFanout
	disposed       bool
	createdAt      time.Time
	lastActivityAt time.Time

	onDispose func(id string)
}

// New constructs a Sandbox, running the construction pipeline in order:
// build the VFS over opts.Backend (defaulting to an in-memory backend),
// build a Shell over it wrapped in a quota-aware writer, export every
// entry of opts.Environment, create and cd into opts.WorkingDirectory if
// not "/", then register opts.ShellExtensions.
//
// onDispose, if non-nil, is invoked exactly once when the sandbox is
// disposed, so a SessionManager can remove it from its registry.
func New(id string, opts Options, onDispose func(id string)) *Sandbox {
	backend := opts.Backend
	if backend == nil {
		backend = vfs.NewMemory()
	}

	fs := vfs.New(vfs.Options{Backend: backend, Debugf: opts.Debugf})

	now := time.Now()

	s := &Sandbox{
		id:             id,
		opts:           opts,
		fs:             fs,
		createdAt:      now,
		lastActivityAt: now,
		onDispose:      onDispose,
	}
	s.fanout.mu = &s.mu

	writer := &quotaWriter{fs: fs, opts: opts, sandbox: s}
	s.writer = writer
	s.shell = shell.New(fs, writer)

	for key, value := range opts.Environment {
		s.shell.Execute(fmt.Sprintf("export %s=%s", key, value))
	}

	if opts.WorkingDirectory != "" && opts.WorkingDirectory != "/" {
		s.shell.Execute("mkdir -p " + opts.WorkingDirectory)
		s.shell.Execute("cd " + opts.WorkingDirectory)
	}

	for _, ext := range opts.ShellExtensions {
		s.shell.RegisterExtension(ext)
	}

	s.fanout.dispatch(Event{
		Kind:      EventLifecycle,
		SandboxID: id,
		Timestamp: now,
		Data:      LifecycleData{Phase: "created"},
	})

	return s
}

// ID returns the sandbox's identifier.
func (s *Sandbox) ID() string { return s.id }

// Subscribe appends an observer to the fanout and returns a handle whose
// Dispose removes it.
func (s *Sandbox) Subscribe(o Observer) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fanout.subscribe(o)
}

// Execute runs one command line through the sandbox's shell. It fails
// only with ErrDisposed; every other failure mode is observable as a
// non-zero shell.Result. The sandbox mutex is released before the shell
// touches the VFS, so VFS/storage I/O never happens while holding the
// sandbox lock (spec §5).
func (s *Sandbox) Execute(line string) (shell.Result, error) {
	s.mu.Lock()

	if s.disposed {
		s.mu.Unlock()

		return shell.Result{}, ErrDisposed
	}

	s.mu.Unlock()

	result := s.shell.Execute(line)

	s.mu.Lock()

	if s.disposed {
		s.mu.Unlock()

		return shell.Result{}, ErrDisposed
	}

	s.lastActivityAt = time.Now()
	s.history = append(s.history, result)

	s.fanout.dispatch(Event{
		Kind:      EventCommandExecuted,
		SandboxID: s.id,
		Timestamp: s.lastActivityAt,
		Data: CommandExecutedData{
			CommandName:      commandName(line),
			Command:          line,
			ExitCode:         result.ExitCode,
			Duration:         result.Duration,
			WorkingDirectory: s.shell.CurrentDirectory(),
			Stdout:           truncate(result.Stdout),
			Stderr:           truncate(result.Stderr),
		},
	})

	s.mu.Unlock()

	return result, nil
}

func commandName(line string) string {
	for i, c := range line {
		if c == ' ' || c == '\t' {
			return line[:i]
		}
	}

	return line
}

func truncate(s string) string {
	if len(s) <= truncatedOutputLimit {
		return s
	}

	return s[:truncatedOutputLimit]
}

// emitFileChanged is called by quotaWriter after every successful
// mutation.
func (s *Sandbox) emitFileChanged(path, op string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fanout.dispatch(Event{
		Kind:      EventFileChanged,
		SandboxID: s.id,
		Timestamp: time.Now(),
		Data:      FileChangedData{Path: path, Op: op},
	})
}

// History returns a copy of every result Execute has produced so far.
func (s *Sandbox) History() []shell.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]shell.Result, len(s.history))
	copy(out, s.history)

	return out
}

// Snapshot is the opaque, restorable state of a sandbox at a point in
// time.
type Snapshot struct {
	ID               string
	VFS              []byte
	CurrentDirectory string
	Environment      map[string]string
	CreatedAt        time.Time
}

// CreateSnapshot captures the VFS content, current directory, and
// environment.
func (s *Sandbox) CreateSnapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return Snapshot{}, ErrDisposed
	}

	blob, err := s.fs.CreateSnapshot()
	if err != nil {
		return Snapshot{}, fmt.Errorf("sandbox: creating snapshot: %w", err)
	}

	env := make(map[string]string, len(s.shell.Environment()))
	for k, v := range s.shell.Environment() {
		env[k] = v
	}

	snap := Snapshot{
		ID:               s.id,
		VFS:              blob,
		CurrentDirectory: s.shell.CurrentDirectory(),
		Environment:      env,
		CreatedAt:        time.Now(),
	}

	s.fanout.dispatch(Event{
		Kind:      EventLifecycle,
		SandboxID: s.id,
		Timestamp: snap.CreatedAt,
		Data:      LifecycleData{Phase: "snapshot-created"},
	})

	return snap, nil
}

// RestoreSnapshot replaces the VFS content, cds to the snapshot's
// current directory, and re-exports its environment. It does not
// re-check quotas (see spec §9): a snapshot taken under one quota
// configuration can always be restored, even against a sandbox with
// tighter limits.
func (s *Sandbox) RestoreSnapshot(snap Snapshot) error {
	s.mu.Lock()

	if s.disposed {
		s.mu.Unlock()

		return ErrDisposed
	}

	s.mu.Unlock()

	if err := s.fs.RestoreSnapshot(snap.VFS); err != nil {
		return fmt.Errorf("sandbox: restoring snapshot: %w", err)
	}

	s.shell.Execute("cd " + snap.CurrentDirectory)

	for key, value := range snap.Environment {
		s.shell.Execute(fmt.Sprintf("export %s=%s", key, value))
	}

	s.mu.Lock()
	s.fanout.dispatch(Event{
		Kind:      EventLifecycle,
		SandboxID: s.id,
		Timestamp: time.Now(),
		Data:      LifecycleData{Phase: "snapshot-restored"},
	})
	s.mu.Unlock()

	return nil
}

// Stats summarizes a sandbox's current state for the REST stats
// endpoint and for SessionManager.AllStats.
type Stats struct {
	ID               string
	FileCount        int
	TotalSize        int
	CommandCount     int
	CurrentDirectory string
	CreatedAt        time.Time
	LastActivityAt   time.Time
}

// Stats returns the sandbox's current statistics. FileCount is the VFS
// node count (files and directories, root included), matching spec §4.3.
func (s *Sandbox) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		ID:               s.id,
		FileCount:        s.fs.NodeCount(),
		TotalSize:        s.fs.TotalSize(),
		CommandCount:     len(s.history),
		CurrentDirectory: s.shell.CurrentDirectory(),
		CreatedAt:        s.createdAt,
		LastActivityAt:   s.lastActivityAt,
	}
}

// LastActivityAt reports when Execute was last called on a live sandbox
// (the creation time until then), whatever the command's exit code, for
// SessionManager's inactivity sweep.
func (s *Sandbox) LastActivityAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActivityAt
}

// FileSystem exposes the sandbox's VFS directly, for reads that don't
// need quota enforcement (the REST layer's GET /fs and GET /ls).
func (s *Sandbox) FileSystem() *vfs.VFS { return s.fs }

// WriteFile is the direct, non-shell write-file API: it goes through
// the same quota checks as a shell redirect, but without tokenizing a
// command line. Used by the REST layer's PUT /fs, where quota failures
// must propagate as a structured error (spec §7) rather than a shell
// exit code.
func (s *Sandbox) WriteFile(path string, content []byte) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()

		return ErrDisposed
	}
	s.mu.Unlock()

	return s.writer.WriteFile(path, content)
}

// Dispose is idempotent: it clears history, marks the sandbox disposed,
// emits a disposed lifecycle event, and invokes the manager's removal
// callback exactly once.
func (s *Sandbox) Dispose() {
	s.mu.Lock()

	if s.disposed {
		s.mu.Unlock()

		return
	}

	s.disposed = true
	s.history = nil

	s.fanout.dispatch(Event{
		Kind:      EventLifecycle,
		SandboxID: s.id,
		Timestamp: time.Now(),
		Data:      LifecycleData{Phase: "disposed"},
	})

	s.mu.Unlock()

	if s.onDispose != nil {
		s.onDispose(s.id)
	}
}
