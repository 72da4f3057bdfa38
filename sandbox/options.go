package sandbox

import (
	"time"

	"github.com/asbx/agent-sandbox/shell"
	"github.com/asbx/agent-sandbox/vfs"
)

const (
	// DefaultMaxTotalSize bounds the sum of all file content bytes across
	// the whole VFS.
	DefaultMaxTotalSize = 100 * 1024 * 1024
	// DefaultMaxFileSize bounds any single file's content.
	DefaultMaxFileSize = 10 * 1024 * 1024
	// DefaultMaxNodeCount bounds the total number of files and
	// directories (root included).
	DefaultMaxNodeCount = 10_000
	// DefaultCommandTimeout is the deadline extensions should derive their
	// own timeouts from; the core's built-ins are not cancelled.
	DefaultCommandTimeout = 30 * time.Second
)

// Options configures a Sandbox at construction time. A zero-valued
// Options is not usable directly; call DefaultOptions and override
// fields instead, so new fields default sanely as this type grows.
type Options struct {
	// MaxTotalSize is the quota on the sum of all file content bytes.
	MaxTotalSize int
	// MaxFileSize is the quota on any single file's content.
	MaxFileSize int
	// MaxNodeCount is the quota on the total number of files and
	// directories.
	MaxNodeCount int
	// CommandTimeout is advisory: built-ins ignore it, extensions that do
	// external I/O should derive a deadline from it.
	CommandTimeout time.Duration
	// Environment seeds the shell's environment via `export` at
	// construction time, in map iteration order.
	Environment map[string]string
	// WorkingDirectory is created (if absent) and `cd`'d into at
	// construction, after Environment is applied.
	WorkingDirectory string
	// ShellExtensions are registered against the sandbox's shell at
	// construction time, after WorkingDirectory.
	ShellExtensions []shell.Extension
	// Backend overrides the VFS storage backend. Defaults to an
	// in-memory backend (vfs.NewMemory) when nil.
	Backend vfs.Storage
	// Debugf, if set, receives low-level VFS diagnostics. Defaults to a
	// no-op.
	Debugf func(format string, args ...any)
}

// DefaultOptions returns an Options populated with every documented
// default: 100 MiB total, 10 MiB per file, 10,000 nodes, a 30s command
// timeout, root working directory, empty environment and extensions.
func DefaultOptions() Options {
	return Options{
		MaxTotalSize:     DefaultMaxTotalSize,
		MaxFileSize:      DefaultMaxFileSize,
		MaxNodeCount:     DefaultMaxNodeCount,
		CommandTimeout:   DefaultCommandTimeout,
		Environment:      map[string]string{},
		WorkingDirectory: "/",
	}
}
