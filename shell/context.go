// Package shell implements the Unix-style command interpreter each
// sandbox runs: a tokenizer, a dispatch pipeline for built-ins and
// registered extension commands, variable expansion, and I/O
// redirection, all operating exclusively through a [vfs.VFS].
package shell

import "github.com/asbx/agent-sandbox/vfs"

// Writer is the quota-aware entry point every mutating built-in and
// extension goes through, instead of calling the VFS directly. A bare
// Shell (see [New]) defaults to a pass-through writer with no limits; a
// sandbox supplies one that enforces its configured quotas (see
// sandbox.Sandbox).
type Writer interface {
	WriteFile(path string, content []byte) error
	AppendToFile(path string, content []byte) error
	CreateDirectory(path string) error
	Copy(src, dst string, overwrite bool) error
	Move(src, dst string, overwrite bool) error
	Delete(path string, recursive bool) error
	Touch(path string) error
}

// Context is the narrow interface given to every built-in and extension
// handler: read access to the file system, the session's mutable
// working directory and environment, path resolution, and the
// quota-aware write operations from [Writer].
//
// Extensions see exactly this surface, so they are confined to the VFS
// for all I/O — they have no reference to the Shell's internal dispatch
// table or to other extensions.
type Context interface {
	FileSystem() *vfs.VFS
	CurrentDirectory() string
	SetCurrentDirectory(dir string)
	Environment() map[string]string
	ResolvePath(path string) string

	Writer
}

// passThroughWriter wraps a *vfs.VFS directly, applying no quota checks.
// It backs a Shell constructed without an explicit Writer, useful for
// tests and for embedding the shell outside of a sandbox.
type passThroughWriter struct {
	fs *vfs.VFS
}

func (w passThroughWriter) WriteFile(path string, content []byte) error {
	return w.fs.WriteFile(path, content)
}

func (w passThroughWriter) AppendToFile(path string, content []byte) error {
	return w.fs.AppendToFile(path, content)
}

func (w passThroughWriter) CreateDirectory(path string) error {
	return w.fs.CreateDirectory(path)
}

func (w passThroughWriter) Copy(src, dst string, overwrite bool) error {
	return w.fs.Copy(src, dst, overwrite)
}

func (w passThroughWriter) Move(src, dst string, overwrite bool) error {
	return w.fs.Move(src, dst, overwrite)
}

func (w passThroughWriter) Delete(path string, recursive bool) error {
	return w.fs.Delete(path, recursive)
}

func (w passThroughWriter) Touch(path string) error {
	return w.fs.Touch(path)
}
