package vfs

import "errors"

// Sentinel errors identifying the VFS error taxonomy from the
// specification. Callers should use errors.Is against these, since
// returned errors are wrapped with path-specific context.
var (
	// ErrNotFound is returned when a path does not exist.
	ErrNotFound = errors.New("no such file or directory")
	// ErrNotADirectory is returned when a directory was expected.
	ErrNotADirectory = errors.New("not a directory")
	// ErrIsADirectory is returned when a file was expected.
	ErrIsADirectory = errors.New("is a directory")
	// ErrAlreadyExists is returned when a create target exists without overwrite.
	ErrAlreadyExists = errors.New("already exists")
	// ErrDirectoryNotEmpty is returned by a non-recursive delete of a non-empty directory.
	ErrDirectoryNotEmpty = errors.New("directory not empty")
	// ErrRootUndeletable is returned when an operation attempts to delete "/".
	ErrRootUndeletable = errors.New("root directory cannot be deleted")
)
