package vfs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Options configures a VFS at construction time.
type Options struct {
	// Backend is the storage implementation to use. If nil, a fresh
	// [Memory] backend is constructed.
	Backend Storage
	// Debugf, if set, receives low-volume diagnostic lines. It is never
	// called on a hot path; nil disables it entirely.
	Debugf func(format string, args ...any)
}

// VFS is an in-memory, thread-safe, snapshotable tree layered over a
// pluggable [Storage] backend. It normalizes every path it is given and
// enforces the directory-tree invariants from the specification: the
// root always exists, every non-root entry has an existing directory
// parent, and directory entries carry no content.
//
// VFS itself does not enforce quotas; that is a caller (typically
// sandbox.Sandbox) responsibility layered on top via the quota-aware
// write entry point, so that snapshot restore and other internal
// operations are never blocked by limits meant for user-facing writes.
type VFS struct {
	mu      sync.Mutex
	backend Storage
	debugf  func(format string, args ...any)
}

// New constructs a VFS, creating the root directory in the backend if it
// is not already present.
func New(opts Options) *VFS {
	backend := opts.Backend
	if backend == nil {
		backend = NewMemory()
	}

	v := &VFS{backend: backend, debugf: opts.Debugf}

	if !backend.Exists("/") {
		backend.Set("/", newDirEntry("/", time.Now()))
	}

	return v
}

func (v *VFS) logf(format string, args ...any) {
	if v.debugf != nil {
		v.debugf(format, args...)
	}
}

// Exists reports whether p is present, as either a file or a directory.
func (v *VFS) Exists(p string) bool {
	return v.backend.Exists(Normalize(p))
}

// IsFile reports whether p exists and is a file.
func (v *VFS) IsFile(p string) bool {
	e, ok := v.backend.Get(Normalize(p))

	return ok && !e.IsDir
}

// IsDirectory reports whether p exists and is a directory.
func (v *VFS) IsDirectory(p string) bool {
	e, ok := v.backend.Get(Normalize(p))

	return ok && e.IsDir
}

// GetEntry returns the entry at p, if any.
func (v *VFS) GetEntry(p string) (FileEntry, bool) {
	return v.backend.Get(Normalize(p))
}

// CreateDirectory ensures p and all of its ancestors exist as
// directories. It is a no-op if p is the root or already a directory,
// and fails if p exists as a file.
func (v *VFS) CreateDirectory(p string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.createDirectoryLocked(Normalize(p))
}

func (v *VFS) createDirectoryLocked(p string) error {
	if p == "/" {
		return nil
	}

	if e, ok := v.backend.Get(p); ok {
		if !e.IsDir {
			return fmt.Errorf("vfs: create directory %q: %w", p, ErrNotADirectory)
		}

		return nil
	}

	if err := v.createDirectoryLocked(Parent(p)); err != nil {
		return err
	}

	v.backend.Set(p, newDirEntry(p, time.Now()))

	return nil
}

// ListDirectory returns the child names of p in ascending lexicographic
// order. p must exist and be a directory.
func (v *VFS) ListDirectory(p string) ([]string, error) {
	p = Normalize(p)

	e, ok := v.backend.Get(p)
	if !ok {
		return nil, fmt.Errorf("vfs: list directory %q: %w", p, ErrNotFound)
	}

	if !e.IsDir {
		return nil, fmt.Errorf("vfs: list directory %q: %w", p, ErrNotADirectory)
	}

	names := v.backend.Children(p)
	sort.Strings(names)

	return names, nil
}

// ReadFile returns the raw bytes of the file at p. p must exist and be a
// file.
func (v *VFS) ReadFile(p string) ([]byte, error) {
	p = Normalize(p)

	e, ok := v.backend.Get(p)
	if !ok {
		return nil, fmt.Errorf("vfs: read file %q: %w", p, ErrNotFound)
	}

	if e.IsDir {
		return nil, fmt.Errorf("vfs: read file %q: %w", p, ErrIsADirectory)
	}

	return e.Content, nil
}

// ReadFileString returns the file at p decoded as UTF-8 text.
func (v *VFS) ReadFileString(p string) (string, error) {
	b, err := v.ReadFile(p)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// ReadLines returns the file at p split on "\n".
func (v *VFS) ReadLines(p string) ([]string, error) {
	s, err := v.ReadFileString(p)
	if err != nil {
		return nil, err
	}

	return strings.Split(s, "\n"), nil
}

// WriteFile replaces (or creates) the file at p with content. Parent
// directories are created as needed. It fails if p exists as a
// directory.
func (v *VFS) WriteFile(p string, content []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.writeFileLocked(Normalize(p), content)
}

func (v *VFS) writeFileLocked(p string, content []byte) error {
	if existing, ok := v.backend.Get(p); ok {
		if existing.IsDir {
			return fmt.Errorf("vfs: write file %q: %w", p, ErrIsADirectory)
		}

		existing.Content = content
		existing.Size = len(content)
		existing.ModifiedAt = time.Now()
		v.backend.Set(p, existing)

		return nil
	}

	if err := v.createDirectoryLocked(Parent(p)); err != nil {
		return err
	}

	v.backend.Set(p, newFileEntry(p, content, time.Now()))

	return nil
}

// Touch creates an empty file at p if it does not exist, or bumps the
// ModifiedAt timestamp of an existing file. It fails if p is a
// directory.
func (v *VFS) Touch(p string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	p = Normalize(p)

	existing, ok := v.backend.Get(p)
	if !ok {
		return v.writeFileLocked(p, nil)
	}

	if existing.IsDir {
		return fmt.Errorf("vfs: touch %q: %w", p, ErrIsADirectory)
	}

	existing.ModifiedAt = time.Now()
	v.backend.Set(p, existing)

	return nil
}

// AppendToFile concatenates content onto the existing file at p, or
// creates it (as if by WriteFile) if it does not exist. It fails if p is
// a directory.
func (v *VFS) AppendToFile(p string, content []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	p = Normalize(p)

	existing, ok := v.backend.Get(p)
	if !ok {
		return v.writeFileLocked(p, content)
	}

	if existing.IsDir {
		return fmt.Errorf("vfs: append to file %q: %w", p, ErrIsADirectory)
	}

	merged := make([]byte, 0, len(existing.Content)+len(content))
	merged = append(merged, existing.Content...)
	merged = append(merged, content...)

	existing.Content = merged
	existing.Size = len(merged)
	existing.ModifiedAt = time.Now()
	v.backend.Set(p, existing)

	return nil
}

// DeleteFile removes the file at p. p must exist and be a file.
func (v *VFS) DeleteFile(p string) error {
	p = Normalize(p)

	e, ok := v.backend.Get(p)
	if !ok {
		return fmt.Errorf("vfs: delete file %q: %w", p, ErrNotFound)
	}

	if e.IsDir {
		return fmt.Errorf("vfs: delete file %q: %w", p, ErrIsADirectory)
	}

	v.backend.Delete(p)

	return nil
}

// DeleteDirectory removes the directory at p. p must exist and be a
// directory, and may not be the root. If recursive is false, the
// directory must be empty.
func (v *VFS) DeleteDirectory(p string, recursive bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	p = Normalize(p)

	if p == "/" {
		return fmt.Errorf("vfs: delete directory %q: %w", p, ErrRootUndeletable)
	}

	e, ok := v.backend.Get(p)
	if !ok {
		return fmt.Errorf("vfs: delete directory %q: %w", p, ErrNotFound)
	}

	if !e.IsDir {
		return fmt.Errorf("vfs: delete directory %q: %w", p, ErrNotADirectory)
	}

	descendants := v.backend.PathsByPrefix(childPrefix(p))

	if !recursive && len(descendants) > 0 {
		return fmt.Errorf("vfs: delete directory %q: %w", p, ErrDirectoryNotEmpty)
	}

	for _, d := range descendants {
		v.backend.Delete(d)
	}

	v.backend.Delete(p)

	return nil
}

// Delete dispatches to DeleteFile or DeleteDirectory depending on the
// type of the entry at p.
func (v *VFS) Delete(p string, recursive bool) error {
	p = Normalize(p)

	e, ok := v.backend.Get(p)
	if !ok {
		return fmt.Errorf("vfs: delete %q: %w", p, ErrNotFound)
	}

	if e.IsDir {
		return v.DeleteDirectory(p, recursive)
	}

	return v.DeleteFile(p)
}

// Copy duplicates src to dst. Files are duplicated byte-for-byte;
// directories are copied recursively, creating dst first. It fails if
// src is missing, or if dst exists and overwrite is false.
func (v *VFS) Copy(src, dst string, overwrite bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.copyLocked(Normalize(src), Normalize(dst), overwrite)
}

func (v *VFS) copyLocked(src, dst string, overwrite bool) error {
	e, ok := v.backend.Get(src)
	if !ok {
		return fmt.Errorf("vfs: copy %q: %w", src, ErrNotFound)
	}

	if v.backend.Exists(dst) && !overwrite {
		return fmt.Errorf("vfs: copy to %q: %w", dst, ErrAlreadyExists)
	}

	if !e.IsDir {
		content := make([]byte, len(e.Content))
		copy(content, e.Content)

		return v.writeFileLocked(dst, content)
	}

	if err := v.createDirectoryLocked(dst); err != nil {
		return err
	}

	for _, name := range v.backend.Children(src) {
		childSrc := Combine(src, name)
		childDst := Combine(dst, name)

		if err := v.copyLocked(childSrc, childDst, overwrite); err != nil {
			return err
		}
	}

	return nil
}

// Move copies src to dst and then recursively removes src. Both steps
// run under the same lock, so other mutex-guarded VFS operations never
// observe the move half-done; single-key reads such as Exists and
// GetEntry do not take the lock and may see the intermediate state.
func (v *VFS) Move(src, dst string, overwrite bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	src = Normalize(src)
	dst = Normalize(dst)

	if err := v.copyLocked(src, dst, overwrite); err != nil {
		return err
	}

	e, _ := v.backend.Get(src)
	if e.IsDir {
		descendants := v.backend.PathsByPrefix(childPrefix(src))
		for _, d := range descendants {
			v.backend.Delete(d)
		}
	}

	v.backend.Delete(src)

	return nil
}

// CreateSnapshot serializes the entire backend into an opaque, versioned
// byte blob (see [VFS.RestoreSnapshot]).
func (v *VFS) CreateSnapshot() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return serialize(v.backend)
}

// RestoreSnapshot clears the backend and reloads it from a blob produced
// by [VFS.CreateSnapshot]. It does not re-apply quota checks: the
// snapshot is assumed to have been valid when taken, and restore is the
// mechanism for returning to a known-good state even if the sandbox's
// quotas were later tightened.
func (v *VFS) RestoreSnapshot(blob []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := restore(v.backend, blob); err != nil {
		return err
	}

	if !v.backend.Exists("/") {
		v.backend.Set("/", newDirEntry("/", time.Now()))
	}

	return nil
}

// TotalSize returns the sum of file content lengths across the whole
// tree.
func (v *VFS) TotalSize() int {
	total := 0

	for _, e := range v.backend.AllPairs() {
		if !e.IsDir {
			total += len(e.Content)
		}
	}

	return total
}

// FileCount returns the number of file (non-directory) entries.
func (v *VFS) FileCount() int {
	count := 0

	for _, e := range v.backend.AllPairs() {
		if !e.IsDir {
			count++
		}
	}

	return count
}

// DirectoryCount returns the number of directory entries, including the
// root.
func (v *VFS) DirectoryCount() int {
	count := 0

	for _, e := range v.backend.AllPairs() {
		if e.IsDir {
			count++
		}
	}

	return count
}

// NodeCount returns the total number of entries (files and directories).
func (v *VFS) NodeCount() int {
	return v.backend.Count()
}

// Backend exposes the underlying storage, so a caller can inspect the raw
// keyspace (e.g. AllPairs or Count) directly.
func (v *VFS) Backend() Storage {
	return v.backend
}
