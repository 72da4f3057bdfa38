package vfs

import "time"

// Default permission bits applied to newly created nodes.
const (
	DefaultFileMode = 0o644
	DefaultDirMode  = 0o755
)

// FileEntry is the single node type in the virtual file system. Its
// identity is its Path; there is no separate inode concept.
type FileEntry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsDir      bool      `json:"isDirectory"`
	Content    []byte    `json:"-"`
	Size       int       `json:"size"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Mode       uint16    `json:"mode"`
}

// newDirEntry builds a directory FileEntry rooted at path.
func newDirEntry(path string, now time.Time) FileEntry {
	return FileEntry{
		Name:       Name(path),
		Path:       path,
		IsDir:      true,
		CreatedAt:  now,
		ModifiedAt: now,
		Mode:       DefaultDirMode,
	}
}

// newFileEntry builds a file FileEntry with the given content.
func newFileEntry(path string, content []byte, now time.Time) FileEntry {
	return FileEntry{
		Name:       Name(path),
		Path:       path,
		IsDir:      false,
		Content:    content,
		Size:       len(content),
		CreatedAt:  now,
		ModifiedAt: now,
		Mode:       DefaultFileMode,
	}
}

// clone returns a deep copy of e so that callers can mutate the returned
// entry without aliasing storage-internal state.
func (e FileEntry) clone() FileEntry {
	if e.Content != nil {
		cp := make([]byte, len(e.Content))
		copy(cp, e.Content)
		e.Content = cp
	}

	return e
}
