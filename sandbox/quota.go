package sandbox

import (
	"fmt"

	"github.com/asbx/agent-sandbox/vfs"
)

// quotaWriter is the only path by which shell built-ins and extensions
// mutate the VFS. It enforces MaxFileSize/MaxTotalSize/MaxNodeCount
// before delegating to the VFS, and emits FileChanged events on every
// successful mutation. The bare VFS itself never checks quotas (so
// RestoreSnapshot is never blocked by them — see spec §9).
type quotaWriter struct {
	fs      *vfs.VFS
	opts    Options
	sandbox *Sandbox
}

func (w *quotaWriter) checkFileSize(size int) error {
	if w.opts.MaxFileSize > 0 && size > w.opts.MaxFileSize {
		return fmt.Errorf("%w: file size %d exceeds limit %d", ErrQuotaExceeded, size, w.opts.MaxFileSize)
	}

	return nil
}

// checkAggregate re-derives total size and node count as if delta bytes
// and delta nodes were added, failing before any VFS mutation happens.
func (w *quotaWriter) checkAggregate(deltaBytes, deltaNodes int) error {
	if w.opts.MaxTotalSize > 0 && w.fs.TotalSize()+deltaBytes > w.opts.MaxTotalSize {
		return fmt.Errorf("%w: total size would exceed limit %d", ErrQuotaExceeded, w.opts.MaxTotalSize)
	}

	if w.opts.MaxNodeCount > 0 && w.fs.NodeCount()+deltaNodes > w.opts.MaxNodeCount {
		return fmt.Errorf("%w: node count would exceed limit %d", ErrQuotaExceeded, w.opts.MaxNodeCount)
	}

	return nil
}

func (w *quotaWriter) WriteFile(path string, content []byte) error {
	if err := w.checkFileSize(len(content)); err != nil {
		return err
	}

	existing := 0
	newNode := 1

	if entry, ok := w.fs.GetEntry(path); ok {
		existing = entry.Size
		newNode = 0
	}

	if err := w.checkAggregate(len(content)-existing, newNode); err != nil {
		return err
	}

	if err := w.fs.WriteFile(path, content); err != nil {
		return err
	}

	w.sandbox.emitFileChanged(path, "write")

	return nil
}

func (w *quotaWriter) AppendToFile(path string, content []byte) error {
	existing := 0
	if entry, ok := w.fs.GetEntry(path); ok {
		existing = entry.Size
	}

	if err := w.checkFileSize(existing + len(content)); err != nil {
		return err
	}

	newNode := 0
	if !w.fs.Exists(path) {
		newNode = 1
	}

	if err := w.checkAggregate(len(content), newNode); err != nil {
		return err
	}

	if err := w.fs.AppendToFile(path, content); err != nil {
		return err
	}

	w.sandbox.emitFileChanged(path, "write")

	return nil
}

func (w *quotaWriter) CreateDirectory(path string) error {
	if err := w.checkAggregate(0, 1); err != nil {
		return err
	}

	if err := w.fs.CreateDirectory(path); err != nil {
		return err
	}

	w.sandbox.emitFileChanged(path, "create")

	return nil
}

func (w *quotaWriter) Copy(src, dst string, overwrite bool) error {
	entry, ok := w.fs.GetEntry(src)
	if ok && !entry.IsDir {
		if err := w.checkAggregate(entry.Size, 1); err != nil {
			return err
		}
	}

	if err := w.fs.Copy(src, dst, overwrite); err != nil {
		return err
	}

	w.sandbox.emitFileChanged(dst, "copy")

	return nil
}

func (w *quotaWriter) Move(src, dst string, overwrite bool) error {
	if err := w.fs.Move(src, dst, overwrite); err != nil {
		return err
	}

	w.sandbox.emitFileChanged(dst, "move")

	return nil
}

func (w *quotaWriter) Delete(path string, recursive bool) error {
	if err := w.fs.Delete(path, recursive); err != nil {
		return err
	}

	w.sandbox.emitFileChanged(path, "delete")

	return nil
}

func (w *quotaWriter) Touch(path string) error {
	if !w.fs.Exists(path) {
		if err := w.checkAggregate(0, 1); err != nil {
			return err
		}
	}

	if err := w.fs.Touch(path); err != nil {
		return err
	}

	w.sandbox.emitFileChanged(path, "touch")

	return nil
}
