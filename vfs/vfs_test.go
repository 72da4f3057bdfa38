package vfs_test

import (
	"errors"
	"testing"

	"github.com/asbx/agent-sandbox/vfs"
)

func newVFS() *vfs.VFS {
	return vfs.New(vfs.Options{})
}

func Test_VFS_Root_Exists_After_Construction(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if !v.IsDirectory("/") {
		t.Fatal("expected root to exist as a directory")
	}
}

func Test_VFS_CreateDirectory_Is_Recursive_And_Idempotent(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.CreateDirectory("/a/b/c"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		if !v.IsDirectory(p) {
			t.Fatalf("expected %q to be a directory", p)
		}
	}

	if err := v.CreateDirectory("/a/b/c"); err != nil {
		t.Fatalf("CreateDirectory should be idempotent, got: %v", err)
	}
}

func Test_VFS_CreateDirectory_Fails_On_File_Collision(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/f", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := v.CreateDirectory("/f")
	if !errors.Is(err, vfs.ErrNotADirectory) {
		t.Fatalf("expected ErrNotADirectory, got %v", err)
	}
}

func Test_VFS_WriteFile_Then_ReadFile_Round_Trips(t *testing.T) {
	t.Parallel()

	v := newVFS()

	want := []byte("hello world")
	if err := v.WriteFile("/greeting.txt", want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := v.ReadFile("/greeting.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != string(want) {
		t.Fatalf("ReadFile = %q, want %q", got, want)
	}
}

func Test_VFS_WriteFile_Creates_Missing_Parents(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/deep/nested/file.txt", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if !v.IsDirectory("/deep/nested") {
		t.Fatal("expected intermediate directories to be created")
	}
}

func Test_VFS_WriteFile_Fails_When_Target_Is_Directory(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.CreateDirectory("/dir"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	err := v.WriteFile("/dir", []byte("x"))
	if !errors.Is(err, vfs.ErrIsADirectory) {
		t.Fatalf("expected ErrIsADirectory, got %v", err)
	}
}

func Test_VFS_AppendToFile_Concatenates_Bytes(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/log", []byte("a")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.AppendToFile("/log", []byte("b")); err != nil {
		t.Fatalf("AppendToFile: %v", err)
	}

	got, err := v.ReadFileString("/log")
	if err != nil {
		t.Fatalf("ReadFileString: %v", err)
	}

	if got != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}

func Test_VFS_AppendToFile_Behaves_Like_Write_When_Missing(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.AppendToFile("/new", []byte("first")); err != nil {
		t.Fatalf("AppendToFile: %v", err)
	}

	got, err := v.ReadFileString("/new")
	if err != nil {
		t.Fatalf("ReadFileString: %v", err)
	}

	if got != "first" {
		t.Fatalf("got %q, want %q", got, "first")
	}
}

func Test_VFS_ListDirectory_Returns_Names_Sorted_Ascending(t *testing.T) {
	t.Parallel()

	v := newVFS()

	for _, name := range []string{"zeta", "alpha", "mu"} {
		if err := v.WriteFile("/"+name, nil); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	got, err := v.ListDirectory("/")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}

	want := []string{"alpha", "mu", "zeta"}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func Test_VFS_DeleteDirectory_NonRecursive_Fails_When_Not_Empty(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/d/f", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := v.DeleteDirectory("/d", false)
	if !errors.Is(err, vfs.ErrDirectoryNotEmpty) {
		t.Fatalf("expected ErrDirectoryNotEmpty, got %v", err)
	}
}

func Test_VFS_DeleteDirectory_Recursive_Removes_All_Descendants(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/d/a/b/f.txt", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.DeleteDirectory("/d", true); err != nil {
		t.Fatalf("DeleteDirectory: %v", err)
	}

	for _, p := range []string{"/d", "/d/a", "/d/a/b", "/d/a/b/f.txt"} {
		if v.Exists(p) {
			t.Fatalf("expected %q to be gone after recursive delete", p)
		}
	}
}

func Test_VFS_DeleteDirectory_Rejects_Root(t *testing.T) {
	t.Parallel()

	v := newVFS()

	err := v.DeleteDirectory("/", true)
	if !errors.Is(err, vfs.ErrRootUndeletable) {
		t.Fatalf("expected ErrRootUndeletable, got %v", err)
	}
}

func Test_VFS_Copy_File_Duplicates_Bytes(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/src.txt", []byte("payload")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.Copy("/src.txt", "/dst.txt", false); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	got, err := v.ReadFileString("/dst.txt")
	if err != nil {
		t.Fatalf("ReadFileString: %v", err)
	}

	if got != "payload" {
		t.Fatalf("got %q, want payload", got)
	}

	// Mutating the source afterward must not affect the copy.
	if err := v.WriteFile("/src.txt", []byte("mutated")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, _ = v.ReadFileString("/dst.txt")
	if got != "payload" {
		t.Fatalf("copy aliased source content: got %q", got)
	}
}

func Test_VFS_Copy_Without_Overwrite_Fails_On_Existing_Dst(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/a", []byte("1")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.WriteFile("/b", []byte("2")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := v.Copy("/a", "/b", false)
	if !errors.Is(err, vfs.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func Test_VFS_Copy_Directory_Recurses(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/src/a.txt", []byte("1")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.WriteFile("/src/sub/b.txt", []byte("2")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.Copy("/src", "/dst", false); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	for _, p := range []string{"/dst/a.txt", "/dst/sub/b.txt"} {
		if !v.IsFile(p) {
			t.Fatalf("expected %q to exist after directory copy", p)
		}
	}
}

func Test_VFS_Move_Is_Copy_Then_Delete(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/old.txt", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.Move("/old.txt", "/new.txt", false); err != nil {
		t.Fatalf("Move: %v", err)
	}

	if v.Exists("/old.txt") {
		t.Fatal("expected source to be removed after move")
	}

	if !v.IsFile("/new.txt") {
		t.Fatal("expected destination to exist after move")
	}
}

func Test_VFS_TotalSize_Reflects_File_Content_Only(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.CreateDirectory("/dir"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	if err := v.WriteFile("/dir/a", []byte("1234")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.WriteFile("/b", []byte("12")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if got := v.TotalSize(); got != 6 {
		t.Fatalf("TotalSize() = %d, want 6", got)
	}
}

func Test_VFS_Snapshot_Restore_Round_Trips(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/file.txt", []byte("original")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	snap, err := v.CreateSnapshot()
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	if err := v.WriteFile("/file.txt", []byte("modified")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, _ := v.ReadFileString("/file.txt")
	if got != "modified" {
		t.Fatalf("got %q, want modified", got)
	}

	if err := v.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	got, err = v.ReadFileString("/file.txt")
	if err != nil {
		t.Fatalf("ReadFileString: %v", err)
	}

	if got != "original" {
		t.Fatalf("got %q, want original", got)
	}
}

func Test_VFS_Snapshot_Preserves_Entire_Keyspace(t *testing.T) {
	t.Parallel()

	v := newVFS()

	if err := v.WriteFile("/a/b/c.txt", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := v.CreateDirectory("/empty/dir"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	before := v.Backend().AllPairs()

	snap, err := v.CreateSnapshot()
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	if err := v.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	after := v.Backend().AllPairs()

	if len(before) != len(after) {
		t.Fatalf("pair count changed: before=%d after=%d", len(before), len(after))
	}

	for p, e := range before {
		got, ok := after[p]
		if !ok {
			t.Fatalf("path %q missing after restore", p)
		}

		if got.IsDir != e.IsDir || string(got.Content) != string(e.Content) {
			t.Fatalf("entry %q mismatch after restore: got %+v, want %+v", p, got, e)
		}
	}
}
