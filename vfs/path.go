// Package vfs implements an in-memory, thread-safe, snapshotable
// POSIX-like virtual file system over a pluggable key-value [Storage]
// backend.
package vfs

import "strings"

// Normalize converts p into an absolute, slash-separated path with no
// "." or ".." segments and no trailing slash (except for the root "/").
//
// An empty input normalizes to "/". Backslashes are
// treated as path separators so that callers on any platform can pass
// either style through unchanged.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")

	segments := strings.Split(p, "/")
	stack := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}

	if len(stack) == 0 {
		return "/"
	}

	return "/" + strings.Join(stack, "/")
}

// Parent returns the normalized parent directory of p. The parent of the
// root is the root itself.
func Parent(p string) string {
	p = Normalize(p)
	if p == "/" {
		return "/"
	}

	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}

	return p[:idx]
}

// Name returns the leaf name of p (the final path segment). The name of
// the root is "/".
func Name(p string) string {
	p = Normalize(p)
	if p == "/" {
		return "/"
	}

	idx := strings.LastIndex(p, "/")

	return p[idx+1:]
}

// Extension returns the portion of [Name] from the last "." onward,
// inclusive. It is empty if the leaf name has no dot.
func Extension(p string) string {
	n := Name(p)

	idx := strings.LastIndex(n, ".")
	if idx < 0 {
		return ""
	}

	return n[idx:]
}

// Combine joins one or more path segments with "/" and normalizes the
// result. A segment that itself starts with "/" or "\" resets the
// accumulator, mirroring how a fresh absolute path overrides whatever
// came before it (unlike filepath.Join, which would simply append it).
func Combine(segments ...string) string {
	var acc strings.Builder

	for _, seg := range segments {
		if strings.HasPrefix(seg, "/") || strings.HasPrefix(seg, `\`) {
			acc.Reset()
			acc.WriteString(seg)

			continue
		}

		if acc.Len() > 0 {
			acc.WriteString("/")
		}

		acc.WriteString(seg)
	}

	return Normalize(acc.String())
}

// IsChildOf reports whether child is a direct or indirect descendant of
// parent. Both paths are normalized before comparison.
func IsChildOf(child, parent string) bool {
	child = Normalize(child)
	parent = Normalize(parent)

	if parent == "/" {
		return child != "/"
	}

	return strings.HasPrefix(child, parent+"/")
}
