package shell

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/asbx/agent-sandbox/vfs"
)

func builtinPwd(argv []string, ctx Context) Result {
	return ok(ctx.CurrentDirectory())
}

func builtinCd(argv []string, ctx Context) Result {
	target := "/"
	if len(argv) > 0 {
		target = argv[0]
	}

	resolved := ctx.ResolvePath(target)

	if !ctx.FileSystem().IsDirectory(resolved) {
		return fail("cd: " + target + ": No such file or directory")
	}

	ctx.SetCurrentDirectory(resolved)
	ctx.Environment()["PWD"] = resolved

	return Result{}
}

func builtinLs(argv []string, ctx Context) Result {
	long := false

	var target string

	for _, a := range argv {
		if a == "-l" {
			long = true
			continue
		}

		target = a
	}

	if target == "" {
		target = ctx.CurrentDirectory()
	}

	resolved := ctx.ResolvePath(target)

	names, err := ctx.FileSystem().ListDirectory(resolved)
	if err != nil {
		return fail("ls: " + target + ": " + err.Error())
	}

	if !long {
		return ok(strings.Join(names, "\n"))
	}

	var lines []string

	for _, name := range names {
		childPath := vfs.Combine(resolved, name)

		entry, _ := ctx.FileSystem().GetEntry(childPath)

		kind := "f"
		if entry.IsDir {
			kind = "d"
		}

		lines = append(lines, fmt.Sprintf("%s %6d %s %s", kind, entry.Size, entry.ModifiedAt.UTC().Format("2006-01-02T15:04:05Z"), name))
	}

	return ok(strings.Join(lines, "\n"))
}

func builtinCat(argv []string, ctx Context) Result {
	if len(argv) == 0 {
		return fail("cat: missing operand")
	}

	var b strings.Builder

	for _, a := range argv {
		resolved := ctx.ResolvePath(a)

		content, err := ctx.FileSystem().ReadFileString(resolved)
		if err != nil {
			return fail("cat: " + a + ": " + err.Error())
		}

		b.WriteString(content)
	}

	return ok(b.String())
}

// builtinEcho joins its arguments with single spaces and never appends a
// trailing newline; expansion already happened at tokenize time.
func builtinEcho(argv []string, ctx Context) Result {
	return ok(strings.Join(argv, " "))
}

func builtinHead(argv []string, ctx Context) Result {
	return headOrTail(argv, ctx, true)
}

func builtinTail(argv []string, ctx Context) Result {
	return headOrTail(argv, ctx, false)
}

func headOrTail(argv []string, ctx Context, fromStart bool) Result {
	n := 10

	var target string

	for i := 0; i < len(argv); i++ {
		if argv[i] == "-n" && i+1 < len(argv) {
			parsed, err := strconv.Atoi(argv[i+1])
			if err != nil {
				return fail("invalid count: " + argv[i+1])
			}

			n = parsed
			i++

			continue
		}

		target = argv[i]
	}

	if target == "" {
		return fail("missing operand")
	}

	lines, err := ctx.FileSystem().ReadLines(ctx.ResolvePath(target))
	if err != nil {
		return fail(target + ": " + err.Error())
	}

	if n > len(lines) {
		n = len(lines)
	}

	var selected []string
	if fromStart {
		selected = lines[:n]
	} else {
		selected = lines[len(lines)-n:]
	}

	return ok(strings.Join(selected, "\n"))
}

func builtinWc(argv []string, ctx Context) Result {
	mode := ""

	var target string

	for _, a := range argv {
		switch a {
		case "-l", "-w", "-c":
			mode = a
		default:
			target = a
		}
	}

	if target == "" {
		return fail("wc: missing operand")
	}

	content, err := ctx.FileSystem().ReadFileString(ctx.ResolvePath(target))
	if err != nil {
		return fail("wc: " + target + ": " + err.Error())
	}

	lineCount := strings.Count(content, "\n")
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		lineCount++
	}

	wordCount := len(strings.Fields(content))
	byteCount := len(content)

	switch mode {
	case "-l":
		return ok(strconv.Itoa(lineCount))
	case "-w":
		return ok(strconv.Itoa(wordCount))
	case "-c":
		return ok(strconv.Itoa(byteCount))
	default:
		return ok(fmt.Sprintf("%d %d %d", lineCount, wordCount, byteCount))
	}
}

func builtinGrep(argv []string, ctx Context) Result {
	insensitive := false

	var rest []string

	for _, a := range argv {
		if a == "-i" {
			insensitive = true
			continue
		}

		rest = append(rest, a)
	}

	if len(rest) < 2 {
		return fail("grep: usage: grep [-i] pattern file...")
	}

	pattern := rest[0]
	files := rest[1:]

	needle := pattern
	if insensitive {
		needle = strings.ToLower(needle)
	}

	var matches []string

	for _, f := range files {
		content, err := ctx.FileSystem().ReadFileString(ctx.ResolvePath(f))
		if err != nil {
			return fail("grep: " + f + ": " + err.Error())
		}

		for _, line := range strings.Split(content, "\n") {
			haystack := line
			if insensitive {
				haystack = strings.ToLower(haystack)
			}

			if strings.Contains(haystack, needle) {
				matches = append(matches, line)
			}
		}
	}

	if len(matches) == 0 {
		return Result{ExitCode: 1}
	}

	return ok(strings.Join(matches, "\n"))
}

func builtinFind(argv []string, ctx Context) Result {
	if len(argv) == 0 {
		return fail("find: missing root")
	}

	root := ctx.ResolvePath(argv[0])

	pattern := ""

	for i := 1; i < len(argv); i++ {
		if argv[i] == "-name" && i+1 < len(argv) {
			pattern = argv[i+1]
			i++
		}
	}

	if !ctx.FileSystem().Exists(root) {
		return fail("find: " + argv[0] + ": No such file or directory")
	}

	var results []string

	var walk func(p string)

	walk = func(p string) {
		if pattern == "" || matchGlob(pattern, vfs.Name(p)) {
			results = append(results, p)
		}

		if !ctx.FileSystem().IsDirectory(p) {
			return
		}

		names, err := ctx.FileSystem().ListDirectory(p)
		if err != nil {
			return
		}

		for _, name := range names {
			walk(vfs.Combine(p, name))
		}
	}

	walk(root)

	return ok(strings.Join(results, "\n"))
}

// matchGlob matches name against a pattern containing "*" and "?"
// wildcards using path.Match semantics.
func matchGlob(pattern, name string) bool {
	matched, err := path.Match(pattern, name)
	if err != nil {
		return false
	}

	return matched
}
