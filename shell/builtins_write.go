package shell

import "strings"

func builtinMkdir(argv []string, ctx Context) Result {
	parents := false

	var targets []string

	for _, a := range argv {
		if a == "-p" {
			parents = true
			continue
		}

		targets = append(targets, a)
	}

	if len(targets) == 0 {
		return fail("mkdir: missing operand")
	}

	for _, t := range targets {
		resolved := ctx.ResolvePath(t)

		if !parents {
			parent := ctx.FileSystem().Exists(parentOf(resolved))
			if !parent {
				return fail("mkdir: " + t + ": No such file or directory")
			}
		}

		if err := ctx.CreateDirectory(resolved); err != nil {
			return fail("mkdir: " + t + ": " + err.Error())
		}
	}

	return Result{}
}

func parentOf(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}

	return p[:idx]
}

func builtinRm(argv []string, ctx Context) Result {
	recursive := false
	force := false

	var targets []string

	for _, a := range argv {
		switch a {
		case "-r":
			recursive = true
		case "-f":
			force = true
		case "-rf", "-fr":
			recursive = true
			force = true
		default:
			targets = append(targets, a)
		}
	}

	if len(targets) == 0 {
		return fail("rm: missing operand")
	}

	for _, t := range targets {
		resolved := ctx.ResolvePath(t)

		if !ctx.FileSystem().Exists(resolved) {
			if force {
				continue
			}

			return fail("rm: " + t + ": No such file or directory")
		}

		if err := ctx.Delete(resolved, recursive); err != nil {
			if force {
				continue
			}

			return fail("rm: " + t + ": " + err.Error())
		}
	}

	return Result{}
}

func builtinCp(argv []string, ctx Context) Result {
	recursive := false

	var rest []string

	for _, a := range argv {
		if a == "-r" {
			recursive = true
			continue
		}

		rest = append(rest, a)
	}

	if len(rest) != 2 {
		return fail("cp: usage: cp [-r] src dst")
	}

	src := ctx.ResolvePath(rest[0])
	dst := ctx.ResolvePath(rest[1])

	if ctx.FileSystem().IsDirectory(src) && !recursive {
		return fail("cp: " + rest[0] + ": is a directory (use -r)")
	}

	if err := ctx.Copy(src, dst, true); err != nil {
		return fail("cp: " + err.Error())
	}

	return Result{}
}

func builtinMv(argv []string, ctx Context) Result {
	if len(argv) != 2 {
		return fail("mv: usage: mv src dst")
	}

	src := ctx.ResolvePath(argv[0])
	dst := ctx.ResolvePath(argv[1])

	if err := ctx.Move(src, dst, true); err != nil {
		return fail("mv: " + err.Error())
	}

	return Result{}
}

func builtinTouch(argv []string, ctx Context) Result {
	if len(argv) == 0 {
		return fail("touch: missing operand")
	}

	for _, t := range argv {
		if err := ctx.Touch(ctx.ResolvePath(t)); err != nil {
			return fail("touch: " + t + ": " + err.Error())
		}
	}

	return Result{}
}
