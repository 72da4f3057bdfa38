package shell

import (
	"fmt"
	"sort"
	"strings"
)

func builtinEnv(argv []string, ctx Context) Result {
	env := ctx.Environment()

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+env[k])
	}

	return ok(strings.Join(lines, "\n"))
}

// builtinExport assigns KEY=VALUE into the environment. A malformed
// argument (missing "=") is a silent no-op, per spec.
func builtinExport(argv []string, ctx Context) Result {
	env := ctx.Environment()

	for _, a := range argv {
		idx := strings.Index(a, "=")
		if idx <= 0 {
			continue
		}

		env[a[:idx]] = a[idx+1:]
	}

	return Result{}
}

func builtinClear(argv []string, ctx Context) Result {
	return Result{}
}

func builtinHelp(argv []string, ctx Context) Result {
	var lines []string

	if s, okCast := ctx.(*Shell); okCast {
		names := make([]string, 0, len(s.Builtins()))
		for name := range s.Builtins() {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			lines = append(lines, fmt.Sprintf("%-8s %s", name, s.Builtins()[name]))
		}

		for _, ext := range s.Extensions() {
			lines = append(lines, fmt.Sprintf("%-8s %s", ext.Name(), ext.Description()))
		}
	} else {
		names := make([]string, 0, len(builtinDescriptions))
		for name := range builtinDescriptions {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			lines = append(lines, fmt.Sprintf("%-8s %s", name, builtinDescriptions[name]))
		}
	}

	return ok(strings.Join(lines, "\n"))
}
