package shell

// builtinDescriptions backs the `help` built-in and is also exposed via
// Shell.Builtins for documentation purposes. Kept separate from
// builtinTable so registering a new command only requires one addition
// here and one in builtinTable.
var builtinDescriptions = map[string]string{
	"pwd":    "print the current working directory",
	"cd":     "change the current working directory",
	"ls":     "list a directory's children",
	"cat":    "print file contents",
	"echo":   "print arguments",
	"mkdir":  "create a directory",
	"rm":     "remove a file or directory",
	"cp":     "copy a file or directory",
	"mv":     "move (rename) a file or directory",
	"touch":  "create an empty file or update its modified time",
	"head":   "print the first lines of a file",
	"tail":   "print the last lines of a file",
	"wc":     "count lines, words, and bytes in a file",
	"grep":   "print lines matching a pattern",
	"find":   "walk a directory tree",
	"env":    "print the current environment",
	"export": "set an environment variable",
	"clear":  "clear the terminal (no-op, produces no output)",
	"help":   "list available commands",
}

// builtinTable wires every built-in's name to its handler. Split across
// builtins_fs.go (read-only), builtins_write.go (mutating), and
// builtins_misc.go (env/help) by concern.
func builtinTable() map[string]builtin {
	return map[string]builtin{
		"pwd":  builtinPwd,
		"cd":   builtinCd,
		"ls":   builtinLs,
		"cat":  builtinCat,
		"echo": builtinEcho,
		"head": builtinHead,
		"tail": builtinTail,
		"wc":   builtinWc,
		"grep": builtinGrep,
		"find": builtinFind,

		"mkdir": builtinMkdir,
		"rm":    builtinRm,
		"cp":    builtinCp,
		"mv":    builtinMv,
		"touch": builtinTouch,

		"env":    builtinEnv,
		"export": builtinExport,
		"clear":  builtinClear,
		"help":   builtinHelp,
	}
}

// fail is a small helper for the common case of a single-line stderr
// failure with exit code 1.
func fail(msg string) Result {
	return Result{Stderr: msg, ExitCode: 1}
}

func ok(stdout string) Result {
	return Result{Stdout: stdout}
}
