package shell

import (
	"fmt"
	"time"

	"github.com/asbx/agent-sandbox/vfs"
)

// builtin is the internal handler shape every built-in command
// implements: argv excludes the command name itself.
type builtin func(argv []string, ctx Context) Result

// Shell is a per-session Unix-style interpreter over one [vfs.VFS]. It
// owns the session's current working directory and environment, and
// dispatches each command line to a built-in, a registered [Extension],
// or a "command not found" failure.
type Shell struct {
	fs       *vfs.VFS
	writer   Writer
	cwd      string
	env      map[string]string
	builtins map[string]builtin
	ext      *registry
}

// New constructs a Shell rooted at "/" with an empty environment. If
// writer is nil, writes go straight to fs with no quota enforcement —
// suitable for standalone use and tests; sandbox.Sandbox always supplies
// its own quota-aware writer.
func New(fs *vfs.VFS, writer Writer) *Shell {
	if writer == nil {
		writer = passThroughWriter{fs: fs}
	}

	s := &Shell{
		fs:     fs,
		writer: writer,
		cwd:    "/",
		env:    map[string]string{"HOME": "/", "PWD": "/"},
		ext:    newRegistry(),
	}

	s.builtins = builtinTable()

	return s
}

// RegisterExtension adds ext to the shell's extension registry. Built-ins
// always take precedence over an extension registered under the same
// name or alias.
func (s *Shell) RegisterExtension(ext Extension) {
	s.ext.register(ext)
}

// FileSystem implements Context.
func (s *Shell) FileSystem() *vfs.VFS { return s.fs }

// CurrentDirectory implements Context.
func (s *Shell) CurrentDirectory() string { return s.cwd }

// SetCurrentDirectory implements Context.
func (s *Shell) SetCurrentDirectory(dir string) { s.cwd = vfs.Normalize(dir) }

// Environment implements Context. The returned map is the shell's live
// environment, not a copy — built-ins mutate it directly (e.g. export,
// cd's PWD update).
func (s *Shell) Environment() map[string]string { return s.env }

// ResolvePath implements Context: absolute inputs are normalized as-is;
// relative inputs are resolved against the current directory.
func (s *Shell) ResolvePath(p string) string {
	if len(p) > 0 && (p[0] == '/' || p[0] == '\\') {
		return vfs.Normalize(p)
	}

	return vfs.Combine(s.cwd, p)
}

func (s *Shell) WriteFile(path string, content []byte) error    { return s.writer.WriteFile(path, content) }
func (s *Shell) AppendToFile(path string, content []byte) error { return s.writer.AppendToFile(path, content) }
func (s *Shell) CreateDirectory(path string) error              { return s.writer.CreateDirectory(path) }
func (s *Shell) Copy(src, dst string, overwrite bool) error      { return s.writer.Copy(src, dst, overwrite) }
func (s *Shell) Move(src, dst string, overwrite bool) error      { return s.writer.Move(src, dst, overwrite) }
func (s *Shell) Delete(path string, recursive bool) error        { return s.writer.Delete(path, recursive) }
func (s *Shell) Touch(path string) error                         { return s.writer.Touch(path) }

// Execute tokenizes and runs one command line, returning the complete
// Result. It never panics on malformed input; errors become a non-zero
// exit code and a stderr message, per spec.md §4.2.2/§7.
func (s *Shell) Execute(line string) Result {
	start := time.Now()

	p := tokenize(line, s.env)

	if len(p.argv) == 0 {
		return Result{Command: line, Duration: time.Since(start)}
	}

	name := p.argv[0]
	args := p.argv[1:]

	var result Result

	if handler, ok := s.builtins[name]; ok {
		result = handler(args, s)
	} else if ext, ok := s.ext.lookup(name); ok {
		result = ext.Execute(args, s)
	} else {
		result = Result{
			Stderr:   fmt.Sprintf("%s: command not found", name),
			ExitCode: 127,
		}
	}

	if p.redirect != nil {
		result = s.applyRedirect(result, *p.redirect)
	}

	result.Command = line
	result.Duration = time.Since(start)

	return result
}

// applyRedirect writes result.Stdout to the redirect target through the
// quota-aware writer. On failure, the exit code is set non-zero, the
// failure message replaces stderr, and stdout is cleared — matching
// spec.md §4.2.2's redirect-failure contract.
func (s *Shell) applyRedirect(result Result, r Redirect) Result {
	target := s.ResolvePath(r.Target)

	var err error

	switch r.Kind {
	case RedirectAppend:
		err = s.AppendToFile(target, []byte(result.Stdout))
	default:
		err = s.WriteFile(target, []byte(result.Stdout))
	}

	if err != nil {
		return Result{
			Stdout:   "",
			Stderr:   fmt.Sprintf("%s: %v", r.Target, err),
			ExitCode: 1,
		}
	}

	result.Stdout = ""

	return result
}

// Builtins returns every built-in command's name mapped to its one-line
// description, for the `help`
// built-in and for documentation purposes.
func (s *Shell) Builtins() map[string]string {
	return builtinDescriptions
}

// Extensions returns every registered extension, deduplicated by primary name.
func (s *Shell) Extensions() []Extension {
	return s.ext.list()
}
