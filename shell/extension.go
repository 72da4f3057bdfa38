package shell

// Extension is a user-registered command that shares the built-in
// contract: given argv (without the command name) and a [Context], it
// returns completed stdout/stderr/exit code. Extensions see the same
// Context as built-ins, so they are confined to the VFS for all I/O — no
// host filesystem or network access is implied by this interface (see
// extensions.HTTPClient for the one reference implementation that uses
// net/http directly, by design, outside the VFS sandbox boundary).
type Extension interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(argv []string, ctx Context) Result
}

// registry resolves a command name (primary name or alias) to its
// handler. Built-ins always win over an extension of the same name —
// registering an extension named "ls" does not shadow the built-in.
type registry struct {
	extensions map[string]Extension
}

func newRegistry() *registry {
	return &registry{extensions: make(map[string]Extension)}
}

// register adds ext under its primary name and all aliases, overwriting
// any prior extension registered under the same name (but never a
// built-in, which this registry does not know about).
func (r *registry) register(ext Extension) {
	r.extensions[ext.Name()] = ext

	for _, alias := range ext.Aliases() {
		r.extensions[alias] = ext
	}
}

func (r *registry) lookup(name string) (Extension, bool) {
	ext, ok := r.extensions[name]

	return ext, ok
}

func (r *registry) list() []Extension {
	seen := make(map[string]bool)

	var out []Extension

	for _, ext := range r.extensions {
		if seen[ext.Name()] {
			continue
		}

		seen[ext.Name()] = true
		out = append(out, ext)
	}

	return out
}
