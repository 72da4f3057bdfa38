// Package extensions holds reference implementations of the
// shell.Extension interface: commands that plug into a sandbox's shell
// from outside the VFS-confined core.
package extensions

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/asbx/agent-sandbox/shell"
)

// HTTPClient is a minimal curl-like extension: `http <method> <url>`
// issues the request and writes the response body to stdout. It is the
// one wired example of the Extension interface; unlike built-ins, it
// steps outside the VFS sandbox boundary by design (making a real
// network request), which is exactly what an extension command is for.
type HTTPClient struct {
	// Client is the http.Client used for every request. Defaults to a
	// client with a 30s timeout if nil.
	Client *http.Client
}

func (h *HTTPClient) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}

	return &http.Client{Timeout: 30 * time.Second}
}

func (h *HTTPClient) Name() string      { return "http" }
func (h *HTTPClient) Aliases() []string { return []string{"curl"} }
func (h *HTTPClient) Description() string {
	return "issue an HTTP request and print the response body"
}

func (h *HTTPClient) Usage() string { return "http <method> <url>" }

func (h *HTTPClient) Execute(argv []string, ctx shell.Context) shell.Result {
	if len(argv) < 2 {
		return shell.Result{
			Stderr:   "http: usage: http <method> <url>",
			ExitCode: 1,
		}
	}

	method := strings.ToUpper(argv[0])
	url := argv[1]

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return shell.Result{Stderr: "http: " + err.Error(), ExitCode: 1}
	}

	resp, err := h.client().Do(req)
	if err != nil {
		return shell.Result{Stderr: "http: " + err.Error(), ExitCode: 1}
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return shell.Result{Stderr: "http: reading response: " + err.Error(), ExitCode: 1}
	}

	if resp.StatusCode >= 400 {
		return shell.Result{
			Stdout:   string(body),
			Stderr:   "http: " + resp.Status,
			ExitCode: 1,
		}
	}

	return shell.Result{Stdout: string(body)}
}
