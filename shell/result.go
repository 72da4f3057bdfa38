package shell

import (
	"encoding/json"
	"time"
)

// Result is the outcome of executing one command line.
type Result struct {
	Command    string        `json:"command"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	ExitCode   int           `json:"exitCode"`
	Duration   time.Duration `json:"durationMs"`
}

// Success reports whether the command exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// MarshalJSON renders Duration as whole milliseconds and adds a
// "success" field, matching the wire shape from spec.md §6:
// {command, stdout, stderr, exitCode, success, durationMs}.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Command    string `json:"command"`
		Stdout     string `json:"stdout"`
		Stderr     string `json:"stderr"`
		ExitCode   int    `json:"exitCode"`
		Success    bool   `json:"success"`
		DurationMs int64  `json:"durationMs"`
	}

	return json.Marshal(wire{
		Command:    r.Command,
		Stdout:     r.Stdout,
		Stderr:     r.Stderr,
		ExitCode:   r.ExitCode,
		Success:    r.Success(),
		DurationMs: r.Duration.Milliseconds(),
	})
}
