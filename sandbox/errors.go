package sandbox

import "errors"

// ErrDisposed is returned by every Sandbox method once Dispose has run.
// It is the only error Execute itself can fail with; everything else a
// command does surfaces as a non-zero shell.Result instead.
var ErrDisposed = errors.New("sandbox: disposed")

// ErrQuotaExceeded is wrapped by every quota check failure; callers can
// test for it with errors.Is regardless of which limit tripped.
var ErrQuotaExceeded = errors.New("sandbox: quota exceeded")
