package sandbox_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/asbx/agent-sandbox/sandbox"
)

func newTestSandbox(t *testing.T, opts sandbox.Options) *sandbox.Sandbox {
	t.Helper()

	sb := sandbox.New("test-"+t.Name(), opts, nil)
	t.Cleanup(sb.Dispose)

	return sb
}

func Test_Sandbox_Quota_Failure_Via_Shell_Rejects_Write(t *testing.T) {
	t.Parallel()

	opts := sandbox.DefaultOptions()
	opts.MaxFileSize = 10

	sb := newTestSandbox(t, opts)

	result, err := sb.Execute(`echo 'xxxxxxxxxxxxxxxxxxxx' > /large.txt`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Success() {
		t.Fatalf("expected quota failure, got success")
	}

	if !strings.Contains(result.Stderr, "exceed") {
		t.Fatalf("stderr = %q, want it to mention the quota", result.Stderr)
	}

	if sb.FileSystem().Exists("/large.txt") {
		t.Fatalf("file should not exist after a rejected write")
	}
}

func Test_Sandbox_Env_Expansion_Through_Options(t *testing.T) {
	t.Parallel()

	opts := sandbox.DefaultOptions()
	opts.Environment = map[string]string{"NAME": "World"}

	sb := newTestSandbox(t, opts)

	result, err := sb.Execute("echo Hello $NAME")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Stdout != "Hello World" {
		t.Fatalf("stdout = %q", result.Stdout)
	}
}

func Test_Sandbox_Working_Directory_Is_Created_And_Entered(t *testing.T) {
	t.Parallel()

	opts := sandbox.DefaultOptions()
	opts.WorkingDirectory = "/work"

	sb := newTestSandbox(t, opts)

	result, err := sb.Execute("pwd")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Stdout != "/work" {
		t.Fatalf("pwd = %q, want /work", result.Stdout)
	}
}

func Test_Sandbox_Execute_After_Dispose_Fails(t *testing.T) {
	t.Parallel()

	sb := sandbox.New("disposed-sandbox", sandbox.DefaultOptions(), nil)
	sb.Dispose()

	_, err := sb.Execute("pwd")
	if !errors.Is(err, sandbox.ErrDisposed) {
		t.Fatalf("err = %v, want ErrDisposed", err)
	}
}

func Test_Sandbox_Dispose_Is_Idempotent_And_Calls_Callback_Once(t *testing.T) {
	t.Parallel()

	calls := 0

	sb := sandbox.New("idempotent", sandbox.DefaultOptions(), func(id string) { calls++ })

	sb.Dispose()
	sb.Dispose()
	sb.Dispose()

	if calls != 1 {
		t.Fatalf("onDispose called %d times, want 1", calls)
	}
}

func Test_Sandbox_Dispose_Clears_History(t *testing.T) {
	t.Parallel()

	sb := sandbox.New("history-clear", sandbox.DefaultOptions(), nil)

	sb.Execute("pwd")
	sb.Execute("pwd")

	sb.Dispose()

	if len(sb.History()) != 0 {
		t.Fatalf("expected history to be cleared on dispose")
	}
}

func Test_Sandbox_Snapshot_Restore_Round_Trips_Directory_And_Environment(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t, sandbox.DefaultOptions())

	sb.Execute("mkdir -p /a/b")
	sb.Execute("cd /a/b")
	sb.Execute("export FOO=bar")
	sb.Execute("echo hello > /a/b/f.txt")

	snap, err := sb.CreateSnapshot()
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}

	sb.Execute("cd /")
	sb.Execute("rm -rf /a")

	if err := sb.RestoreSnapshot(snap); err != nil {
		t.Fatalf("restore snapshot: %v", err)
	}

	result, err := sb.Execute("pwd")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Stdout != "/a/b" {
		t.Fatalf("pwd after restore = %q, want /a/b", result.Stdout)
	}

	content, err := sb.FileSystem().ReadFileString("/a/b/f.txt")
	if err != nil || content != "hello" {
		t.Fatalf("content = %q, err = %v", content, err)
	}
}

func Test_Sandbox_Restore_Does_Not_Recheck_Quota(t *testing.T) {
	t.Parallel()

	loose := sandbox.DefaultOptions()
	sbLoose := newTestSandbox(t, loose)

	sbLoose.Execute("echo 'this line is definitely longer than ten bytes' > /f.txt")

	snap, err := sbLoose.CreateSnapshot()
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}

	tight := sandbox.DefaultOptions()
	tight.MaxFileSize = 10

	sbTight := newTestSandbox(t, tight)

	if err := sbTight.RestoreSnapshot(snap); err != nil {
		t.Fatalf("restore into a tighter-quota sandbox should succeed: %v", err)
	}

	if !sbTight.FileSystem().Exists("/f.txt") {
		t.Fatalf("expected /f.txt to exist after restore despite the tighter quota")
	}
}

func Test_Sandbox_Stats_Reflects_Activity(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t, sandbox.DefaultOptions())

	sb.Execute("touch /a.txt")
	sb.Execute("touch /b.txt")

	stats := sb.Stats()

	if stats.CommandCount != 2 {
		t.Fatalf("command count = %d, want 2", stats.CommandCount)
	}

	if stats.FileCount != 3 {
		t.Fatalf("file count = %d, want 3 (root + 2 files)", stats.FileCount)
	}
}

func Test_Sandbox_Observer_Receives_Command_Executed_In_Order(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t, sandbox.DefaultOptions())

	var kinds []sandbox.EventKind

	sb.Subscribe(sandbox.ObserverFunc(func(event sandbox.Event) error {
		kinds = append(kinds, event.Kind)

		return nil
	}))

	sb.Execute("pwd")
	sb.Execute("touch /f.txt")

	// touch's FileChanged fires while the shell is still executing,
	// before Execute's own CommandExecuted dispatch for that call.
	want := []sandbox.EventKind{
		sandbox.EventCommandExecuted,
		sandbox.EventFileChanged,
		sandbox.EventCommandExecuted,
	}

	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}

	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("kinds[%d] = %s, want %s", i, kinds[i], k)
		}
	}
}

func Test_Sandbox_Observer_Error_Is_Swallowed(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t, sandbox.DefaultOptions())

	sb.Subscribe(sandbox.ObserverFunc(func(event sandbox.Event) error {
		return errors.New("boom")
	}))

	result, err := sb.Execute("pwd")
	if err != nil {
		t.Fatalf("execute should not fail when an observer errors: %v", err)
	}

	if !result.Success() {
		t.Fatalf("result = %+v", result)
	}
}

func Test_Sandbox_Observer_Panic_Is_Recovered(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t, sandbox.DefaultOptions())

	sb.Subscribe(sandbox.ObserverFunc(func(event sandbox.Event) error {
		panic("boom")
	}))

	result, err := sb.Execute("pwd")
	if err != nil {
		t.Fatalf("execute should not fail when an observer panics: %v", err)
	}

	if !result.Success() {
		t.Fatalf("result = %+v", result)
	}
}

func Test_Sandbox_Subscription_Dispose_Stops_Delivery(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t, sandbox.DefaultOptions())

	received := 0

	sub := sb.Subscribe(sandbox.ObserverFunc(func(event sandbox.Event) error {
		received++

		return nil
	}))

	sb.Execute("pwd")
	sub.Dispose()
	sb.Execute("pwd")

	if received != 1 {
		t.Fatalf("received = %d, want 1", received)
	}
}

func Test_Sandbox_Concurrent_Execute_Is_Safe(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t, sandbox.DefaultOptions())

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			sb.Execute("pwd")
		}()
	}

	wg.Wait()

	if len(sb.History()) != 50 {
		t.Fatalf("history length = %d, want 50", len(sb.History()))
	}
}
