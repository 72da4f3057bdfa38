package shell_test

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/asbx/agent-sandbox/shell"
	"github.com/asbx/agent-sandbox/vfs"
)

func newShell(t *testing.T) *shell.Shell {
	t.Helper()

	fs := vfs.New(vfs.Options{Backend: vfs.NewMemory()})

	return shell.New(fs, nil)
}

func Test_Shell_Pwd_Reports_Root_Initially(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("pwd")

	if result.Stdout != "/" || !result.Success() {
		t.Fatalf("pwd: got %+v", result)
	}
}

func Test_Shell_Cd_Changes_Directory_And_Pwd_Env(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.Execute("mkdir -p /a/b")

	result := sh.Execute("cd /a/b")
	if !result.Success() {
		t.Fatalf("cd failed: %+v", result)
	}

	if sh.CurrentDirectory() != "/a/b" {
		t.Fatalf("cwd = %q", sh.CurrentDirectory())
	}

	if sh.Environment()["PWD"] != "/a/b" {
		t.Fatalf("PWD = %q", sh.Environment()["PWD"])
	}
}

func Test_Shell_Cd_Missing_Target_Fails_With_POSIX_Message(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("cd /nope")

	if result.Success() {
		t.Fatalf("expected failure")
	}

	if !strings.Contains(result.Stderr, "No such file or directory") {
		t.Fatalf("stderr = %q", result.Stderr)
	}
}

func Test_Shell_Echo_Joins_Args_With_No_Trailing_Newline(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("echo hello world")

	if result.Stdout != "hello world" {
		t.Fatalf("stdout = %q", result.Stdout)
	}
}

func Test_Shell_Env_Expansion_In_Echo(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.Execute("export NAME=World")

	result := sh.Execute("echo Hello $NAME")
	if result.Stdout != "Hello World" {
		t.Fatalf("stdout = %q", result.Stdout)
	}
}

func Test_Shell_Recursive_Mkdir_Creates_All_Levels(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("mkdir -p /a/b/c")
	if !result.Success() {
		t.Fatalf("mkdir -p failed: %+v", result)
	}

	fs := sh.FileSystem()

	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		if !fs.IsDirectory(p) {
			t.Fatalf("expected directory %q", p)
		}
	}
}

func Test_Shell_Mkdir_Without_P_Fails_On_Missing_Parent(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("mkdir /a/b")

	if result.Success() {
		t.Fatalf("expected failure without -p")
	}
}

func Test_Shell_Redirect_Overwrite_Then_Append_Concatenates_No_Newline(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.Execute("echo a > /x")
	sh.Execute("echo b >> /x")

	content, err := sh.FileSystem().ReadFileString("/x")
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if content != "ab" {
		t.Fatalf("content = %q, want %q", content, "ab")
	}
}

func Test_Shell_Rm_Missing_Target_Fails_Unless_Force(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("rm /nope")
	if result.Success() {
		t.Fatalf("expected failure")
	}

	result = sh.Execute("rm -f /nope")
	if !result.Success() {
		t.Fatalf("rm -f should succeed on missing target: %+v", result)
	}
}

func Test_Shell_Cp_Directory_Requires_Recursive_Flag(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.Execute("mkdir -p /src")
	sh.Execute("echo hi > /src/f.txt")

	result := sh.Execute("cp /src /dst")
	if result.Success() {
		t.Fatalf("expected cp without -r to fail on a directory")
	}

	result = sh.Execute("cp -r /src /dst")
	if !result.Success() {
		t.Fatalf("cp -r failed: %+v", result)
	}

	if !sh.FileSystem().Exists("/dst/f.txt") {
		t.Fatalf("expected /dst/f.txt to exist after recursive copy")
	}
}

func Test_Shell_Mv_Is_Copy_Then_Delete(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.Execute("echo hi > /a.txt")

	result := sh.Execute("mv /a.txt /b.txt")
	if !result.Success() {
		t.Fatalf("mv failed: %+v", result)
	}

	if sh.FileSystem().Exists("/a.txt") {
		t.Fatalf("source should no longer exist")
	}

	if !sh.FileSystem().Exists("/b.txt") {
		t.Fatalf("destination should exist")
	}
}

func Test_Shell_Touch_Creates_Empty_File(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("touch /f.txt")
	if !result.Success() {
		t.Fatalf("touch failed: %+v", result)
	}

	content, err := sh.FileSystem().ReadFileString("/f.txt")
	if err != nil || content != "" {
		t.Fatalf("content = %q, err = %v", content, err)
	}
}

func Test_Shell_Head_And_Tail_Respect_N(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.FileSystem().WriteFile("/f.txt", []byte("one\ntwo\nthree\nfour"))

	result := sh.Execute("head -n 2 /f.txt")
	if result.Stdout != "one\ntwo" {
		t.Fatalf("head stdout = %q", result.Stdout)
	}

	result = sh.Execute("tail -n 2 /f.txt")
	if result.Stdout != "three\nfour" {
		t.Fatalf("tail stdout = %q", result.Stdout)
	}
}

func Test_Shell_Wc_Counts_Lines_Words_Bytes(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.FileSystem().WriteFile("/f.txt", []byte("a b\nc\n"))

	result := sh.Execute("wc -l /f.txt")
	if result.Stdout != "2" {
		t.Fatalf("wc -l = %q", result.Stdout)
	}

	result = sh.Execute("wc -w /f.txt")
	if result.Stdout != "3" {
		t.Fatalf("wc -w = %q", result.Stdout)
	}
}

func Test_Shell_Grep_Filters_Matching_Lines_Case_Insensitive(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.FileSystem().WriteFile("/f.txt", []byte("Apple\nbanana\nApricot\n"))

	result := sh.Execute("grep -i ap /f.txt")
	if result.Stdout != "Apple\nApricot" {
		t.Fatalf("grep stdout = %q", result.Stdout)
	}
}

func Test_Shell_Grep_No_Match_Exits_Nonzero(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.FileSystem().WriteFile("/f.txt", []byte("hello\n"))

	result := sh.Execute("grep zzz /f.txt")
	if result.Success() {
		t.Fatalf("expected exit 1 on no match")
	}
}

func Test_Shell_Find_Matches_Leaf_Glob(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	sh.Execute("mkdir -p /a/b")
	sh.Execute("touch /a/one.txt")
	sh.Execute("touch /a/b/two.txt")
	sh.Execute("touch /a/b/three.log")

	result := sh.Execute("find /a -name *.txt")
	if !strings.Contains(result.Stdout, "/a/one.txt") || !strings.Contains(result.Stdout, "/a/b/two.txt") {
		t.Fatalf("find stdout = %q", result.Stdout)
	}

	if strings.Contains(result.Stdout, "three.log") {
		t.Fatalf("find matched non-.txt file: %q", result.Stdout)
	}
}

func Test_Shell_Command_Not_Found_Exits_127(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("frobnicate")

	if result.ExitCode != 127 {
		t.Fatalf("exit code = %d, want 127", result.ExitCode)
	}

	if !strings.Contains(result.Stderr, "command not found") {
		t.Fatalf("stderr = %q", result.Stderr)
	}
}

func Test_Shell_Empty_Line_Is_A_Noop_Success(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	result := sh.Execute("   ")

	if !result.Success() || result.Stdout != "" {
		t.Fatalf("result = %+v", result)
	}
}

func Test_Shell_Concurrent_Touch_Creates_All_Files(t *testing.T) {
	t.Parallel()

	sh := newShell(t)

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			sh.Execute("touch /f" + strconv.Itoa(i))
		}(i)
	}

	wg.Wait()

	names, err := sh.FileSystem().ListDirectory("/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(names) != 100 {
		t.Fatalf("got %d entries, want 100", len(names))
	}

	if sh.FileSystem().NodeCount() != 101 {
		t.Fatalf("node count = %d, want 101 (root + 100 files)", sh.FileSystem().NodeCount())
	}
}
