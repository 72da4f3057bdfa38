package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/asbx/agent-sandbox/extensions"
	"github.com/asbx/agent-sandbox/internal/restapi"
	"github.com/asbx/agent-sandbox/observers"
	"github.com/asbx/agent-sandbox/sandbox"
	"github.com/asbx/agent-sandbox/session"
	"github.com/asbx/agent-sandbox/shell"
)

// executableName is the canonical name of this binary, used in usage
// text and the flag set's name.
const executableName = "agent-sandbox"

// version is overridden at release build time via -ldflags.
var version = "dev"

// Run is the entry point isolated from process globals (stdin/stdout/
// stderr/args/env/signals), so it is directly testable. Returns the
// process exit code. sigCh may be nil when signal handling isn't
// needed, such as in tests.
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	flags := flag.NewFlagSet(executableName, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	flagHelp := flags.BoolP("help", "h", false, "Show help")
	flagVersion := flags.BoolP("version", "v", false, "Show version and exit")
	flagConfig := flags.StringP("config", "c", "", "Use specified config `file`")
	flagListen := flags.String("listen", "", "Serve the REST API on `addr` instead of starting the REPL")
	flagMetrics := flags.Bool("metrics", false, "Enable Prometheus metrics collection on every sandbox")

	flags.Int("max-total-size", 0, "Override the total byte quota")
	flags.Int("max-file-size", 0, "Override the per-file byte quota")
	flags.Int("max-node-count", 0, "Override the node-count quota")
	flags.String("workdir", "", "Working directory the sandbox starts in")

	if err := flags.Parse(args[1:]); err != nil {
		fmt.Fprintln(stderr, err)
		printUsage(stderr)

		return 1
	}

	if *flagVersion {
		fmt.Fprintf(stdout, "%s %s\n", executableName, version)

		return 0
	}

	if *flagHelp {
		printUsage(stdout)

		return 0
	}

	configPath := *flagConfig
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	cfg, err := LoadConfig(LoadConfigInput{ConfigPath: configPath, CLIFlags: flags})
	if err != nil {
		fmt.Fprintln(stderr, err)

		return 1
	}

	opts := optionsFromConfig(cfg)
	opts.ShellExtensions = []shell.Extension{&extensions.HTTPClient{}}

	var defaultObservers []sandbox.Observer
	if *flagMetrics {
		defaultObservers = append(defaultObservers, observers.NewMetrics())
	}

	manager := session.NewManagerWithObservers(0, defaultObservers...)

	if *flagListen != "" {
		return runServer(manager, *flagListen, *flagMetrics, stdout, stderr, sigCh)
	}

	return runREPL(manager, opts, stdin, stdout, stderr)
}

func optionsFromConfig(cfg Config) sandbox.Options {
	opts := sandbox.DefaultOptions()

	if cfg.MaxTotalSize > 0 {
		opts.MaxTotalSize = cfg.MaxTotalSize
	}

	if cfg.MaxFileSize > 0 {
		opts.MaxFileSize = cfg.MaxFileSize
	}

	if cfg.MaxNodeCount > 0 {
		opts.MaxNodeCount = cfg.MaxNodeCount
	}

	if cfg.WorkingDirectory != "" {
		opts.WorkingDirectory = cfg.WorkingDirectory
	}

	if len(cfg.Environment) > 0 {
		opts.Environment = cfg.Environment
	}

	return opts
}

// runServer serves the REST API described in spec.md §6 on addr over
// manager, without creating any sandbox itself, blocking until sigCh fires or Start
// fails.
func runServer(manager *session.Manager, addr string, withMetrics bool, stdout, stderr io.Writer, sigCh <-chan os.Signal) int {
	var opts []restapi.Option
	if withMetrics {
		opts = append(opts, restapi.WithMetrics())
	}

	server := restapi.NewServer(manager, opts...)
	logger := slog.New(slog.NewTextHandler(stdout, nil))

	logger.Info("agent-sandbox REST API listening", "addr", addr, "metrics", withMetrics)

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Start(addr)
	}()

	if sigCh == nil {
		return handleServeErr(<-errCh, stderr)
	}

	select {
	case err := <-errCh:
		return handleServeErr(err, stderr)
	case <-sigCh:
		logger.Info("shutting down")

		return 0
	}
}

func handleServeErr(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	slog.New(slog.NewTextHandler(stderr, nil)).Error("REST API server exited", "error", err)

	return 1
}

// runREPL is the playground described in spec.md §6: a prompt, a line
// read, `exit` terminates, everything else dispatches through
// sandbox.Execute and prints the result plus running stats.
func runREPL(manager *session.Manager, opts sandbox.Options, stdin io.Reader, stdout, stderr io.Writer) int {
	sb, err := manager.Create("", opts)
	if err != nil {
		fmt.Fprintln(stderr, err)

		return 1
	}
	defer sb.Dispose()

	fmt.Fprintf(stdout, "agent-sandbox playground (%s) — type 'exit' to quit\n", sb.ID())

	scanner := bufio.NewScanner(stdin)

	for {
		fmt.Fprint(stdout, promptFor(sb))

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "exit" {
			break
		}

		start := time.Now()

		result, execErr := sb.Execute(line)
		if execErr != nil {
			fmt.Fprintln(stderr, execErr)

			continue
		}

		if result.Stdout != "" {
			fmt.Fprint(stdout, result.Stdout)

			if !strings.HasSuffix(result.Stdout, "\n") {
				fmt.Fprintln(stdout)
			}
		}

		if result.Stderr != "" {
			fmt.Fprintln(stderr, result.Stderr)
		}

		stats := sb.Stats()
		fmt.Fprintf(stdout, "[exit %d, %s, %d files, %d bytes]\n",
			result.ExitCode, time.Since(start).Round(time.Millisecond), stats.FileCount, stats.TotalSize)
	}

	return 0
}

func promptFor(sb *sandbox.Sandbox) string {
	return sb.Stats().CurrentDirectory + " $ "
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `%s — an in-process sandbox playground for AI agents

Usage:
  %s [flags]

Flags:
  -c, --config file         Use specified config file
      --listen addr         Serve the REST API on addr instead of starting the REPL
      --metrics             Enable Prometheus metrics collection
      --max-total-size n    Override the total byte quota
      --max-file-size n     Override the per-file byte quota
      --max-node-count n    Override the node-count quota
      --workdir dir         Working directory the sandbox starts in
  -v, --version              Show version and exit
  -h, --help                 Show this help
`, executableName, executableName)
}
