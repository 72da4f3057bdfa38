package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

const requestTimeout = 30 * time.Second

var createCmd = &cobra.Command{
	Use:   "create [id]",
	Short: "Create a new sandbox",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}

		maxFileSize, _ := cmd.Flags().GetInt("max-file-size")

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		sb, err := newAPIClient().createSandbox(ctx, id, maxFileSize)
		if err != nil {
			return fmt.Errorf("create sandbox: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created sandbox %s\n", sb.ID)

		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List every sandbox on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		sandboxes, err := newAPIClient().listSandboxes(ctx)
		if err != nil {
			return fmt.Errorf("list sandboxes: %w", err)
		}

		if len(sandboxes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no sandboxes")

			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILES\tBYTES\tCOMMANDS\tCWD")

		for _, sb := range sandboxes {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", sb.ID, sb.FileCount, sb.TotalSize, sb.CommandCount, sb.CurrentDirectory)
		}

		return w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show details for one sandbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		sb, err := newAPIClient().getSandbox(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get sandbox: %w", err)
		}

		return printJSON(cmd, sb)
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"destroy"},
	Short:   "Destroy a sandbox",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := newAPIClient().destroySandbox(ctx, args[0]); err != nil {
			return fmt.Errorf("destroy sandbox: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "destroyed %s\n", args[0])

		return nil
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <id> <command>",
	Short: "Run a shell command inside a sandbox",
	Long:  `Run a shell command inside a sandbox. Example: sandboxctl exec abc123 "ls -l /"`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		result, err := newAPIClient().exec(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}

		if result.Stdout != "" {
			fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
		}

		if result.Stderr != "" {
			fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
		}

		if result.ExitCode != 0 {
			return fmt.Errorf("command exited with code %d", result.ExitCode)
		}

		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <id>",
	Short: "Show a sandbox's usage statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		stats, err := newAPIClient().stats(ctx, args[0])
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}

		return printJSON(cmd, stats)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <id>",
	Short: "Snapshot a sandbox and print its snapshot id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		snap, err := newAPIClient().createSnapshot(ctx, args[0])
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), snap.SnapshotID)

		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <id> <snapshot-id>",
	Short: "Restore a sandbox from a previously created snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		sb, err := newAPIClient().restoreSnapshot(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", sb.ID, sb.CurrentDirectory)

		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))

	return err
}

func init() {
	createCmd.Flags().Int("max-file-size", 0, "override the per-file byte quota")
}
