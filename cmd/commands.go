package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"focusflow/internal/core/model"
	"focusflow/internal/export"
	"focusflow/internal/ipc"
	"focusflow/internal/platform"
	"focusflow/internal/storage"
)

func pathsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the files FocusFlow reads and writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := storage.ResolvePaths(root.configDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:   %s\n", paths.Dir)
			fmt.Fprintf(out, "state:    %s\n", paths.State)
			fmt.Fprintf(out, "history:  %s\n", paths.History)
			fmt.Fprintf(out, "settings: %s\n", paths.Settings)
			fmt.Fprintf(out, "log:      %s\n", paths.Log)
			return nil
		},
	}
}

func exportCmd(root *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded sessions as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("export: --out is required")
			}
			exportFormat, err := export.ParseFormat(format, out)
			if err != nil {
				return err
			}
			paths, err := storage.ResolvePaths(root.configDir)
			if err != nil {
				return err
			}
			doc, err := storage.NewStore(paths.State).Get(cmd.Context())
			if err != nil && !errors.Is(err, storage.ErrCorrupt) {
				return fmt.Errorf("read state: %w", err)
			}
			if err := export.Write(doc, exportFormat, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d session(s) to %s\n", len(doc.TimerSessions), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or json (default: from the file extension)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func historyCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and restore saved revisions of the document",
	}
	cmd.AddCommand(historyListCmd(root))
	cmd.AddCommand(historyRestoreCmd(root))
	return cmd
}

func historyListCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the newest revisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := storage.ResolvePaths(root.configDir)
			if err != nil {
				return err
			}
			history, err := storage.OpenHistory(paths.History)
			if err != nil {
				return err
			}
			defer history.Close()

			snapshots, err := history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no revisions recorded")
				return nil
			}
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "REVISION\tSAVED\tTASKS\tSESSIONS\tPOOL")
			for _, snapshot := range snapshots {
				fmt.Fprintf(writer, "%d\t%s\t%d\t%d\t%s\n",
					snapshot.Revision,
					snapshot.SavedAt.Local().Format(time.DateTime),
					snapshot.Tasks,
					snapshot.Sessions,
					model.FormatHHMMSS(snapshot.PoolSec))
			}
			return writer.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum revisions to list")
	return cmd
}

func historyRestoreCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore REV",
		Short: "Write an earlier revision back as the current document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revision, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse revision %q: %w", args[0], err)
			}
			restored, err := restoreRevision(cmd.Context(), root.configDir, revision)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored revision %d as revision %d\n", revision, restored)
			return nil
		},
	}
}

// restoreRevision writes revision back through a journaled store, so the
// restore itself becomes the newest revision.
func restoreRevision(ctx context.Context, configDir string, revision uint64) (uint64, error) {
	paths, err := storage.ResolvePaths(configDir)
	if err != nil {
		return 0, err
	}
	if err := paths.Ensure(); err != nil {
		return 0, err
	}
	settings, err := storage.LoadSettings(paths.Settings)
	if err != nil {
		return 0, err
	}
	history, err := storage.OpenHistory(paths.History)
	if err != nil {
		return 0, err
	}
	defer history.Close()

	doc, err := history.Load(ctx, revision)
	if err != nil {
		return 0, err
	}
	store := storage.NewStore(paths.State, storage.WithJournal(history, settings.HistoryKeep))
	if err := store.SyncRevision(ctx); err != nil {
		return 0, err
	}
	if _, err := store.Set(ctx, doc); err != nil {
		return 0, fmt.Errorf("restore revision %d: %w", revision, err)
	}
	return store.Revision(), nil
}

func timerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Control the timer of the running instance",
	}
	for _, command := range model.Commands {
		cmd.AddCommand(timerCommandCmd(command))
	}
	return cmd
}

func timerCommandCmd(command model.Command) *cobra.Command {
	return &cobra.Command{
		Use:   string(command),
		Short: fmt.Sprintf("Send %s to the running timer", command),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := platform.Forward(storage.AppName, ipc.TimerCommand{Command: command})
			if errors.Is(err, platform.ErrNotRunning) {
				return errors.New("FocusFlow is not running")
			}
			return err
		},
	}
}
