package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"renamer/internal/config"
	"renamer/internal/ipc"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			client, err := ipc.Dial(ipc.SocketPath(cfg))
			if err != nil {
				return fmt.Errorf("daemon not reachable: %w", err)
			}
			defer client.Close() //nolint:errcheck

			status, err := client.Status()
			if err != nil {
				return err
			}

			running := "no"
			if status.Running {
				running = "yes"
			}
			rows := [][]string{
				{"Running", running},
				{"Pending tasks", strconv.Itoa(status.PendingTotal)},
				{"Active tasks", strconv.Itoa(status.ActiveTotal)},
				{"Users with work", strconv.Itoa(status.Users)},
				{"Completed", strconv.FormatUint(status.Completed, 10)},
				{"Duplicates dropped", strconv.FormatUint(status.Duplicates, 10)},
				{"Rejected", strconv.FormatUint(status.Rejected, 10)},
				{"Downloads in flight", strconv.Itoa(status.DownloadsNow)},
				{"Uploads in flight", strconv.Itoa(status.UploadsNow)},
				{"Settings DB", status.SettingsDB},
				{"Lock file", status.LockPath},
				{"PID", strconv.Itoa(status.PID)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}

func newQueueCommand(configFlag *string) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the task queue",
	}

	clearCmd := &cobra.Command{
		Use:   "clear <user-id>",
		Short: "Drop a user's pending tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			client, err := ipc.Dial(ipc.SocketPath(cfg))
			if err != nil {
				return fmt.Errorf("daemon not reachable: %w", err)
			}
			defer client.Close() //nolint:errcheck

			resp, err := client.QueueClear(userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d queued files for user %d\n", resp.Removed, userID)
			return nil
		},
	}

	queueCmd.AddCommand(clearCmd)
	return queueCmd
}
