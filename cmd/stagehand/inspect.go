package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aretw0/stagehand/internal/cli"
	"github.com/aretw0/stagehand/internal/demo"
	"github.com/spf13/cobra"
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List the registered scenes",
	Run: func(cmd *cobra.Command, args []string) {
		for _, s := range demo.Scenes() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s prefix=%-4s v%d\n", s.ID(), s.Prefix(), s.Version())
		}
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and remove chat sessions",
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <chat-id>",
	Short: "Print the stored session of a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat id %q: %w", args[0], err)
		}
		stores, err := cli.OpenStores(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer stores.Close()

		s, err := stores.Sessions.Load(cmd.Context(), chatID)
		if err != nil {
			return fmt.Errorf("failed to load session for chat %d: %w", chatID, err)
		}
		return printJSON(cmd, s)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <chat-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := cli.OpenStores(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer stores.Close()

		for _, arg := range args {
			chatID, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chat id %q: %w", arg, err)
			}
			if err := stores.Sessions.Delete(cmd.Context(), chatID); err != nil {
				return fmt.Errorf("failed to remove session for chat %d: %w", chatID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session for chat %d\n", chatID)
		}
		return nil
	},
}

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Inspect per-message scene metadata",
}

var metaGetCmd = &cobra.Command{
	Use:   "get <chat-id> <message-id>",
	Short: "Print the metadata stored for a message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat id %q: %w", args[0], err)
		}
		messageID, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid message id %q: %w", args[1], err)
		}
		stores, err := cli.OpenStores(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer stores.Close()

		meta, err := stores.Metadata.Get(cmd.Context(), chatID, int32(messageID))
		if err != nil {
			return fmt.Errorf("failed to load metadata for message %d: %w", messageID, err)
		}
		return printJSON(cmd, struct {
			Metadata      any  `json:"metadata"`
			ChecksumValid bool `json:"checksum_valid"`
		}{meta, meta.Snapshot().ChecksumValid()})
	},
}

var metaSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired metadata (memory and sqlite backends)",
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := cli.OpenStores(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer stores.Close()

		if stores.Sweeper == nil {
			return fmt.Errorf("metadata backend %q expires records on its own", cfg.Metadata.Backend)
		}
		n, err := stores.Sweeper.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired records\n", n)
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	rootCmd.AddCommand(scenesCmd, sessionCmd, metaCmd)
	sessionCmd.AddCommand(sessionInspectCmd, sessionRmCmd)
	metaCmd.AddCommand(metaGetCmd, metaSweepCmd)
}
