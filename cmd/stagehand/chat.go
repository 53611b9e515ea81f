package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/stagehand/internal/cli"
	"github.com/aretw0/stagehand/internal/demo"
	"github.com/aretw0/stagehand/pkg/adapters/console"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the demo scenes in the terminal",
	Long: `Runs the demo scenes against a console transport. Type /start to open the
counter, !N to press button N of the latest menu and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chatID, _ := cmd.Flags().GetInt64("chat-id")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Stop()

		var opts []console.Option
		if console.IsTerminal(os.Stdout) {
			opts = append(opts, console.WithMarkdown(), console.WithProfile(termenv.EnvColorProfile()))
		}
		transport := console.New(cmd.OutOrStdout(), opts...)

		app, err := cli.NewApp(ctx, cfg, transport, logger, demo.Scenes()...)
		if err != nil {
			return err
		}
		defer app.Shutdown(ctx)

		transport.Banner("stagehand " + version())
		transport.Note(fmt.Sprintf("chat %d ready. /start opens the counter, !N presses a button, /quit leaves.", chatID))
		repl := &console.REPL{Transport: transport, Dispatcher: app.Router, ChatID: chatID}
		if err := repl.Run(ctx, cmd.InOrStdin()); err != nil && !errors.Is(err, ctx.Err()) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Int64("chat-id", console.DefaultChatID, "Chat id used for every typed update")
}
