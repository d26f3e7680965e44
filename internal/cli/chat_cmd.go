package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/cli/formatter"
	"github.com/alexanderramin/dermaloop/internal/intelligence"
	"github.com/spf13/cobra"
)

func newChatCmd(a *App) *cobra.Command {
	var (
		showHistory bool
		clearLog    bool
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to your skincare coach",
		Long: `With a message, sends one turn and prints the reply. Without one,
reads messages line by line from stdin until EOF or /quit.
Inside the loop, /memory shows what the coach remembers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			switch {
			case clearLog:
				if err := a.Session.ClearChat(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, formatter.Dim("Conversation cleared. Memory kept."))
				return nil
			case showHistory:
				msgs, err := a.Session.History(ctx, intelligence.HistoryLimit)
				if err != nil {
					return err
				}
				if len(msgs) == 0 {
					fmt.Fprintln(out, formatter.Dim("No messages yet."))
				}
				for _, m := range msgs {
					fmt.Fprint(out, formatter.FormatChatMessage(m))
				}
				return nil
			case len(args) > 0:
				return chatTurn(ctx, cmd, a, strings.Join(args, " "))
			default:
				return chatLoop(ctx, cmd, a, cmd.InOrStdin())
			}
		},
	}

	cmd.Flags().BoolVar(&showHistory, "history", false, "Print the stored conversation")
	cmd.Flags().BoolVar(&clearLog, "clear", false, "Delete the stored conversation")

	return cmd
}

func chatTurn(ctx context.Context, cmd *cobra.Command, a *App, message string) error {
	stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Thinking...")
	res, err := a.Session.Chat(ctx, message)
	stop()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatChatMessage(res.Messages[len(res.Messages)-1]))
	if res.MemoryUpdate {
		fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("(noted)"))
	}
	return nil
}

func chatLoop(ctx context.Context, cmd *cobra.Command, a *App, in io.Reader) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(in)
	for {
		if !formatter.Plain() {
			fmt.Fprint(out, formatter.Dim("> "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/memory":
			fmt.Fprint(out, formatter.FormatMemory(a.Session.Memory()))
			continue
		}
		if err := chatTurn(ctx, cmd, a, line); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), formatter.Red("error: "+err.Error()))
		}
	}
}
