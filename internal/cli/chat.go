package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/slideboard/internal/chat"
	"github.com/roach88/slideboard/internal/config"
	"github.com/roach88/slideboard/internal/logger"
)

func newChatClient(cfg config.Config) *chat.Client {
	return chat.New(cfg.Chat.Endpoint, cfg.Chat.Model, cfg.Chat.APIKey,
		chat.WithReferer(cfg.Chat.Referer),
		chat.WithTitle(cfg.Chat.Title),
		chat.WithLogger(logger.For(logger.New(cfg.LogLevel, cfg.LogFormat), logger.ComponentChat)))
}

// NewChatCommand creates the chat command.
func NewChatCommand(opts *RootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the study assistant",
		Long: `Ask the study assistant.

With a question, the answer is streamed and the command exits. Without one,
questions are read line by line from stdin until EOF; /clear forgets the
conversation. The API key comes from the config file or OPENROUTER_API_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			client := newChatClient(cfg)
			if !client.HasKey() {
				return NewExitError(ExitCommandError, "no chat API key configured")
			}

			if check {
				ok := client.ValidateKey(cmd.Context())
				err := newFormatter(cmd, opts).Result(map[string]any{"valid": ok, "model": client.Model()}, func(w io.Writer) {
					if ok {
						fmt.Fprintf(w, "API key accepted (%s)\n", client.Model())
					} else {
						fmt.Fprintln(w, "API key rejected")
					}
				})
				if err == nil && !ok {
					err = NewExitError(ExitFailure, "API key rejected")
				}
				return err
			}

			session := chat.NewSession(client)
			out := cmd.OutOrStdout()
			ask := func(q string) error {
				_, err := session.Send(cmd.Context(), q, func(s string) { io.WriteString(out, s) })
				fmt.Fprintln(out)
				return err
			}

			if len(args) > 0 {
				return ask(strings.Join(args, " "))
			}

			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				switch line {
				case "":
					continue
				case "/clear":
					session.Clear()
					fmt.Fprintln(out, "(conversation cleared)")
					continue
				}
				if err := ask(line); err != nil {
					return err
				}
			}
			return sc.Err()
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "only check that the API key is accepted")
	return cmd
}
