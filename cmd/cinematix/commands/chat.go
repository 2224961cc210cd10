package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/spf13/cobra"
)

var chatThinking bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "対話チャットを開始する（/exit で終了）",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/exit" {
				break
			}

			res, err := a.submit(cmd.Context(), domain.ChatRequest{Text: line, UseThinking: chatThinking})
			if err != nil {
				if cmd.Context().Err() != nil {
					return nil
				}
				if !errors.Is(err, ErrReported) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
				continue
			}
			fmt.Fprintln(out, res.(domain.ChatReply))
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatThinking, "thinking", false, "拡張推論モデルを使う")
}
