package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shouni/cinematix-kit/pkg/history"
	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "最近生成したプロンプトを新しい順に表示する",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		kv, err := openKV(cfg.History)
		if err != nil {
			return err
		}
		defer kv.Close()

		recent, err := history.Open(cmd.Context(), kv)
		if err != nil {
			return err
		}
		records := recent.List()

		out := cmd.OutOrStdout()
		if historyJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "履歴はありません")
			return nil
		}
		for _, r := range records {
			created := time.UnixMilli(r.CreatedAt).Format(time.DateTime)
			fmt.Fprintf(out, "%s  %s  %ds %s %s  %s\n    %s\n",
				created, r.ID, r.Duration, r.Style, r.Tool, r.Concept, r.GeneratedPrompt)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "JSON で出力する")
}
