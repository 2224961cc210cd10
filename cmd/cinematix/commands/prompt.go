package commands

import (
	"fmt"
	"strings"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/spf13/cobra"
)

var promptFlags struct {
	duration int
	style    string
	aspect   string
	tool     string
	search   bool
	thinking bool
}

var promptCmd = &cobra.Command{
	Use:   "prompt <concept>",
	Short: "動画用のマスタープロンプトとシーン分割を生成する",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := domain.PromptRequest{
			Concept:         strings.Join(args, " "),
			DurationSeconds: promptFlags.duration,
			Style:           domain.StylePreset(promptFlags.style),
			AspectRatio:     promptFlags.aspect,
			Tool:            domain.ToolPreset(promptFlags.tool),
			UseSearch:       promptFlags.search,
			UseThinking:     promptFlags.thinking,
		}
		a, res, err := runOnce(cmd, request(req))
		if err != nil {
			return err
		}
		defer a.Close()

		bundle := res.(*domain.PromptBundle)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Master prompt:\n%s\n\n", bundle.MasterPrompt)
		fmt.Fprintf(out, "Breakdown (%.1fs):\n", bundle.TotalDuration())
		for i, seg := range bundle.Breakdown {
			fmt.Fprintf(out, "  %d. [%.1fs] %s | camera: %s | lighting: %s\n     %s\n",
				i+1, seg.DurationSeconds, seg.Type, seg.Camera, seg.Lighting, seg.Description)
		}
		fmt.Fprintf(out, "\n4C analysis:\n  Camera:    %s\n  Character: %s\n  Context:   %s\n  Cinematic: %s\n",
			bundle.Analysis.Camera, bundle.Analysis.Character, bundle.Analysis.Context, bundle.Analysis.Cinematic)
		return nil
	},
}

func init() {
	f := promptCmd.Flags()
	f.IntVar(&promptFlags.duration, "duration", 10, "動画の長さ（秒）")
	f.StringVar(&promptFlags.style, "style", string(domain.StyleCinematic), "スタイル (cinematic, anime, realistic, cyberpunk, noir)")
	f.StringVar(&promptFlags.aspect, "aspect", "16:9", "アスペクト比")
	f.StringVar(&promptFlags.tool, "tool", string(domain.ToolVeo), "出力先ツール (runway, pika, sora, veo)")
	f.BoolVar(&promptFlags.search, "search", false, "Google 検索でグラウンディングする")
	f.BoolVar(&promptFlags.thinking, "thinking", false, "拡張推論モデルを使う")
}
