package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/cinematix-kit/pkg/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	outputFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "cinematix",
	Short: "Gemini を使った映像制作アシスタント",
	Long: `Cinematix は動画プロンプト、静止画、動画、文字起こし、チャット、
リアルタイム音声の各生成機能を1つのセッションとして扱う CLI です。

設定は ~/.cinematix/config.yaml と環境変数 (GEMINI_API_KEY, CINEMATIX_*) から読み込みます。

Examples:
  cinematix prompt "a water droplet hitting a hot pan" --duration 10 --tool veo
  cinematix image "neon alley in the rain" --aspect 9:16 --size 2K -o alley.png
  cinematix video "slow dolly through a foggy forest" --image frame.png
  cinematix live < mic.pcm`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute はルートコマンドを実行します。SIGINT/SIGTERM でコンテキストがキャンセルされます。
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "設定ファイル (既定: ~/.cinematix/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "出力ファイル (画像・動画)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力する")

	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
