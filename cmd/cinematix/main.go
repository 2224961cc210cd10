// Package main は Cinematix の CLI です。
//
// 使い方:
//
//	cinematix [flags] <command> [args]
//
// コマンド:
//
//	prompt      動画用プロンプトの生成
//	image       静止画の生成
//	edit        既存画像の編集
//	analyze     画像の分析
//	transcribe  音声の文字起こし
//	chat        対話チャット
//	video       動画の生成
//	live        リアルタイム音声セッション
//	history     プロンプト履歴の表示
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/shouni/cinematix-kit/cmd/cinematix/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		if !errors.Is(err, commands.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
