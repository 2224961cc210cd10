package commands

import (
	"fmt"
	"strings"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/spf13/cobra"
)

var imageFlags struct {
	aspect string
	size   string
}

var imageCmd = &cobra.Command{
	Use:   "image <prompt>",
	Short: "静止画を生成する",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := domain.ImageRequest{
			Prompt:      strings.Join(args, " "),
			AspectRatio: imageFlags.aspect,
			Size:        domain.ImageSize(imageFlags.size),
		}
		a, res, err := runOnce(cmd, request(req))
		if err != nil {
			return err
		}
		defer a.Close()

		loc, err := saveImage(cmd.Context(), a, res.(*domain.ImageAsset))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), loc)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <image-file|url> <instruction>",
	Short: "既存画像を指示に従って編集する",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, res, err := runOnce(cmd, func(a *app) (domain.Request, error) {
			encoded, err := a.images.Load(cmd.Context(), args[0])
			if err != nil {
				return nil, err
			}
			return domain.ImageEditRequest{Image: encoded, Instruction: strings.Join(args[1:], " ")}, nil
		})
		if err != nil {
			return err
		}
		defer a.Close()

		loc, err := saveImage(cmd.Context(), a, res.(*domain.ImageAsset))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), loc)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image-file|url> [instruction]",
	Short: "画像を撮影・照明・構図の観点で分析する",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, res, err := runOnce(cmd, func(a *app) (domain.Request, error) {
			encoded, err := a.images.Load(cmd.Context(), args[0])
			if err != nil {
				return nil, err
			}
			return domain.ImageAnalysisRequest{Image: encoded, Instruction: strings.Join(args[1:], " ")}, nil
		})
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), res.(domain.AnalysisText))
		return nil
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <wav-file>",
	Short: "WAV 音声を文字起こしする",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encoded, err := readBase64File(args[0])
		if err != nil {
			return err
		}
		a, res, err := runOnce(cmd, request(domain.TranscriptionRequest{Audio: encoded}))
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), res.(domain.TranscriptText))
		return nil
	},
}

func init() {
	f := imageCmd.Flags()
	f.StringVar(&imageFlags.aspect, "aspect", "16:9", "アスペクト比 (1:1, 16:9, 9:16, 4:3, 3:4)")
	f.StringVar(&imageFlags.size, "size", string(domain.ImageSize1K), "解像度 (1K, 2K, 4K)")
}
