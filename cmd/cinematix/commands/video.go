package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/storage"
	"github.com/spf13/cobra"
)

var videoFlags struct {
	aspect string
	image  string
}

var videoCmd = &cobra.Command{
	Use:   "video <prompt>",
	Short: "動画を生成し、完了まで待って保存する",
	Long: `動画生成を開始し、完了するまで一定間隔で状態を確認します。
完成した動画は保存先の videos/ 配下に書き出されます。-o を指定するとローカルにも複製します。`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, res, err := runOnce(cmd, func(a *app) (domain.Request, error) {
			ref, err := a.images.Load(cmd.Context(), videoFlags.image)
			if err != nil {
				return nil, err
			}
			return domain.VideoRequest{
				Prompt:         strings.Join(args, " "),
				AspectRatio:    videoFlags.aspect,
				ReferenceImage: ref,
			}, nil
		})
		if err != nil {
			return err
		}
		defer a.Close()

		asset := res.(*domain.VideoAsset)
		if outputFile != "" {
			data, err := storage.Get(cmd.Context(), a.store, asset.Path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return fmt.Errorf("動画の書き込みに失敗しました: %w", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes, %s)\n", asset.Path, asset.Size, asset.MimeType)
		return nil
	},
}

func init() {
	f := videoCmd.Flags()
	f.StringVar(&videoFlags.aspect, "aspect", "16:9", "アスペクト比 (16:9 または 9:16)")
	f.StringVar(&videoFlags.image, "image", "", "開始フレームとして使う参照画像（ファイルまたは URL）")
}
