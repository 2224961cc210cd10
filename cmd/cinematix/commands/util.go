package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/imgutil"
	"github.com/shouni/cinematix-kit/pkg/storage"
	"github.com/spf13/cobra"
)

// runOnce は設定を読み込んで app を作り、build が組み立てた1件のリクエストを実行します。
func runOnce(cmd *cobra.Command, build func(a *app) (domain.Request, error)) (*app, domain.Result, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	req, err := build(a)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	res, err := a.submit(cmd.Context(), req)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, res, nil
}

// readBase64File はファイルを読み込み base64 文字列にします。
func readBase64File(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("ファイルの読み込みに失敗しました: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// saveImage は画像を -o のファイル、または保存先の images/ 配下に書き出して場所を返します。
func saveImage(ctx context.Context, a *app, img *domain.ImageAsset) (string, error) {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, img.Data, 0o644); err != nil {
			return "", fmt.Errorf("画像の書き込みに失敗しました: %w", err)
		}
		return outputFile, nil
	}
	name := path.Join("images", uuid.NewString()+imageExt(img))
	if err := storage.Put(ctx, a.store, name, img.Data); err != nil {
		return "", err
	}
	return name, nil
}

func imageExt(img *domain.ImageAsset) string {
	mime := img.MimeType
	if mime == "" {
		mime, _ = imgutil.DetectImageMIME(img.Data)
	}
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ".png"
}

// request は組み立て済みのリクエストをそのまま返す build 関数です。
func request(req domain.Request) func(*app) (domain.Request, error) {
	return func(*app) (domain.Request, error) { return req, nil }
}
