package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"google.golang.org/genai"
)

// GenerateImage はプロンプトから静止画を1枚生成します。
// サポート外のアスペクト比は 16:9 に丸めてから送信します。
func (c Client) GenerateImage(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ratio := domain.CoerceImageAspectRatio(req.AspectRatio)
	if ratio != req.AspectRatio {
		slog.InfoContext(ctx, "サポート外のアスペクト比を補正しました", "requested", req.AspectRatio, "used", ratio)
	}
	size := req.Size
	if size == "" {
		size = domain.ImageSize1K
	}

	cfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: ratio,
			ImageSize:   string(size),
		},
	}
	resp, err := c.execute(ctx, "image", c.models.Image, userContent(genai.NewPartFromText(req.Prompt)), cfg)
	if err != nil {
		return nil, fmt.Errorf("画像生成エラー: %w", err)
	}
	return parseImage(resp)
}

// EditImage は既存画像と編集指示を送り、編集後の画像を返します。
func (c Client) EditImage(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageAsset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	imgPart, err := c.toImagePart(req.Image)
	if err != nil {
		return nil, err
	}
	resp, err := c.execute(ctx, "image_edit", c.models.ImageEdit, userContent(imgPart, genai.NewPartFromText(req.Instruction)), nil)
	if err != nil {
		return nil, fmt.Errorf("画像編集エラー: %w", err)
	}
	return parseImage(resp)
}
