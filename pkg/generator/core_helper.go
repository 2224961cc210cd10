package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/imgutil"
	"github.com/shouni/cinematix-kit/pkg/utils"
	"google.golang.org/genai"
)

// toImagePart は base64（data URL 可）の画像を genai.Part (InlineData) に変換します。
func (c Client) toImagePart(encoded string) (*genai.Part, error) {
	data, err := utils.DecodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	finalData, mimeType, err := imgutil.PrepareReference(data, c.jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: finalData}}, nil
}

// parseImage は Gemini のレスポンスから最初の画像パーツを取り出します。
func parseImage(resp *genai.GenerateContentResponse) (*domain.ImageAsset, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, domain.NewRemoteError(domain.KindUnknown, "Geminiからの有効な応答がありませんでした", nil)
	}

	// 最初の候補 (Candidate) のみを利用する
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.ImageAsset{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	switch candidate.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
	default:
		return nil, domain.NewRemoteError(domain.KindUnknown,
			fmt.Sprintf("画像生成が異常終了しました (FinishReason: %s)", candidate.FinishReason), nil)
	}
	return nil, domain.NewRemoteError(domain.KindUnknown, "画像データが見つかりませんでした", nil)
}

// responseText は最初の候補のテキストパーツを連結して返します。思考パーツは除外します。
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Thought || p.Text == "" {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
