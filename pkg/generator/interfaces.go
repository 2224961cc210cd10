package generator

import (
	"context"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"google.golang.org/genai"
)

// ContentGenerator は genai.Models のうち本パッケージが利用するメソッドだけを切り出したものです。
// *genai.Models がそのまま満たすため、テストでは偽のトランスポートに差し替えられます。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator は Orchestrator が利用するモダリティごとの窓口です。
type Generator interface {
	// GeneratePrompt は動画用のマスタープロンプト、シーン分割、4C 分析を生成します。
	GeneratePrompt(ctx context.Context, req domain.PromptRequest) (*domain.PromptBundle, error)
	// GenerateImage は静止画を1枚生成します。
	GenerateImage(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error)
	// EditImage は既存画像を指示に従って編集します。
	EditImage(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageAsset, error)
	// AnalyzeImage は画像の撮影批評などを自由記述で返します。
	AnalyzeImage(ctx context.Context, req domain.ImageAnalysisRequest) (string, error)
	// Transcribe は音声を文字起こしします。結果が空文字の場合もあります。
	Transcribe(ctx context.Context, req domain.TranscriptionRequest) (string, error)
	// SendMessage は会話履歴に続けてユーザーの発話を送信し、応答テキストを返します。
	SendMessage(ctx context.Context, history []domain.ChatMessage, req domain.ChatRequest) (string, error)
}

var _ Generator = Client{}
var _ ContentGenerator = (*genai.Models)(nil)
