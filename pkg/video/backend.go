// Package video は Veo による動画レンダリングの長時間オペレーションを扱います。
package video

import (
	"context"
	"fmt"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"
)

// Backend は動画生成オペレーションの開始と状態取得を行うリモート API です。
type Backend interface {
	Start(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	Refresh(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

// Fetcher は完成した動画をメディアロケータからダウンロードします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

var _ Fetcher = httpkit.ClientInterface(nil)

// GenAIBackend は genai.Client を使う Backend 実装です。
type GenAIBackend struct {
	Client *genai.Client
}

// NewGenAIBackend は GenAIBackend を作成します。
func NewGenAIBackend(client *genai.Client) (*GenAIBackend, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is required")
	}
	return &GenAIBackend{Client: client}, nil
}

func (b *GenAIBackend) Start(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return b.Client.Models.GenerateVideos(ctx, model, prompt, image, cfg)
}

func (b *GenAIBackend) Refresh(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return b.Client.Operations.GetVideosOperation(ctx, op, nil)
}
