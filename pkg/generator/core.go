package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// Client は Gemini API へのモダリティごとの呼び出しをまとめた値型クライアントです。
// 可変状態を持たないため、コピーして複数の goroutine から同時に使えます。
// 内部でのリトライは行いません。
type Client struct {
	api            ContentGenerator
	models         Models
	thinkingBudget int32
	jpegQuality    int
}

// Option は Client の生成オプションです。
type Option func(*Client)

// WithModels は使用するモデル構成を上書きします。空のフィールドは既定値のままです。
func WithModels(m Models) Option {
	return func(c *Client) { c.models = m.WithDefaults() }
}

// WithThinkingBudget は拡張推論時の思考トークン上限を設定します。
func WithThinkingBudget(budget int32) Option {
	return func(c *Client) {
		if budget > 0 {
			c.thinkingBudget = budget
		}
	}
}

// WithImageCompression は入力画像を指定品質の JPEG に再圧縮して送信するようにします。
// 0 を指定すると圧縮しません。
func WithImageCompression(quality int) Option {
	return func(c *Client) { c.jpegQuality = quality }
}

// NewClient は依存関係を注入して Client を初期化します。
func NewClient(api ContentGenerator, opts ...Option) (Client, error) {
	if api == nil {
		return Client{}, fmt.Errorf("api (ContentGenerator) is required")
	}
	c := Client{
		api:            api,
		models:         DefaultModels(),
		thinkingBudget: DefaultThinkingBudget,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c, nil
}

// execute は1回のリモート呼び出しを行い、失敗を RemoteError に分類して返します。
func (c Client) execute(ctx context.Context, op, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	slog.DebugContext(ctx, "Geminiにリクエストを送信します", "operation", op, "model", model)

	resp, err := c.api.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		classified := Classify(err)
		slog.WarnContext(ctx, "Gemini呼び出しに失敗しました",
			"operation", op, "model", model, "elapsed", time.Since(start), "error", classified)
		return nil, classified
	}

	slog.InfoContext(ctx, "Gemini呼び出しが完了しました", "operation", op, "model", model, "elapsed", time.Since(start))
	return resp, nil
}

// thinkingConfig は拡張推論用の設定を返します。
func (c Client) thinkingConfig() *genai.ThinkingConfig {
	return &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(c.thinkingBudget)}
}

func userContent(parts ...*genai.Part) []*genai.Content {
	return []*genai.Content{{Role: "user", Parts: parts}}
}
