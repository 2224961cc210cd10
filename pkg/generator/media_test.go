package generator

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestClient_AnalyzeImage(t *testing.T) {
	ctx := context.Background()
	encoded := base64.StdEncoding.EncodeToString(pngSignature)

	t.Run("指示が空なら既定の分析指示を使うのだ", func(t *testing.T) {
		m := &mockModels{
			generateFunc: func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("Low-key lighting, anamorphic lens."), nil
			},
		}
		c := newTestClient(t, m)

		text, err := c.AnalyzeImage(ctx, domain.ImageAnalysisRequest{Image: encoded})

		require.NoError(t, err)
		assert.Equal(t, "Low-key lighting, anamorphic lens.", text)
		call := m.lastCall()
		assert.Equal(t, DefaultModels().Analysis, call.model)
		assert.Equal(t, DefaultAnalysisInstruction, call.contents[0].Parts[1].Text)
	})

	t.Run("テキストが無ければ NoAnalysisText を返す", func(t *testing.T) {
		m := &mockModels{
			generateFunc: func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(""), nil
			},
		}
		c := newTestClient(t, m)

		text, err := c.AnalyzeImage(ctx, domain.ImageAnalysisRequest{Image: encoded, Instruction: "describe"})

		require.NoError(t, err)
		assert.Equal(t, NoAnalysisText, text)
	})
}

func TestClient_Transcribe(t *testing.T) {
	ctx := context.Background()
	wav := base64.StdEncoding.EncodeToString([]byte("RIFF\x24\x00\x00\x00WAVEfmt "))

	t.Run("正常系: WAV として送信する", func(t *testing.T) {
		m := &mockModels{
			generateFunc: func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("a lone samurai at dawn"), nil
			},
		}
		c := newTestClient(t, m)

		text, err := c.Transcribe(ctx, domain.TranscriptionRequest{Audio: wav})

		require.NoError(t, err)
		assert.Equal(t, "a lone samurai at dawn", text)
		part := m.lastCall().contents[0].Parts[0]
		require.NotNil(t, part.InlineData)
		assert.Equal(t, "audio/wav", part.InlineData.MIMEType)
	})

	t.Run("無音でもエラーにはならず空文字を返す", func(t *testing.T) {
		m := &mockModels{
			generateFunc: func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{}, nil
			},
		}
		c := newTestClient(t, m)

		text, err := c.Transcribe(ctx, domain.TranscriptionRequest{Audio: wav})

		require.NoError(t, err)
		assert.Empty(t, text)
	})
}

func TestClient_SendMessage(t *testing.T) {
	ctx := context.Background()
	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Text: "Suggest a noir opening."},
		{Role: domain.RoleModel, Text: "Rain on a neon sign."},
	}

	t.Run("履歴を文脈として送り、最後にユーザー発話を付ける", func(t *testing.T) {
		m := &mockModels{
			generateFunc: func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("Add a slow dolly-in."), nil
			},
		}
		c := newTestClient(t, m)

		reply, err := c.SendMessage(ctx, history, domain.ChatRequest{Text: "What camera move?"})

		require.NoError(t, err)
		assert.Equal(t, "Add a slow dolly-in.", reply)

		call := m.lastCall()
		assert.Equal(t, DefaultModels().Chat, call.model)
		assert.Nil(t, call.config)
		require.Len(t, call.contents, 3)
		assert.Equal(t, "user", call.contents[0].Role)
		assert.Equal(t, "model", call.contents[1].Role)
		assert.Equal(t, "user", call.contents[2].Role)
		assert.Equal(t, "What camera move?", call.contents[2].Parts[0].Text)
	})

	t.Run("思考モードでは上位モデルと思考設定を使う", func(t *testing.T) {
		m := &mockModels{}
		c := newTestClient(t, m)

		_, err := c.SendMessage(ctx, nil, domain.ChatRequest{Text: "Why?", UseThinking: true})

		require.NoError(t, err)
		call := m.lastCall()
		assert.Equal(t, DefaultModels().ChatThinking, call.model)
		require.NotNil(t, call.config)
		assert.Equal(t, int32(DefaultThinkingBudget), *call.config.ThinkingConfig.ThinkingBudget)
	})
}
