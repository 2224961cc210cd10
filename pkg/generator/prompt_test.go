package generator

import (
	"context"
	"testing"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const dropletBundle = `{
  "masterPrompt": "Macro shot of a single water droplet striking a scorching cast-iron pan, dancing on a cushion of vapor.",
  "breakdown": [
    {"duration": 3, "type": "establishing", "camera": "static macro", "lighting": "warm rim light", "description": "The pan glows with heat."},
    {"duration": 4.5, "type": "action", "camera": "slow push-in", "lighting": "hard key", "description": "The droplet lands and skitters."},
    {"duration": 2.5, "type": "resolution", "camera": "rack focus", "lighting": "fading", "description": "Steam curls upward."}
  ],
  "analysis": {
    "camera": "Macro lens, 1000fps.",
    "character": "The droplet.",
    "context": "Home kitchen.",
    "cinematic": "Leidenfrost effect rendered in slow motion."
  },
  "extra": "ignored"
}`

func dropletRequest() domain.PromptRequest {
	return domain.PromptRequest{
		Concept:         "a droplet hitting a hot pan",
		DurationSeconds: 10,
		Style:           domain.StyleCinematic,
		AspectRatio:     "16:9",
		Tool:            domain.ToolVeo,
	}
}

func TestClient_GeneratePrompt(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 構造化された応答をバンドルに変換するのだ", func(t *testing.T) {
		m := &mockModels{
			generateFunc: func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(dropletBundle), nil
			},
		}
		c := newTestClient(t, m)

		bundle, err := c.GeneratePrompt(ctx, dropletRequest())

		require.NoError(t, err)
		assert.NotEmpty(t, bundle.MasterPrompt)
		assert.Len(t, bundle.Breakdown, 3)
		assert.InDelta(t, 10.0, bundle.TotalDuration(), 0.5)
		assert.Equal(t, "The droplet.", bundle.Analysis.Character)

		call := m.lastCall()
		assert.Equal(t, DefaultModels().Prompt, call.model)
		assert.Equal(t, "application/json", call.config.ResponseMIMEType)
		assert.NotNil(t, call.config.ResponseSchema)
		assert.Empty(t, call.config.Tools)
		assert.Nil(t, call.config.ThinkingConfig)

		prompt := call.contents[0].Parts[0].Text
		assert.Contains(t, prompt, "a droplet hitting a hot pan")
		assert.Contains(t, prompt, "4C Model")
	})

	t.Run("検索と思考モードを有効にした場合", func(t *testing.T) {
		m := &mockModels{
			generateFunc: func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(dropletBundle), nil
			},
		}
		c := newTestClient(t, m, WithThinkingBudget(1024))
		req := dropletRequest()
		req.UseSearch = true
		req.UseThinking = true

		_, err := c.GeneratePrompt(ctx, req)

		require.NoError(t, err)
		call := m.lastCall()
		assert.Equal(t, DefaultModels().PromptThinking, call.model)
		require.Len(t, call.config.Tools, 1)
		assert.NotNil(t, call.config.Tools[0].GoogleSearch)
		require.NotNil(t, call.config.ThinkingConfig)
		assert.Equal(t, int32(1024), *call.config.ThinkingConfig.ThinkingBudget)
	})

	t.Run("異常系: 空のコンセプトは送信前に拒否される", func(t *testing.T) {
		m := &mockModels{}
		c := newTestClient(t, m)
		req := dropletRequest()
		req.Concept = "  "

		_, err := c.GeneratePrompt(ctx, req)

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, m.calls)
	})

	t.Run("異常系: JSON ではない応答は Malformed", func(t *testing.T) {
		m := &mockModels{
			generateFunc: func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("Sure! Here is your prompt: ..."), nil
			},
		}
		c := newTestClient(t, m)

		_, err := c.GeneratePrompt(ctx, dropletRequest())

		assert.Equal(t, domain.KindMalformed, domain.KindOf(err))
	})
}

func TestParsePromptBundle(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"analysis が欠けている", `{"masterPrompt":"x","breakdown":[{"duration":1,"type":"a","camera":"b","lighting":"c","description":"d"}]}`},
		{"analysis のフィールドが欠けている", `{"masterPrompt":"x","breakdown":[],"analysis":{"camera":"a","character":"b","context":"c"}}`},
		{"duration が文字列", `{"masterPrompt":"x","breakdown":[{"duration":"3s","type":"a","camera":"b","lighting":"c","description":"d"}],"analysis":{"camera":"a","character":"b","context":"c","cinematic":"d"}}`},
		{"duration が 0", `{"masterPrompt":"x","breakdown":[{"duration":0,"type":"a","camera":"b","lighting":"c","description":"d"}],"analysis":{"camera":"a","character":"b","context":"c","cinematic":"d"}}`},
		{"masterPrompt が空", `{"masterPrompt":"","breakdown":[],"analysis":{"camera":"a","character":"b","context":"c","cinematic":"d"}}`},
		{"途中で切れた JSON", `{"masterPrompt":"x","breakdown":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePromptBundle(tt.in)
			require.Error(t, err)
			assert.Equal(t, domain.KindMalformed, domain.KindOf(err))
		})
	}
}

func TestToolGuidance(t *testing.T) {
	assert.Contains(t, toolGuidance(domain.ToolSora), "4C Model")
	assert.Contains(t, toolGuidance(domain.ToolVeo), "4C Model")
	assert.Contains(t, toolGuidance(domain.ToolRunway), "camera: [motion]")
	assert.Empty(t, toolGuidance(domain.ToolPika))
}
