package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/shouni/cinematix-kit/pkg/domain"
	"google.golang.org/genai"
)

// bundleValidator は PromptBundle の JSON Schema を1度だけ解決します。
var bundleValidator = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	s, err := jsonschema.For[domain.PromptBundle](nil)
	if err != nil {
		return nil, err
	}
	allowAdditional(s)
	return s.Resolve(nil)
})

// allowAdditional はモデルが余分なフィールドを付けても検証に通るよう制約を外します。
func allowAdditional(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	s.AdditionalProperties = nil
	for _, p := range s.Properties {
		allowAdditional(p)
	}
	allowAdditional(s.Items)
}

// promptResponseSchema は Gemini に渡す構造化出力のスキーマです。
func promptResponseSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"masterPrompt": str(),
			"breakdown": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"duration":    {Type: genai.TypeNumber},
						"type":        str(),
						"camera":      str(),
						"lighting":    str(),
						"description": str(),
					},
					Required: []string{"duration", "type", "camera", "lighting", "description"},
				},
			},
			"analysis": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"camera":    str(),
					"character": str(),
					"context":   str(),
					"cinematic": str(),
				},
				Required: []string{"camera", "character", "context", "cinematic"},
			},
		},
		Required: []string{"masterPrompt", "breakdown", "analysis"},
	}
}

// GeneratePrompt は動画用プロンプトを構造化 JSON として生成し、形を検証して返します。
func (c Client) GeneratePrompt(ctx context.Context, req domain.PromptRequest) (*domain.PromptBundle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   promptResponseSchema(),
	}
	if req.UseSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	model := c.models.Prompt
	if req.UseThinking {
		cfg.ThinkingConfig = c.thinkingConfig()
		model = c.models.PromptThinking
	}

	resp, err := c.execute(ctx, "prompt", model, userContent(genai.NewPartFromText(directorPrompt(req))), cfg)
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成エラー: %w", err)
	}
	return ParsePromptBundle(responseText(resp))
}

// ParsePromptBundle はモデルの JSON 出力を検証して PromptBundle に変換します。
// 形が期待と異なる場合は KindMalformed の RemoteError を返します。
func ParsePromptBundle(text string) (*domain.PromptBundle, error) {
	malformed := func(msg string, err error) error {
		return domain.NewRemoteError(domain.KindMalformed, msg, err)
	}

	var raw any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, malformed("プロンプト応答がJSONではありません", err)
	}
	validator, err := bundleValidator()
	if err != nil {
		return nil, fmt.Errorf("schema初期化失敗: %w", err)
	}
	if err := validator.Validate(raw); err != nil {
		return nil, malformed("プロンプト応答がスキーマに一致しません", err)
	}

	var bundle domain.PromptBundle
	if err := json.Unmarshal([]byte(text), &bundle); err != nil {
		return nil, malformed("プロンプト応答のデコードに失敗しました", err)
	}
	if strings.TrimSpace(bundle.MasterPrompt) == "" {
		return nil, malformed("masterPrompt が空です", nil)
	}
	for i, seg := range bundle.Breakdown {
		if seg.DurationSeconds <= 0 {
			return nil, malformed(fmt.Sprintf("breakdown[%d] の duration が正の値ではありません: %v", i, seg.DurationSeconds), nil)
		}
	}
	return &bundle, nil
}
