package generator

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// --- Mocks ---

// generateCall は mockModels に渡された1回分の引数なのだ。
type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// mockModels は ContentGenerator の偽トランスポートなのだ。
type mockModels struct {
	mu           sync.Mutex
	calls        []generateCall
	generateFunc func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, generateCall{model: model, contents: contents, config: config})
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(model, contents, config)
	}
	return textResponse(""), nil
}

func (m *mockModels) lastCall() generateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return generateCall{}
	}
	return m.calls[len(m.calls)-1]
}

// textResponse はテキスト1パーツだけのレスポンスを作るヘルパーなのだ。
func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

// imageResponse は画像1パーツだけのレスポンスを作るヘルパーなのだ。
func imageResponse(data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png", Data: data}}},
			},
		}},
	}
}

// PNG シグネチャ付きのダミーバイナリ
var pngSignature = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

func newTestClient(t interface{ Fatalf(string, ...any) }, m *mockModels, opts ...Option) Client {
	c, err := NewClient(m, opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}
