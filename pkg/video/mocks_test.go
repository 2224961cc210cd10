package video

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// --- Mocks ---

// mockBackend は Refresh のたびに ops を先頭から1つずつ返すのだ。
type mockBackend struct {
	mu        sync.Mutex
	startOp   *genai.GenerateVideosOperation
	startErr  error
	ops       []*genai.GenerateVideosOperation
	refreshes int

	lastModel  string
	lastPrompt string
	lastImage  *genai.Image
	lastConfig *genai.GenerateVideosConfig
}

func (m *mockBackend) Start(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastModel, m.lastPrompt, m.lastImage, m.lastConfig = model, prompt, image, cfg
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.startOp, nil
}

func (m *mockBackend) Refresh(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
	if len(m.ops) == 0 {
		return &genai.GenerateVideosOperation{Name: op.Name}, nil
	}
	next := m.ops[0]
	if len(m.ops) > 1 {
		m.ops = m.ops[1:]
	}
	return next, nil
}

func (m *mockBackend) refreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

type mockFetcher struct {
	mu   sync.Mutex
	urls []string
	data []byte
	err  error
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, url)
	return m.data, m.err
}

func pendingOp(name string) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{Name: name}
}

func doneOp(name, uri string) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{
		Name: name,
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: uri}}},
		},
	}
}
