package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/live"
)

// --- Mocks ---

// mockGenerator は generator.Generator の偽実装なのだ。未設定のメソッドはゼロ値を返す。
type mockGenerator struct {
	promptFunc     func(ctx context.Context, req domain.PromptRequest) (*domain.PromptBundle, error)
	imageFunc      func(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error)
	transcribeFunc func(ctx context.Context, req domain.TranscriptionRequest) (string, error)
	chatFunc       func(ctx context.Context, history []domain.ChatMessage, req domain.ChatRequest) (string, error)
}

func (m *mockGenerator) GeneratePrompt(ctx context.Context, req domain.PromptRequest) (*domain.PromptBundle, error) {
	if m.promptFunc != nil {
		return m.promptFunc(ctx, req)
	}
	return &domain.PromptBundle{MasterPrompt: "prompt"}, nil
}

func (m *mockGenerator) GenerateImage(ctx context.Context, req domain.ImageRequest) (*domain.ImageAsset, error) {
	if m.imageFunc != nil {
		return m.imageFunc(ctx, req)
	}
	return &domain.ImageAsset{Data: []byte("img"), MimeType: "image/png"}, nil
}

func (m *mockGenerator) EditImage(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageAsset, error) {
	return &domain.ImageAsset{Data: []byte("edited"), MimeType: "image/png"}, nil
}

func (m *mockGenerator) AnalyzeImage(ctx context.Context, req domain.ImageAnalysisRequest) (string, error) {
	return "analysis", nil
}

func (m *mockGenerator) Transcribe(ctx context.Context, req domain.TranscriptionRequest) (string, error) {
	if m.transcribeFunc != nil {
		return m.transcribeFunc(ctx, req)
	}
	return "transcript", nil
}

func (m *mockGenerator) SendMessage(ctx context.Context, history []domain.ChatMessage, req domain.ChatRequest) (string, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, history, req)
	}
	return "reply", nil
}

type mockVideo struct {
	generateFunc func(ctx context.Context, req domain.VideoRequest) (*domain.VideoAsset, error)
}

func (m *mockVideo) Generate(ctx context.Context, req domain.VideoRequest) (*domain.VideoAsset, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &domain.VideoAsset{ID: "op-1", Path: "videos/op-1.mp4"}, nil
}

type mockCredentials struct {
	mu        sync.Mutex
	capable   bool
	reselects int
}

func (m *mockCredentials) HasCapability(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capable, nil
}

func (m *mockCredentials) Reselect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reselects++
	return nil
}

func (m *mockCredentials) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reselects
}

// recordingNotifier は通知を記録するのだ。
type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// --- live ---

type recvResult struct {
	msg *live.ServerMessage
	err error
}

type mockTransport struct {
	inbox     chan recvResult
	closed    chan struct{}
	closeOnce sync.Once
}

func newMockTransport() *mockTransport {
	return &mockTransport{inbox: make(chan recvResult, 8), closed: make(chan struct{})}
}

func (m *mockTransport) SendAudio(context.Context, []byte, string) error { return nil }

func (m *mockTransport) Receive(ctx context.Context) (*live.ServerMessage, error) {
	select {
	case r := <-m.inbox:
		return r.msg, r.err
	case <-m.closed:
		return nil, live.ErrRemoteClosed
	}
}

func (m *mockTransport) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

type mockDialer struct {
	transport *mockTransport
	err       error
}

func (d *mockDialer) Dial(ctx context.Context) (live.Transport, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.transport, nil
}

type nopOutput struct{}

func (nopOutput) Now() time.Duration                     { return 0 }
func (nopOutput) Play(*live.Buffer, time.Duration) error { return nil }
func (nopOutput) Close() error                           { return nil }
