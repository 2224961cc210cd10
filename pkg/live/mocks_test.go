package live

import (
	"context"
	"errors"
	"sync"
	"time"
)

// --- Mocks ---

type recvResult struct {
	msg *ServerMessage
	err error
}

// mockTransport は inbox に積まれたメッセージを順に返すのだ。
type mockTransport struct {
	inbox     chan recvResult
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	sent    [][]byte
	mimes   []string
	sendErr error
	closes  int
}

func newMockTransport() *mockTransport {
	return &mockTransport{inbox: make(chan recvResult, 16), closed: make(chan struct{})}
}

func (m *mockTransport) SendAudio(_ context.Context, pcm []byte, mimeType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, pcm)
	m.mimes = append(m.mimes, mimeType)
	return nil
}

func (m *mockTransport) Receive(ctx context.Context) (*ServerMessage, error) {
	select {
	case r := <-m.inbox:
		return r.msg, r.err
	case <-m.closed:
		return nil, errors.New("use of closed network connection")
	}
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockTransport) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

type mockDialer struct {
	transport *mockTransport
	err       error
	dials     int
}

func (d *mockDialer) Dial(ctx context.Context) (Transport, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.transport, nil
}

// gatedDialer は release に結果が届くまで Dial を止めるのだ。
type gatedDialer struct {
	started   chan struct{}
	release   chan error
	transport *mockTransport
}

func newGatedDialer(tr *mockTransport) *gatedDialer {
	return &gatedDialer{started: make(chan struct{}), release: make(chan error, 1), transport: tr}
}

func (d *gatedDialer) Dial(ctx context.Context) (Transport, error) {
	close(d.started)
	if err := <-d.release; err != nil {
		return nil, err
	}
	return d.transport, nil
}

// fakeOutput は時計を固定し、再生要求を記録するのだ。
type fakeOutput struct {
	mu     sync.Mutex
	now    time.Duration
	plays  []ScheduledChunk
	closes int
}

func (o *fakeOutput) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

func (o *fakeOutput) Play(buf *Buffer, at time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.plays = append(o.plays, ScheduledChunk{Start: at, Duration: buf.Duration})
	return nil
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closes++
	return nil
}

func (o *fakeOutput) closeCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closes
}

// pcmOf は d の長さの 24kHz 無音 PCM を返すのだ。
func pcmOf(d time.Duration) []byte {
	return make([]byte, PlaybackFormat.Bytes(d))
}

// drain はチャネルが閉じるまでイベントを集めるのだ。
func drain(t interface{ Fatalf(string, ...any) }, ch <-chan Event) []Event {
	var out []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("イベントチャネルが閉じられなかったのだ")
			return out
		}
	}
}
