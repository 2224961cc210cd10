package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/metrics"
)

var (
	// ErrAlreadyActive は接続中または接続済みのセッションに Connect した場合のエラーです。
	ErrAlreadyActive = errors.New("live: session already active")
	// ErrClosed は閉じたセッションを再利用しようとした場合のエラーです。
	ErrClosed = errors.New("live: session closed")
	// ErrNotOpen は Open でないセッションに音声を送ろうとした場合のエラーです。
	ErrNotOpen = errors.New("live: session not open")
)

const defaultEventBuffer = 128

// EventType はセッションイベントの種類です。
type EventType int

const (
	EventState EventType = iota
	EventAudio
	EventTranscript
	EventText
	EventTurnComplete
	EventInterrupted
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventState:
		return "state"
	case EventAudio:
		return "audio"
	case EventTranscript:
		return "transcript"
	case EventText:
		return "text"
	case EventTurnComplete:
		return "turn_complete"
	case EventInterrupted:
		return "interrupted"
	case EventError:
		return "error"
	}
	return "unknown"
}

// ScheduledChunk は再生スケジュールに載った音声チャンクです。
type ScheduledChunk struct {
	Start    time.Duration
	Duration time.Duration
}

// End はチャンクの再生終了時刻です。
func (c ScheduledChunk) End() time.Duration { return c.Start + c.Duration }

// Event はセッションから通知されるイベントです。Type に応じたフィールドだけが意味を持ちます。
type Event struct {
	Type  EventType
	State domain.LiveState
	Chunk ScheduledChunk
	Role  domain.Role // EventTranscript: user は入力音声、model は出力音声
	Text  string
	Err   error
}

// Session は1回限りのリアルタイム音声セッションです。
// Idle -> Connecting -> Open -> Closing -> Closed の順にのみ遷移し、Closed になると Events は閉じられます。
type Session struct {
	dialer    Dialer
	newOutput func() (Output, error)
	metrics   *metrics.Metrics
	events    chan Event
	loopDone  chan struct{}

	mu        sync.Mutex
	state     domain.LiveState
	transport Transport
	output    Output
	sched     Scheduler
	cancel    context.CancelFunc
	err       error
	opened    bool

	teardownOnce sync.Once
}

// Option は Session の生成オプションです。
type Option func(*Session)

// WithEventBuffer はイベントチャネルのバッファ長を設定します。
func WithEventBuffer(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.events = make(chan Event, n)
		}
	}
}

// WithMetrics は計測先を設定します。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New は未接続のセッションを作成します。newOutput は Connect のたびではなく1度だけ呼ばれます。
func New(dialer Dialer, newOutput func() (Output, error), opts ...Option) (*Session, error) {
	if dialer == nil || newOutput == nil {
		return nil, fmt.Errorf("dialer and output factory are required")
	}
	s := &Session{
		dialer:    dialer,
		newOutput: newOutput,
		events:    make(chan Event, defaultEventBuffer),
		loopDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Events はセッションイベントを受け取るチャネルです。受信側が遅い場合、イベントは破棄されログに記録されます。
func (s *Session) Events() <-chan Event { return s.events }

// State は現在の状態を返します。
func (s *Session) State() domain.LiveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err はセッションを終了させたエラーを返します。正常終了の場合は nil です。
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Connect は出力を確保してストリームを確立し、受信ループを開始します。
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case domain.LiveIdle:
	case domain.LiveClosing, domain.LiveClosed:
		s.mu.Unlock()
		return ErrClosed
	default:
		s.mu.Unlock()
		return ErrAlreadyActive
	}
	s.setState(domain.LiveConnecting)
	s.mu.Unlock()

	out, err := s.newOutput()
	if err != nil {
		err = fmt.Errorf("音声出力の初期化失敗: %w", err)
		s.teardown(err)
		return err
	}

	tr, err := s.dialer.Dial(ctx)
	if err != nil {
		s.mu.Lock()
		if s.state != domain.LiveConnecting {
			// 接続中に Close された
			s.mu.Unlock()
			_ = out.Close()
			return ErrClosed
		}
		s.output = out
		s.mu.Unlock()
		err = fmt.Errorf("ライブセッションの接続失敗: %w", err)
		s.teardown(err)
		return err
	}

	s.mu.Lock()
	if s.state != domain.LiveConnecting {
		// 接続中に Close された
		s.mu.Unlock()
		_ = tr.Close()
		_ = out.Close()
		return ErrClosed
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.transport, s.output, s.cancel = tr, out, cancel
	s.opened = true
	s.setState(domain.LiveOpen)
	s.mu.Unlock()

	s.metrics.LiveOpened()
	slog.InfoContext(ctx, "ライブセッションを開始しました")
	go s.receiveLoop(runCtx, tr)
	return nil
}

// SendAudio はマイク音声（PCM16LE 16kHz モノラル）を送信します。
// 送信エラーはトランスポートの異常として扱い、セッションを閉じます。
func (s *Session) SendAudio(ctx context.Context, pcm []byte) error {
	s.mu.Lock()
	if s.state != domain.LiveOpen {
		s.mu.Unlock()
		return ErrNotOpen
	}
	tr := s.transport
	s.mu.Unlock()

	if err := tr.SendAudio(ctx, pcm, CaptureMIMEType); err != nil {
		err = fmt.Errorf("音声送信エラー: %w", err)
		s.teardown(err)
		return err
	}
	return nil
}

// Close はセッションを閉じ、トランスポートと出力を解放します。複数回呼んでも安全です。
func (s *Session) Close() error {
	s.teardown(nil)
	s.mu.Lock()
	opened := s.opened
	s.mu.Unlock()
	if opened {
		<-s.loopDone
	}
	return nil
}

func (s *Session) receiveLoop(ctx context.Context, tr Transport) {
	defer close(s.loopDone)
	for {
		msg, err := tr.Receive(ctx)
		if err != nil {
			s.mu.Lock()
			closing := s.state != domain.LiveOpen
			s.mu.Unlock()
			switch {
			case closing:
				s.teardown(nil)
			case errors.Is(err, ErrRemoteClosed):
				slog.Info("サーバーがライブセッションを終了しました")
				s.teardown(nil)
			default:
				s.teardown(fmt.Errorf("ライブセッションの受信エラー: %w", err))
			}
			return
		}
		if !s.handle(msg) {
			return
		}
	}
}

type pendingPlay struct {
	buf   *Buffer
	start time.Duration
}

// handle は1メッセージ分の音声をスケジュールし、イベントを通知します。
func (s *Session) handle(msg *ServerMessage) bool {
	s.mu.Lock()
	if s.state != domain.LiveOpen {
		s.mu.Unlock()
		return false
	}
	out := s.output
	var plays []pendingPlay
	for _, data := range msg.Audio {
		buf := PlaybackFormat.DecodePCM16(data)
		if buf.Duration <= 0 {
			continue
		}
		start := s.sched.Schedule(out.Now(), buf.Duration)
		plays = append(plays, pendingPlay{buf: buf, start: start})
		s.emit(Event{Type: EventAudio, Chunk: ScheduledChunk{Start: start, Duration: buf.Duration}})
	}
	if msg.InputTranscript != "" {
		s.emit(Event{Type: EventTranscript, Role: domain.RoleUser, Text: msg.InputTranscript})
	}
	if msg.OutputTranscript != "" {
		s.emit(Event{Type: EventTranscript, Role: domain.RoleModel, Text: msg.OutputTranscript})
	}
	if msg.Text != "" {
		s.emit(Event{Type: EventText, Text: msg.Text})
	}
	if msg.Interrupted {
		s.emit(Event{Type: EventInterrupted})
	}
	if msg.TurnComplete {
		s.emit(Event{Type: EventTurnComplete})
	}
	s.mu.Unlock()

	for _, p := range plays {
		if err := out.Play(p.buf, p.start); err != nil {
			s.teardown(fmt.Errorf("音声出力エラー: %w", err))
			return false
		}
		s.metrics.LiveChunk()
	}
	return true
}

// teardown はセッションを Closed にし、資源を解放します。err が nil でなければエラーイベントを1つだけ通知します。
func (s *Session) teardown(err error) {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		s.setState(domain.LiveClosing)
		tr, out, cancel, opened := s.transport, s.output, s.cancel, s.opened
		s.transport, s.output, s.cancel = nil, nil, nil
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if tr != nil {
			if cerr := tr.Close(); cerr != nil {
				slog.Debug("トランスポートのクローズに失敗しました", "error", cerr)
			}
		}
		if out != nil {
			if cerr := out.Close(); cerr != nil {
				slog.Debug("音声出力のクローズに失敗しました", "error", cerr)
			}
		}

		s.mu.Lock()
		s.sched.Reset()
		s.err = err
		s.setState(domain.LiveClosed)
		if err != nil {
			slog.Warn("ライブセッションがエラーで終了しました", "error", err)
			s.emit(Event{Type: EventError, Err: err})
		}
		close(s.events)
		s.mu.Unlock()

		if opened {
			s.metrics.LiveClosed()
		}
	})
}

// setState は mu を保持した状態で呼びます。
func (s *Session) setState(next domain.LiveState) {
	s.state = next
	s.emit(Event{Type: EventState, State: next})
}

// emit は mu を保持した状態で呼びます。チャネルが満杯なら破棄します。
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		slog.Warn("ライブイベントを破棄しました", "type", ev.Type.String())
	}
}
