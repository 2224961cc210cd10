package live

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Output はスケジュール済み音声の再生先です。時刻は再生開始からの経過時間です。
type Output interface {
	Now() time.Duration
	Play(buf *Buffer, at time.Duration) error
	Close() error
}

// StreamOutput は音声を PCM16 として io.WriteCloser に書き出す Output です。
// 前チャンクとの隙間は無音で埋めるため、書き出し先を実時間で再生すればスケジュール通りに鳴ります。
type StreamOutput struct {
	mu      sync.Mutex
	w       io.WriteCloser
	format  Format
	now     func() time.Time
	started time.Time
	written time.Duration
	closed  bool
}

// StreamOption は StreamOutput の生成オプションです。
type StreamOption func(*StreamOutput)

// WithClock は時計を差し替えます。
func WithClock(now func() time.Time) StreamOption {
	return func(o *StreamOutput) { o.now = now }
}

// NewStreamOutput は w に format で書き出す StreamOutput を作成します。
func NewStreamOutput(w io.WriteCloser, format Format, opts ...StreamOption) *StreamOutput {
	o := &StreamOutput{w: w, format: format, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	o.started = o.now()
	return o
}

func (o *StreamOutput) Now() time.Duration {
	return o.now().Sub(o.started)
}

func (o *StreamOutput) Play(buf *Buffer, at time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("output is closed")
	}
	if gap := at - o.written; gap > 0 {
		if _, err := o.w.Write(make([]byte, o.format.Bytes(gap))); err != nil {
			return fmt.Errorf("無音の書き込み失敗: %w", err)
		}
		o.written = at
	}
	if _, err := o.w.Write(EncodePCM16(buf.Samples)); err != nil {
		return fmt.Errorf("音声の書き込み失敗: %w", err)
	}
	o.written += buf.Duration
	return nil
}

func (o *StreamOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.w.Close()
}

var _ Output = (*StreamOutput)(nil)
