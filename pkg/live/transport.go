package live

import (
	"context"
	"errors"
)

// ErrRemoteClosed はサーバー側が正常にストリームを閉じたことを表します。
var ErrRemoteClosed = errors.New("live: remote closed the stream")

// ServerMessage はサーバーから届いた1メッセージをトランスポート非依存にしたものです。
type ServerMessage struct {
	Audio            [][]byte // PCM16LE 24kHz
	Text             string
	InputTranscript  string
	OutputTranscript string
	TurnComplete     bool
	Interrupted      bool
}

// Transport は確立済みの双方向ストリームです。
// Receive は1度に1つの goroutine からだけ呼ばれます。SendAudio は Receive と並行して呼ばれます。
type Transport interface {
	SendAudio(ctx context.Context, pcm []byte, mimeType string) error
	// Receive は次のメッセージを返します。サーバーが正常に閉じた場合は ErrRemoteClosed を返します。
	Receive(ctx context.Context) (*ServerMessage, error)
	Close() error
}

// Dialer はストリームを確立します。
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}
