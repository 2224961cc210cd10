package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/generator"
)

// DefaultWebSocketURL は Gemini Live API の BidiGenerateContent エンドポイントです。
const DefaultWebSocketURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// WebSocketDialer は BidiGenerateContent の JSON プロトコルを直接話す Dialer です。
// プロキシや互換エンドポイントを経由する場合に使います。
type WebSocketDialer struct {
	URL    string
	APIKey string
	Model  string
	Header http.Header
	Dialer *websocket.Dialer
}

// --- wire types ---

type wsBlob struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"` // base64
}

type wsClientMessage struct {
	Setup         *wsSetup         `json:"setup,omitempty"`
	RealtimeInput *wsRealtimeInput `json:"realtimeInput,omitempty"`
}

type wsSetup struct {
	Model                    string             `json:"model"`
	GenerationConfig         wsGenerationConfig `json:"generationConfig"`
	InputAudioTranscription  *struct{}          `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}          `json:"outputAudioTranscription,omitempty"`
}

type wsGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type wsRealtimeInput struct {
	Audio *wsBlob `json:"audio,omitempty"`
}

type wsPart struct {
	Text       string  `json:"text,omitempty"`
	Thought    bool    `json:"thought,omitempty"`
	InlineData *wsBlob `json:"inlineData,omitempty"`
}

type wsTranscription struct {
	Text string `json:"text"`
}

type wsServerMessage struct {
	SetupComplete *struct{} `json:"setupComplete,omitempty"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []wsPart `json:"parts"`
		} `json:"modelTurn,omitempty"`
		TurnComplete        bool             `json:"turnComplete,omitempty"`
		Interrupted         bool             `json:"interrupted,omitempty"`
		InputTranscription  *wsTranscription `json:"inputTranscription,omitempty"`
		OutputTranscription *wsTranscription `json:"outputTranscription,omitempty"`
	} `json:"serverContent,omitempty"`
	GoAway *struct{} `json:"goAway,omitempty"`
}

func (d *WebSocketDialer) endpoint() (string, error) {
	raw := d.URL
	if raw == "" {
		raw = DefaultWebSocketURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("不正な WebSocket URL: %w", err)
	}
	if d.APIKey != "" {
		q := u.Query()
		q.Set("key", d.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Dial は接続して setup を送り、setupComplete を受け取るまで待ちます。
func (d *WebSocketDialer) Dial(ctx context.Context) (Transport, error) {
	endpoint, err := d.endpoint()
	if err != nil {
		return nil, err
	}
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, d.Header)
	if err != nil {
		if resp != nil {
			kind := generator.ClassifyStatus(resp.StatusCode, "", "")
			return nil, domain.NewRemoteError(kind, fmt.Sprintf("WebSocket 接続失敗 (status %d)", resp.StatusCode), err)
		}
		return nil, fmt.Errorf("WebSocket 接続失敗: %w", generator.Classify(err))
	}

	model := d.Model
	if model == "" {
		model = DefaultModel
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	t := &wsTransport{conn: conn}
	setup := wsClientMessage{Setup: &wsSetup{
		Model:                    model,
		GenerationConfig:         wsGenerationConfig{ResponseModalities: []string{"AUDIO"}},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}}
	if err := t.write(setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setup 送信失敗: %w", err)
	}

	msg, err := t.readSetup(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("setupComplete 待機中のエラー: %w", err)
	}
	if msg.SetupComplete == nil {
		conn.Close()
		return nil, fmt.Errorf("setupComplete 以外のメッセージを受信しました")
	}
	return t, nil
}

type wsTransport struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (t *wsTransport) write(v any) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(v)
}

// readSetup は ctx の期限またはキャンセルまでに届いた最初のメッセージを返します。
func (t *wsTransport) readSetup(ctx context.Context) (*wsServerMessage, error) {
	if dl, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(dl); err != nil {
			return nil, err
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = t.conn.Close() })
	msg, err := t.read()
	if !stop() {
		return nil, generator.Classify(context.Cause(ctx))
	}
	if err != nil {
		return nil, err
	}
	if err := t.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}
	return msg, nil
}

func (t *wsTransport) read() (*wsServerMessage, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg wsServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("サーバーメッセージの解析失敗: %w", err)
	}
	return &msg, nil
}

func (t *wsTransport) SendAudio(_ context.Context, pcm []byte, mimeType string) error {
	return t.write(wsClientMessage{RealtimeInput: &wsRealtimeInput{
		Audio: &wsBlob{MimeType: mimeType, Data: pcm},
	}})
}

func (t *wsTransport) Receive(_ context.Context) (*ServerMessage, error) {
	msg, err := t.read()
	if err != nil {
		if isNormalClose(err) {
			return nil, ErrRemoteClosed
		}
		return nil, err
	}

	out := &ServerMessage{}
	sc := msg.ServerContent
	if sc == nil {
		return out, nil
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			switch {
			case p.InlineData != nil && len(p.InlineData.Data) > 0:
				out.Audio = append(out.Audio, p.InlineData.Data)
			case p.Text != "" && !p.Thought:
				out.Text += p.Text
			}
		}
	}
	if sc.InputTranscription != nil {
		out.InputTranscript = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		out.OutputTranscript = sc.OutputTranscription.Text
	}
	out.TurnComplete = sc.TurnComplete
	out.Interrupted = sc.Interrupted
	return out, nil
}

func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		_ = t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.writeMu.Unlock()
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// isNormalClose はサーバーによる正常終了かどうかを判定します。
func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, ErrRemoteClosed)
}
