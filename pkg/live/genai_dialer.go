package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/cinematix-kit/pkg/generator"
	"google.golang.org/genai"
)

// DefaultModel はネイティブ音声対話用のモデルです。
const DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

// GenAIDialer は genai の Live API でストリームを確立します。
type GenAIDialer struct {
	Client *genai.Client
	Model  string
	Config *genai.LiveConnectConfig
}

// NewGenAIDialer は音声応答を受け取る設定で GenAIDialer を作成します。
func NewGenAIDialer(client *genai.Client, model string) (*GenAIDialer, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &GenAIDialer{
		Client: client,
		Model:  model,
		Config: &genai.LiveConnectConfig{
			ResponseModalities:       []genai.Modality{genai.ModalityAudio},
			InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
			OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		},
	}, nil
}

// Dial は Live API に接続します。失敗は domain.RemoteError に分類して返します。
func (d *GenAIDialer) Dial(ctx context.Context) (Transport, error) {
	session, err := d.Client.Live.Connect(ctx, d.Model, d.Config)
	if err != nil {
		return nil, generator.Classify(err)
	}
	return &genaiTransport{session: session}, nil
}

// genaiTransport は *genai.Session を Transport に適合させます。
type genaiTransport struct {
	session   *genai.Session
	sendMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (t *genaiTransport) SendAudio(_ context.Context, pcm []byte, mimeType string) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{MIMEType: mimeType, Data: pcm},
	})
}

func (t *genaiTransport) Receive(_ context.Context) (*ServerMessage, error) {
	msg, err := t.session.Receive()
	if err != nil {
		if isNormalClose(err) {
			return nil, ErrRemoteClosed
		}
		return nil, err
	}
	return fromGenAI(msg), nil
}

func (t *genaiTransport) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.session.Close() })
	return t.closeErr
}

func fromGenAI(msg *genai.LiveServerMessage) *ServerMessage {
	out := &ServerMessage{}
	sc := msg.ServerContent
	if sc == nil {
		return out
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			switch {
			case p == nil:
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
	return out
}
