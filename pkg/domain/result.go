package domain

// Result は成功した要求に対して1度だけ生成される結果のタグ付きバリアントです。
// *PromptBundle, *ImageAsset, *VideoAsset, TranscriptText, AnalysisText,
// ChatReply, LiveStarted が実装します。
type Result interface {
	isResult()
}

// TranscriptText は文字起こし結果です。空文字の場合もあります。
type TranscriptText string

// AnalysisText は画像分析の自由記述テキストです。
type AnalysisText string

// ChatReply はチャットに対するモデルの応答です。
type ChatReply string

// LiveStarted はリアルタイム音声セッションが Open になったことを表します。
type LiveStarted struct {
	State LiveState
}

// VideoAsset はレンダリング済み動画をローカルに実体化したハンドルです。
type VideoAsset struct {
	ID        string
	Path      string // FileStore 上のパス
	MimeType  string
	Size      int64
	SourceURI string // リモートのメディアロケータ
}

func (TranscriptText) isResult() {}
func (AnalysisText) isResult()   {}
func (ChatReply) isResult()      {}
func (LiveStarted) isResult()    {}
func (*VideoAsset) isResult()    {}

// LiveState はリアルタイム音声セッションのライフサイクル状態です。
type LiveState int

const (
	LiveIdle LiveState = iota
	LiveConnecting
	LiveOpen
	LiveClosing
	LiveClosed
)

func (s LiveState) String() string {
	switch s {
	case LiveIdle:
		return "idle"
	case LiveConnecting:
		return "connecting"
	case LiveOpen:
		return "open"
	case LiveClosing:
		return "closing"
	case LiveClosed:
		return "closed"
	}
	return "unknown"
}
