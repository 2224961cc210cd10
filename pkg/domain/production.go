package domain

import "time"

// ToolPreset はプロンプトの出力先となる動画生成ツールです。
type ToolPreset string

const (
	ToolRunway ToolPreset = "runway"
	ToolPika   ToolPreset = "pika"
	ToolSora   ToolPreset = "sora"
	ToolVeo    ToolPreset = "veo"
)

// StylePreset は映像スタイルのプリセットです。
type StylePreset string

const (
	StyleCinematic StylePreset = "cinematic"
	StyleAnime     StylePreset = "anime"
	StyleRealistic StylePreset = "realistic"
	StyleCyberpunk StylePreset = "cyberpunk"
	StyleNoir      StylePreset = "noir"
)

// SceneSegment は生成された動画台本の1区間です。
type SceneSegment struct {
	DurationSeconds float64 `json:"duration"`
	Type            string  `json:"type"`
	Camera          string  `json:"camera"`
	Lighting        string  `json:"lighting"`
	Description     string  `json:"description"`
}

// Analysis は 4C モデル（Camera / Character / Context / Cinematic）の分析結果です。
// 各フィールドは空文字を許容しますが、欠落はしません。
type Analysis struct {
	Camera    string `json:"camera"`
	Character string `json:"character"`
	Context   string `json:"context"`
	Cinematic string `json:"cinematic"`
}

// PromptBundle はプロンプト生成の構造化結果です。
type PromptBundle struct {
	MasterPrompt string         `json:"masterPrompt"`
	Breakdown    []SceneSegment `json:"breakdown"`
	Analysis     Analysis       `json:"analysis"`
}

func (*PromptBundle) isResult() {}

// TotalDuration はシーン区間の合計秒数を返します。
func (b *PromptBundle) TotalDuration() float64 {
	var total float64
	for _, s := range b.Breakdown {
		total += s.DurationSeconds
	}
	return total
}

// PromptRecord は履歴として保存されるプロンプト生成結果です。
type PromptRecord struct {
	ID                string         `json:"id"`
	Concept           string         `json:"concept"`
	Duration          int            `json:"duration"`
	Style             StylePreset    `json:"style"`
	AspectRatio       string         `json:"aspectRatio"`
	Tool              ToolPreset     `json:"tool"`
	GeneratedPrompt   string         `json:"generatedPrompt"`
	Breakdown         []SceneSegment `json:"breakdown"`
	CreatedAt         int64          `json:"createdAt"`
	CameraAnalysis    string         `json:"cameraAnalysis,omitempty"`
	CharacterAnalysis string         `json:"characterAnalysis,omitempty"`
	ContextAnalysis   string         `json:"contextAnalysis,omitempty"`
	CinematicAnalysis string         `json:"cinematicAnalysis,omitempty"`
}

// NewPromptRecord はリクエストと生成結果から履歴レコードを組み立てます。
// CreatedAt はミリ秒単位の UNIX 時刻です。
func NewPromptRecord(id string, req PromptRequest, bundle *PromptBundle, now time.Time) PromptRecord {
	return PromptRecord{
		ID:                id,
		Concept:           req.Concept,
		Duration:          req.DurationSeconds,
		Style:             req.Style,
		AspectRatio:       req.AspectRatio,
		Tool:              req.Tool,
		GeneratedPrompt:   bundle.MasterPrompt,
		Breakdown:         bundle.Breakdown,
		CreatedAt:         now.UnixMilli(),
		CameraAnalysis:    bundle.Analysis.Camera,
		CharacterAnalysis: bundle.Analysis.Character,
		ContextAnalysis:   bundle.Analysis.Context,
		CinematicAnalysis: bundle.Analysis.Cinematic,
	}
}
