package generator

const (
	// DefaultThinkingBudget は拡張推論を有効にしたときの思考トークン上限です。
	DefaultThinkingBudget = 32768

	// DefaultAnalysisInstruction は画像分析で指示が省略された場合の既定指示です。
	DefaultAnalysisInstruction = "Analyze this image for cinematic potential, lighting, and composition."
	// NoAnalysisText は分析結果が空だった場合に返す文言です。
	NoAnalysisText = "No analysis available."

	transcriptionInstruction = "Transcribe the following audio accurately."
	// 文字起こしは単一のコーデックのみを扱う
	transcriptionMimeType = "audio/wav"
)

// Models はモダリティごとに使用するモデル名の組です。
type Models struct {
	Prompt         string `yaml:"prompt"`
	PromptThinking string `yaml:"prompt_thinking"`
	Image          string `yaml:"image"`
	ImageEdit      string `yaml:"image_edit"`
	Analysis       string `yaml:"analysis"`
	Transcription  string `yaml:"transcription"`
	Chat           string `yaml:"chat"`
	ChatThinking   string `yaml:"chat_thinking"`
}

// DefaultModels は既定のモデル構成を返します。
func DefaultModels() Models {
	return Models{
		Prompt:         "gemini-3-flash-preview",
		PromptThinking: "gemini-3-pro-preview",
		Image:          "gemini-3-pro-image-preview",
		ImageEdit:      "gemini-2.5-flash-image",
		Analysis:       "gemini-3-pro-preview",
		Transcription:  "gemini-3-flash-preview",
		Chat:           "gemini-flash-lite-latest",
		ChatThinking:   "gemini-3-pro-preview",
	}
}

// WithDefaults は空のフィールドを既定値で埋めた構成を返します。
func (m Models) WithDefaults() Models {
	d := DefaultModels()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&m.Prompt, d.Prompt)
	fill(&m.PromptThinking, d.PromptThinking)
	fill(&m.Image, d.Image)
	fill(&m.ImageEdit, d.ImageEdit)
	fill(&m.Analysis, d.Analysis)
	fill(&m.Transcription, d.Transcription)
	fill(&m.Chat, d.Chat)
	fill(&m.ChatThinking, d.ChatThinking)
	return m
}
