package domain

import (
	"fmt"
	"strings"
)

// Request は Orchestrator に渡される生成要求のタグ付きバリアントです。
// 実装はこのパッケージ内の値型に限られ、生成後は変更されません。
type Request interface {
	isRequest()
	// Validate は送信前に必須フィールドを検証します。
	Validate() error
}

// PromptRequest は動画用プロンプトの生成要求です。
type PromptRequest struct {
	Concept         string
	DurationSeconds int
	Style           StylePreset
	AspectRatio     string
	Tool            ToolPreset
	UseSearch       bool // Google 検索によるグラウンディング
	UseThinking     bool // 拡張推論（推論モデルへの切り替え）
}

// ImageRequest は静止画の生成要求です。
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	Size        ImageSize
}

// ImageEditRequest は既存画像の編集要求です。Image は base64 または data URL です。
type ImageEditRequest struct {
	Image       string
	Instruction string
}

// ImageAnalysisRequest は画像分析の要求です。Instruction が空なら既定の撮影批評を依頼します。
type ImageAnalysisRequest struct {
	Image       string
	Instruction string
}

// TranscriptionRequest は音声の文字起こし要求です。Audio は base64 の WAV データです。
type TranscriptionRequest struct {
	Audio string
}

// ChatRequest はチャットへの1ターン分の送信です。
type ChatRequest struct {
	Text        string
	UseThinking bool
}

// VideoRequest は動画レンダリングの要求です。ReferenceImage は任意の開始フレームです。
type VideoRequest struct {
	Prompt         string
	AspectRatio    string
	ReferenceImage string
}

// LiveConnectRequest はリアルタイム音声セッションの開始要求です。
type LiveConnectRequest struct{}

func (PromptRequest) isRequest()        {}
func (ImageRequest) isRequest()         {}
func (ImageEditRequest) isRequest()     {}
func (ImageAnalysisRequest) isRequest() {}
func (TranscriptionRequest) isRequest() {}
func (ChatRequest) isRequest()          {}
func (VideoRequest) isRequest()         {}
func (LiveConnectRequest) isRequest()   {}

func (r PromptRequest) Validate() error {
	if strings.TrimSpace(r.Concept) == "" {
		return fmt.Errorf("%w: concept is required", ErrInvalidInput)
	}
	if r.DurationSeconds <= 0 {
		return fmt.Errorf("%w: duration must be positive: %d", ErrInvalidInput, r.DurationSeconds)
	}
	return nil
}

func (r ImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if r.Size != "" && !r.Size.Valid() {
		return fmt.Errorf("%w: unknown image size: %s", ErrInvalidInput, r.Size)
	}
	return nil
}

func (r ImageEditRequest) Validate() error {
	if r.Image == "" || strings.TrimSpace(r.Instruction) == "" {
		return fmt.Errorf("%w: image and instruction are required", ErrInvalidInput)
	}
	return nil
}

func (r ImageAnalysisRequest) Validate() error {
	if r.Image == "" {
		return fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	return nil
}

func (r TranscriptionRequest) Validate() error {
	if r.Audio == "" {
		return fmt.Errorf("%w: audio is required", ErrInvalidInput)
	}
	return nil
}

func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: message text is required", ErrInvalidInput)
	}
	return nil
}

func (r VideoRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	return nil
}

func (LiveConnectRequest) Validate() error { return nil }
