package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/utils"
	"google.golang.org/genai"
)

// AnalyzeImage は画像を分析し、自由記述のテキストを返します。
func (c Client) AnalyzeImage(ctx context.Context, req domain.ImageAnalysisRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	instruction := req.Instruction
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultAnalysisInstruction
	}
	imgPart, err := c.toImagePart(req.Image)
	if err != nil {
		return "", err
	}

	resp, err := c.execute(ctx, "analysis", c.models.Analysis, userContent(imgPart, genai.NewPartFromText(instruction)), nil)
	if err != nil {
		return "", fmt.Errorf("画像分析エラー: %w", err)
	}
	if text := responseText(resp); text != "" {
		return text, nil
	}
	return NoAnalysisText, nil
}

// Transcribe は WAV 音声を文字起こしします。テキストが得られない場合は空文字を返します。
func (c Client) Transcribe(ctx context.Context, req domain.TranscriptionRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	audio, err := utils.DecodeBase64(req.Audio)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(audio, transcriptionMimeType),
		genai.NewPartFromText(transcriptionInstruction),
	}
	resp, err := c.execute(ctx, "transcription", c.models.Transcription, userContent(parts...), nil)
	if err != nil {
		return "", fmt.Errorf("文字起こしエラー: %w", err)
	}
	return responseText(resp), nil
}

// SendMessage は会話履歴を文脈として送り、新しいユーザー発話への応答を返します。
func (c Client) SendMessage(ctx context.Context, history []domain.ChatMessage, req domain.ChatRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, &genai.Content{
			Role:  string(m.Role),
			Parts: []*genai.Part{genai.NewPartFromText(m.Text)},
		})
	}
	contents = append(contents, userContent(genai.NewPartFromText(req.Text))...)

	model := c.models.Chat
	var cfg *genai.GenerateContentConfig
	if req.UseThinking {
		model = c.models.ChatThinking
		cfg = &genai.GenerateContentConfig{ThinkingConfig: c.thinkingConfig()}
	}

	resp, err := c.execute(ctx, "chat", model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("チャット送信エラー: %w", err)
	}
	return responseText(resp), nil
}
