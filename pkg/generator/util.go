package generator

import (
	"fmt"

	"github.com/shouni/cinematix-kit/pkg/domain"
)

// toolGuidance はツールごとのプロンプト書式ガイドを返します。
func toolGuidance(tool domain.ToolPreset) string {
	switch tool {
	case domain.ToolSora, domain.ToolVeo:
		return "Use the 4C Model: Camera + Character + Context + Cinematic. Ensure it handles complex physics and narrative."
	case domain.ToolRunway:
		return "Format: 'camera: [motion] | style: [style] | subject: [subject]'."
	}
	return ""
}

// directorPrompt は動画ディレクターとしての指示文を組み立てます。
func directorPrompt(req domain.PromptRequest) string {
	return fmt.Sprintf(`You are a world-class AI Video Director. Generate a high-end video prompt for %s based on: "%s".
Duration: %ds. Style: %s. Aspect Ratio: %s.
%s
Provide: masterPrompt, breakdown (JSON array whose durations sum to %d seconds), and 4C analysis.`,
		req.Tool, req.Concept, req.DurationSeconds, req.Style, req.AspectRatio,
		toolGuidance(req.Tool), req.DurationSeconds)
}
