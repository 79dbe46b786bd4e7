package story

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ritheshsuvarna/natya/internal/models"
)

// MaxPromptScenes caps how many scenes are listed in the prompt.
const MaxPromptScenes = 20

const promptTemplate = `You are an expert in Bharatanatyam, a classical Indian dance form. Based on the following dance performance analysis, create a beautiful, culturally sensitive natural-language story that explains what the dancer is conveying.

Dance Performance Analysis:
Duration: %.1f seconds
Total Scenes Analyzed: %d

Scene-by-Scene Analysis:
%s

Please generate a cohesive, engaging narrative story (3-4 paragraphs) that:
1. Explains what story the dancer is telling through these movements
2. Interprets the emotional journey shown through facial expressions
3. Describes the significance of the mudras (hand gestures) used
4. Makes it understandable for someone unfamiliar with Bharatanatyam
5. Maintains cultural sensitivity and respect for this classical art form

Story:`

func BuildPrompt(data models.AnalysisData) string {
	scenes := data.Scenes
	if len(scenes) > MaxPromptScenes {
		scenes = scenes[:MaxPromptScenes]
	}

	lines := make([]string, 0, len(scenes))
	for i, scene := range scenes {
		lines = append(lines, fmt.Sprintf("Scene %d (at %ss): Action: %s, Mudra: %s, Emotion: %s",
			i+1, formatSeconds(scene.TimestampSeconds), scene.Action, scene.Mudra, scene.Emotion))
	}

	return fmt.Sprintf(promptTemplate, data.DurationSeconds, len(data.Scenes), strings.Join(lines, "\n"))
}

// formatSeconds prints the shortest decimal form, always with a fractional part ("2.0", "1.97").
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
