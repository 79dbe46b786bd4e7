package story

import (
	"fmt"
	"strings"

	"github.com/ritheshsuvarna/natya/internal/models"
)

const fallbackTemplate = `This Bharatanatyam dance piece spans %.1f seconds and tells a profound story through movement. The performer conveys emotions of %s through expressive facial expressions and body language.

The dancer employs various mudras including %s, each gesture carrying symbolic meaning rooted in classical Indian tradition. These hand positions combined with the flowing movements of the body create a visual narrative that captivates the audience.

Throughout the performance, the rhythm and precision of the movements demonstrate the technical mastery required in Bharatanatyam, while the emotional depth reveals the artistic interpretation of the classical tales. The dance serves as a bridge between ancient tradition and contemporary artistic expression.`

// FallbackStory fills a fixed three-paragraph template with the distinct emotions and
// mudras seen across all scenes, listed in first-seen order.
func FallbackStory(data models.AnalysisData) string {
	emotions := make([]string, 0, len(data.Scenes))
	mudras := make([]string, 0, len(data.Scenes))
	for _, scene := range data.Scenes {
		emotions = append(emotions, scene.Emotion)
		mudras = append(mudras, scene.Mudra)
	}

	emotionSummary := summarize(emotions, "grace")
	mudraSummary := summarize(mudras, "traditional gestures")

	return fmt.Sprintf(fallbackTemplate, data.DurationSeconds, emotionSummary, mudraSummary)
}

func summarize(values []string, empty string) string {
	if len(values) == 0 {
		return empty
	}
	seen := make(map[string]struct{}, len(values))
	distinct := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	return strings.Join(distinct, ", ")
}
