package ai

import "math"

// Hand landmark indices (21-point hand topology).
const (
	thumbTip  = 4
	indexTip  = 8
	middleTip = 12
	ringTip   = 16
	pinkyTip  = 20
)

// Face mesh indices of the inner upper and lower lip.
const (
	mouthTop    = 13
	mouthBottom = 14
)

const (
	MudraUnknown      = "Unknown"
	MudraAnjali       = "Anjali (Prayer)"
	MudraPataka       = "Pataka (Flag)"
	MudraArdhachandra = "Ardhachandra (Half Moon)"
	MudraAlapadma     = "Alapadma (Blooming Lotus)"

	EmotionNeutral  = "Neutral"
	EmotionJoy      = "Joy (Hasya)"
	EmotionSerenity = "Serenity (Shanta)"
	EmotionSorrow   = "Sorrow (Karuna)"
	EmotionAnger    = "Anger (Raudra)"
)

// ClassifyMudra labels a hand pose from fingertip geometry. The first matching rule wins.
func ClassifyMudra(hand LandmarkSet) string {
	if len(hand) <= pinkyTip {
		return MudraUnknown
	}

	thumb := hand[thumbTip]
	index := hand[indexTip]
	middle := hand[middleTip]
	ring := hand[ringTip]
	pinky := hand[pinkyTip]

	thumbIndexDist := math.Hypot(thumb.X-index.X, thumb.Y-index.Y)

	switch {
	case thumbIndexDist < 0.05:
		return MudraAnjali
	case middle.Y < ring.Y && ring.Y < pinky.Y:
		return MudraPataka
	case index.Y < thumb.Y && middle.Y > index.Y:
		return MudraArdhachandra
	default:
		return MudraAlapadma
	}
}

// ClassifyEmotion labels a face from how far the mouth is open.
func ClassifyEmotion(face LandmarkSet) string {
	if len(face) <= mouthBottom {
		return EmotionNeutral
	}

	openness := math.Abs(face[mouthTop].Y - face[mouthBottom].Y)

	switch {
	case openness > 0.03:
		return EmotionJoy
	case openness < 0.01:
		return EmotionSorrow
	default:
		return EmotionSerenity
	}
}
