package ai

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/models"
)

const (
	ActionStanding      = "Standing pose"
	ActionTransitioning = "Transitioning"

	NoHandsDetected = "No hands detected"
	NoFaceDetected  = "No face detected"
)

var (
	heuristicEmotions = []string{EmotionJoy, EmotionSerenity, EmotionSorrow, EmotionAnger}
	heuristicMudras   = []string{MudraAnjali, MudraPataka, MudraArdhachandra, MudraAlapadma}
	heuristicActions  = []string{ActionStanding, "Swaying movement", "Arm extension", "Turning motion", "Floor pattern"}
)

// Annotator turns sampled frames into scenes, using the landmark detector when it is
// available and the frame-index heuristic otherwise.
type Annotator struct {
	detector LandmarkDetector
	workers  int
}

func NewAnnotator(detector LandmarkDetector, workers int) *Annotator {
	if workers <= 0 {
		workers = 1
	}
	return &Annotator{detector: detector, workers: workers}
}

func (a *Annotator) DetectorAvailable() bool {
	return a.detector != nil && a.detector.Available()
}

func (a *Annotator) Annotate(ctx context.Context, sample *Sample) (models.AnalysisData, error) {
	data := models.AnalysisData{
		TotalFrames:     sample.Info.TotalFrames,
		FPS:             sample.Info.FPS,
		DurationSeconds: sample.Info.Duration(),
		Scenes:          []models.Scene{},
	}

	if a.DetectorAvailable() {
		scenes, err := a.detectAll(ctx, sample.Frames)
		if err == nil {
			data.DetectionMode = models.DetectionLandmarks
			data.Scenes = scenes
			return data, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.AnalysisData{}, ctxErr
		}
		log.Warnf("Landmark detection failed: %v. Using heuristic annotation.", err)
	}

	data.DetectionMode = models.DetectionHeuristic
	for _, frame := range sample.Frames {
		data.Scenes = append(data.Scenes, HeuristicScene(frame.Index, frame.Timestamp))
	}
	return data, nil
}

func (a *Annotator) detectAll(ctx context.Context, frames []Frame) ([]models.Scene, error) {
	scenes := make([]models.Scene, len(frames))
	errs := make([]error, len(frames))

	wg := sizedwaitgroup.New(a.workers)
	for i := range frames {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		if err := wg.AddWithContext(ctx); err != nil {
			wg.Wait()
			return nil, err
		}
		go func(i int) {
			defer wg.Done()
			frame := frames[i]
			detection, err := a.detector.Detect(ctx, frame.Image)
			if err != nil {
				errs[i] = fmt.Errorf("frame %d: %w", frame.Index, err)
				return
			}
			scenes[i] = DetectedScene(frame.Index, frame.Timestamp, detection)
		}(i)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return scenes, nil
}

// DetectedScene builds a scene from detector output. A nil detection counts as nothing found.
func DetectedScene(index int, timestamp float64, detection *Detection) models.Scene {
	if detection == nil {
		detection = &Detection{}
	}

	poseDetected := len(detection.Pose) > 0

	mudra := NoHandsDetected
	if len(detection.Hands) > 0 {
		mudra = ClassifyMudra(detection.Hands[0])
	}

	emotion := NoFaceDetected
	if len(detection.Faces) > 0 {
		emotion = ClassifyEmotion(detection.Faces[0])
	}

	action := ActionTransitioning
	if poseDetected {
		action = ActionStanding
	}

	return newScene(index, timestamp, poseDetected, action, mudra, emotion)
}

// HeuristicScene derives labels from the frame index alone, without looking at the image.
// The output is stable for a given index.
func HeuristicScene(index int, timestamp float64) models.Scene {
	emotion := heuristicEmotions[(index*7)%len(heuristicEmotions)]
	mudra := heuristicMudras[(index*11)%len(heuristicMudras)]
	action := heuristicActions[(index*13)%len(heuristicActions)]

	return newScene(index, timestamp, true, action, mudra, emotion)
}

func newScene(index int, timestamp float64, poseDetected bool, action, mudra, emotion string) models.Scene {
	return models.Scene{
		FrameNumber:      index,
		TimestampSeconds: math.Round(timestamp*100) / 100,
		PoseDetected:     poseDetected,
		Action:           action,
		Mudra:            mudra,
		Emotion:          emotion,
		Interpretation: fmt.Sprintf("At %.1fs: Performer displays %s through %s, forming %s mudra",
			timestamp, emotion, action, mudra),
	}
}
