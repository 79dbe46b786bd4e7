package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusAnalyzed   Status = "analyzed"
	StatusCompleted  Status = "completed"
)

func (s Status) rank() int {
	switch s {
	case StatusProcessing:
		return 0
	case StatusAnalyzed:
		return 1
	case StatusCompleted:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether moving from s to next keeps the status monotonic.
func (s Status) CanAdvanceTo(next Status) bool {
	return next.rank() >= 0 && next.rank() >= s.rank()
}

type DetectionMode string

const (
	DetectionLandmarks DetectionMode = "landmarks"
	DetectionHeuristic DetectionMode = "heuristic"
)

// Scene is the annotation of one sampled frame.
type Scene struct {
	FrameNumber      int     `json:"frame_number" bson:"frame_number"`
	TimestampSeconds float64 `json:"timestamp_seconds" bson:"timestamp_seconds"`
	PoseDetected     bool    `json:"pose_detected" bson:"pose_detected"`
	Action           string  `json:"action" bson:"action"`
	Mudra            string  `json:"mudra" bson:"mudra"`
	Emotion          string  `json:"emotion" bson:"emotion"`
	Interpretation   string  `json:"interpretation" bson:"interpretation"`
}

type AnalysisData struct {
	TotalFrames     int           `json:"total_frames" bson:"total_frames"`
	FPS             float64       `json:"fps" bson:"fps"`
	DurationSeconds float64       `json:"duration_seconds" bson:"duration_seconds"`
	DetectionMode   DetectionMode `json:"detection_mode" bson:"detection_mode"`
	Scenes          []Scene       `json:"scenes" bson:"scenes"`
}

type AnalysisRecord struct {
	ID             string       `json:"id" bson:"id"`
	VideoFilename  string       `json:"video_filename" bson:"video_filename"`
	AnalysisData   AnalysisData `json:"analysis_data" bson:"analysis_data"`
	GeneratedStory *string      `json:"generated_story" bson:"generated_story"`
	Timestamp      time.Time    `json:"timestamp" bson:"timestamp"`
	Status         Status       `json:"status" bson:"status"`
}

func NewAnalysisRecord(filename string, data AnalysisData) *AnalysisRecord {
	return &AnalysisRecord{
		ID:            uuid.New().String(),
		VideoFilename: filename,
		AnalysisData:  data,
		Timestamp:     time.Now().UTC(),
		Status:        StatusAnalyzed,
	}
}

// HasStory reports whether a non-empty narrative has been stored.
func (r *AnalysisRecord) HasStory() bool {
	return r.GeneratedStory != nil && *r.GeneratedStory != ""
}

// SetStory stores the narrative and completes the record. Status never moves backwards.
func (r *AnalysisRecord) SetStory(story string) {
	r.GeneratedStory = &story
	if r.Status.CanAdvanceTo(StatusCompleted) {
		r.Status = StatusCompleted
	}
}

// Clone returns a deep copy so stored records never alias caller memory.
func (r *AnalysisRecord) Clone() *AnalysisRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.GeneratedStory != nil {
		story := *r.GeneratedStory
		c.GeneratedStory = &story
	}
	if r.AnalysisData.Scenes != nil {
		c.AnalysisData.Scenes = make([]Scene, len(r.AnalysisData.Scenes))
		copy(c.AnalysisData.Scenes, r.AnalysisData.Scenes)
	}
	return &c
}
