package ai

import (
	"context"
	"errors"
)

var ErrDetectorUnavailable = errors.New("landmark detector unavailable")

// Point is a landmark position normalized to the image (0..1 on each axis).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LandmarkSet is one detected body part, indexed by the detector's landmark topology.
type LandmarkSet []Point

type Detection struct {
	Pose  LandmarkSet   `json:"pose"`
	Hands []LandmarkSet `json:"hands"`
	Faces []LandmarkSet `json:"faces"`
}

// LandmarkDetector finds pose, hand and face landmarks in a single JPEG frame.
type LandmarkDetector interface {
	Available() bool
	Detect(ctx context.Context, imageData []byte) (*Detection, error)
}

type Config struct {
	MaxFramesPerVideo int
	FrameSize         int
	DetectorURL       string
	DetectorWorkers   int
}

func NewConfig() *Config {
	return &Config{
		MaxFramesPerVideo: 50,
		FrameSize:         512,
		DetectorWorkers:   4,
	}
}
