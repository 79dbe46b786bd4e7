package ai

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var (
	ErrSourceUnreadable = errors.New("video source unreadable")
	ErrEmptySource      = errors.New("video has no frames")
)

type VideoInfo struct {
	TotalFrames int
	FPS         float64
}

func (i VideoInfo) Duration() float64 {
	if i.FPS <= 0 {
		return 0
	}
	return float64(i.TotalFrames) / i.FPS
}

// Timestamp returns the nominal time of a frame index in seconds.
func (i VideoInfo) Timestamp(index int) float64 {
	if i.FPS <= 0 {
		return 0
	}
	return float64(index) / i.FPS
}

// Video is an opened video. Close must be called once the caller is done with it.
type Video interface {
	Info() VideoInfo
	Frame(ctx context.Context, index int) ([]byte, error)
	Close() error
}

type VideoSource interface {
	Open(ctx context.Context, path string) (Video, error)
}

type Frame struct {
	Index     int
	Timestamp float64
	Image     []byte
}

type Sample struct {
	Info   VideoInfo
	Frames []Frame
}

// SampleIndices spreads min(maxFrames, total) indices evenly over [0, total-1],
// rounding each interpolated position to the nearest frame.
func SampleIndices(total, maxFrames int) []int {
	n := maxFrames
	if total < n {
		n = total
	}
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []int{0}
	}

	span := total - 1
	steps := n - 1
	indices := make([]int, n)
	for i := range indices {
		indices[i] = (2*i*span + steps) / (2 * steps)
	}
	return indices
}

type Sampler struct {
	source    VideoSource
	maxFrames int
}

func NewSampler(source VideoSource, maxFrames int) *Sampler {
	return &Sampler{source: source, maxFrames: maxFrames}
}

func (s *Sampler) MaxFrames() int {
	return s.maxFrames
}

func (s *Sampler) Sample(ctx context.Context, path string) (*Sample, error) {
	return s.SampleN(ctx, path, s.maxFrames)
}

// SampleN decodes up to maxFrames evenly spaced frames. Frames that fail to decode are
// skipped; the video is closed on every return path.
func (s *Sampler) SampleN(ctx context.Context, path string, maxFrames int) (*Sample, error) {
	video, err := s.source.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	defer func() {
		if err := video.Close(); err != nil {
			log.Warnf("Failed to close video %s: %v", path, err)
		}
	}()

	info := video.Info()
	if info.TotalFrames <= 0 {
		return nil, ErrEmptySource
	}

	indices := SampleIndices(info.TotalFrames, maxFrames)
	sample := &Sample{
		Info:   info,
		Frames: make([]Frame, 0, len(indices)),
	}

	for _, index := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := video.Frame(ctx, index)
		if err != nil {
			log.Warnf("Skipping frame %d of %s: %v", index, path, err)
			continue
		}
		sample.Frames = append(sample.Frames, Frame{
			Index:     index,
			Timestamp: info.Timestamp(index),
			Image:     data,
		})
	}

	log.Debugf("Sampled %d/%d frames from %s", len(sample.Frames), len(indices), path)
	return sample, nil
}
