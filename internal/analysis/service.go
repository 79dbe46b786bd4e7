// Package analysis ties the frame sampler, annotator, story generator and store together
// behind the operations the HTTP API and CLIs expose.
package analysis

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/ai"
	"github.com/ritheshsuvarna/natya/internal/apperr"
	"github.com/ritheshsuvarna/natya/internal/models"
	"github.com/ritheshsuvarna/natya/internal/processing"
	"github.com/ritheshsuvarna/natya/internal/storage"
	"github.com/ritheshsuvarna/natya/internal/store"
	"github.com/ritheshsuvarna/natya/internal/story"
)

type FrameSampler interface {
	SampleN(ctx context.Context, path string, maxFrames int) (*ai.Sample, error)
}

type FrameAnnotator interface {
	Annotate(ctx context.Context, sample *ai.Sample) (models.AnalysisData, error)
}

type StoryGenerator interface {
	Generate(ctx context.Context, data models.AnalysisData) story.Result
}

type Service struct {
	sampler   FrameSampler
	annotator FrameAnnotator
	generator StoryGenerator
	store     *store.Store
	storage   storage.Storage
	runner    processing.Runner
	maxFrames int
	locks     *keyedMutex
}

type Config struct {
	MaxFramesPerVideo int
}

func NewService(
	sampler FrameSampler,
	annotator FrameAnnotator,
	generator StoryGenerator,
	analysisStore *store.Store,
	storageService storage.Storage,
	runner processing.Runner,
	config Config,
) *Service {
	if config.MaxFramesPerVideo <= 0 {
		config.MaxFramesPerVideo = ai.NewConfig().MaxFramesPerVideo
	}

	return &Service{
		sampler:   sampler,
		annotator: annotator,
		generator: generator,
		store:     analysisStore,
		storage:   storageService,
		runner:    runner,
		maxFrames: config.MaxFramesPerVideo,
		locks:     newKeyedMutex(),
	}
}

func (s *Service) Store() *store.Store {
	return s.store
}

// Upload stages an uploaded video, analyzes it and stores the resulting record. The staged
// file is removed before Upload returns.
func (s *Service) Upload(ctx context.Context, r io.Reader, info storage.FileInfo) (*models.AnalysisRecord, error) {
	if !strings.HasPrefix(strings.ToLower(info.ContentType), "video/") {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, "File must be a video", nil)
	}

	var data models.AnalysisData
	err := storage.WithStagedFile(s.storage, r, info, func(staged *storage.StagedFile) error {
		log.Infof("Staged %s (%s) at %s", info.Filename, humanize.Bytes(uint64(staged.Size)), staged.Path)

		var err error
		data, err = s.AnalyzeFile(ctx, staged.Path, s.maxFrames)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrProcessingFailed, "Error processing video", err)
	}

	record := models.NewAnalysisRecord(info.Filename, data)
	s.store.Put(ctx, record)

	log.Infof("Analysis %s complete: %d scenes from %s (%s mode)",
		record.ID, len(data.Scenes), info.Filename, data.DetectionMode)
	return record, nil
}

// AnalyzeFile samples and annotates a video already on disk, on the processing pool.
func (s *Service) AnalyzeFile(ctx context.Context, path string, maxFrames int) (models.AnalysisData, error) {
	if maxFrames <= 0 {
		maxFrames = s.maxFrames
	}

	var data models.AnalysisData
	err := s.runner.Run(ctx, func(runCtx context.Context) error {
		sample, err := s.sampler.SampleN(runCtx, path, maxFrames)
		if err != nil {
			return fmt.Errorf("sampling frames: %w", err)
		}

		data, err = s.annotator.Annotate(runCtx, sample)
		if err != nil {
			return fmt.Errorf("annotating frames: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.AnalysisData{}, err
	}
	return data, nil
}

// GenerateStory returns the record's story, generating and storing it on first use.
// Calls for the same id are serialized so the generator runs at most once per record.
func (s *Service) GenerateStory(ctx context.Context, id string) (string, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	record, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if record.HasStory() {
		log.Debugf("Analysis %s already has a story", id)
		return *record.GeneratedStory, nil
	}

	result := s.generator.Generate(ctx, record.AnalysisData)
	if result.Degraded() {
		log.Warnf("Story for analysis %s uses the fallback narrative: %v", id, result.Err)
	}

	s.store.UpdateStory(ctx, id, result.Story)
	return result.Story, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) []*models.AnalysisRecord {
	return s.store.List(ctx, limit)
}
