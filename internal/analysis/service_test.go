package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritheshsuvarna/natya/internal/ai"
	"github.com/ritheshsuvarna/natya/internal/apperr"
	"github.com/ritheshsuvarna/natya/internal/models"
	"github.com/ritheshsuvarna/natya/internal/processing"
	"github.com/ritheshsuvarna/natya/internal/storage"
	"github.com/ritheshsuvarna/natya/internal/store"
	"github.com/ritheshsuvarna/natya/internal/story"
)

type syntheticVideo struct {
	info ai.VideoInfo
}

func (v *syntheticVideo) Info() ai.VideoInfo { return v.info }
func (v *syntheticVideo) Close() error       { return nil }

func (v *syntheticVideo) Frame(ctx context.Context, index int) ([]byte, error) {
	return []byte(fmt.Sprintf("frame-%d", index)), nil
}

// syntheticSource opens every staged file as a video with fixed frame count and rate.
type syntheticSource struct {
	info    ai.VideoInfo
	openErr error
	opened  []string
	mu      sync.Mutex
}

func (s *syntheticSource) Open(ctx context.Context, path string) (ai.Video, error) {
	s.mu.Lock()
	s.opened = append(s.opened, path)
	s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return &syntheticVideo{info: s.info}, nil
}

type countingGenerator struct {
	calls atomic.Int32
	delay time.Duration
}

func (g *countingGenerator) Generate(ctx context.Context, data models.AnalysisData) story.Result {
	n := g.calls.Add(1)
	time.Sleep(g.delay)
	return story.Result{Story: fmt.Sprintf("story #%d over %d scenes", n, len(data.Scenes)), Source: story.SourceModel}
}

type testEnv struct {
	service   *Service
	source    *syntheticSource
	generator *countingGenerator
	store     *store.Store
	uploadDir string
}

// storyWriteFailingTier persists records but rejects every story write.
type storyWriteFailingTier struct {
	mu      sync.Mutex
	records map[string]*models.AnalysisRecord
}

func (f *storyWriteFailingTier) Name() string { return "flaky" }

func (f *storyWriteFailingTier) Insert(_ context.Context, record *models.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = record.Clone()
	return nil
}

func (f *storyWriteFailingTier) FindByID(_ context.Context, id string) (*models.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id].Clone(), nil
}

func (f *storyWriteFailingTier) SetStory(context.Context, string, string) error {
	return errors.New("story write rejected")
}

func (f *storyWriteFailingTier) List(context.Context, int) ([]*models.AnalysisRecord, error) {
	return nil, nil
}

func (f *storyWriteFailingTier) Count(context.Context) (int64, error) { return 0, nil }
func (f *storyWriteFailingTier) Close(context.Context) error          { return nil }

func newTestEnv(t *testing.T, info ai.VideoInfo, maxFrames int) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, info, maxFrames, store.New(nil))
}

func newTestEnvWithStore(t *testing.T, info ai.VideoInfo, maxFrames int, analysisStore *store.Store) *testEnv {
	t.Helper()

	uploadDir := t.TempDir()
	local, err := storage.NewLocalStorage(uploadDir)
	require.NoError(t, err)

	source := &syntheticSource{info: info}
	generator := &countingGenerator{}

	service := NewService(
		ai.NewSampler(source, maxFrames),
		ai.NewAnnotator(nil, 2),
		generator,
		analysisStore,
		local,
		processing.NewPool(2, 5*time.Second),
		Config{MaxFramesPerVideo: maxFrames},
	)

	return &testEnv{
		service:   service,
		source:    source,
		generator: generator,
		store:     analysisStore,
		uploadDir: uploadDir,
	}
}

func (e *testEnv) upload(t *testing.T, contentType string) (*models.AnalysisRecord, error) {
	t.Helper()
	return e.service.Upload(context.Background(), bytes.NewReader([]byte("not really a video")), storage.FileInfo{
		Filename:    "varnam.mp4",
		ContentType: contentType,
	})
}

func TestUploadSyntheticVideo(t *testing.T) {
	env := newTestEnv(t, ai.VideoInfo{TotalFrames: 60, FPS: 30}, 5)

	record, err := env.upload(t, "video/mp4")
	require.NoError(t, err)

	assert.Equal(t, "varnam.mp4", record.VideoFilename)
	assert.Equal(t, models.StatusAnalyzed, record.Status)
	assert.Nil(t, record.GeneratedStory)

	data := record.AnalysisData
	assert.Equal(t, 60, data.TotalFrames)
	assert.Equal(t, 30.0, data.FPS)
	assert.Equal(t, 2.0, data.DurationSeconds)
	assert.Equal(t, models.DetectionHeuristic, data.DetectionMode)

	require.Len(t, data.Scenes, 5)
	assert.Equal(t, 0, data.Scenes[0].FrameNumber)
	assert.Equal(t, 59, data.Scenes[4].FrameNumber)
	for i, scene := range data.Scenes {
		if i > 0 {
			assert.Greater(t, scene.FrameNumber, data.Scenes[i-1].FrameNumber)
		}
		assert.True(t, scene.PoseDetected)
		assert.NotEmpty(t, scene.Action)
		assert.NotEmpty(t, scene.Mudra)
		assert.NotEmpty(t, scene.Emotion)
		assert.NotEmpty(t, scene.Interpretation)
	}

	stored, err := env.service.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.AnalysisData, stored.AnalysisData)

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload should be removed")
}

func TestUploadRejectsNonVideo(t *testing.T) {
	env := newTestEnv(t, ai.VideoInfo{TotalFrames: 60, FPS: 30}, 5)

	_, err := env.upload(t, "text/plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	assert.Empty(t, env.service.List(context.Background(), 0))
	assert.Empty(t, env.source.opened)
}

func TestUploadProcessingFailures(t *testing.T) {
	t.Run("unreadable source", func(t *testing.T) {
		env := newTestEnv(t, ai.VideoInfo{TotalFrames: 60, FPS: 30}, 5)
		env.source.openErr = errors.New("moov atom not found")

		_, err := env.upload(t, "video/mp4")
		assert.ErrorIs(t, err, apperr.ErrProcessingFailed)
		assert.ErrorIs(t, err, ai.ErrSourceUnreadable)
		assert.Contains(t, err.Error(), "moov atom not found")
		assert.Empty(t, env.service.List(context.Background(), 0))
	})

	t.Run("empty source", func(t *testing.T) {
		env := newTestEnv(t, ai.VideoInfo{TotalFrames: 0, FPS: 30}, 5)

		_, err := env.upload(t, "video/mp4")
		assert.ErrorIs(t, err, apperr.ErrProcessingFailed)
		assert.ErrorIs(t, err, ai.ErrEmptySource)
	})
}

func TestGenerateStoryIsIdempotent(t *testing.T) {
	env := newTestEnv(t, ai.VideoInfo{TotalFrames: 60, FPS: 30}, 5)
	ctx := context.Background()

	record, err := env.upload(t, "video/mp4")
	require.NoError(t, err)

	first, err := env.service.GenerateStory(ctx, record.ID)
	require.NoError(t, err)
	second, err := env.service.GenerateStory(ctx, record.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), env.generator.calls.Load())

	stored, err := env.service.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.GeneratedStory)
	assert.Equal(t, first, *stored.GeneratedStory)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestGenerateStoryIdempotentWhenPersistentStoryWriteFails(t *testing.T) {
	tier := &storyWriteFailingTier{records: make(map[string]*models.AnalysisRecord)}
	env := newTestEnvWithStore(t, ai.VideoInfo{TotalFrames: 60, FPS: 30}, 5, store.New(tier))
	ctx := context.Background()

	record, err := env.upload(t, "video/mp4")
	require.NoError(t, err)

	first, err := env.service.GenerateStory(ctx, record.ID)
	require.NoError(t, err)
	second, err := env.service.GenerateStory(ctx, record.ID)
	require.NoError(t, err)

	assert.Equal(t, "story #1 over 5 scenes", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), env.generator.calls.Load())
}

func TestGenerateStoryConcurrentCallsGenerateOnce(t *testing.T) {
	env := newTestEnv(t, ai.VideoInfo{TotalFrames: 60, FPS: 30}, 5)
	env.generator.delay = 10 * time.Millisecond
	ctx := context.Background()

	record, err := env.upload(t, "video/mp4")
	require.NoError(t, err)

	stories := make([]string, 8)
	var wg sync.WaitGroup
	for i := range stories {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := env.service.GenerateStory(ctx, record.ID)
			assert.NoError(t, err)
			stories[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), env.generator.calls.Load())
	for _, s := range stories {
		assert.Equal(t, stories[0], s)
	}
	assert.Equal(t, 0, env.service.locks.size())
}

func TestGenerateStoryUnknownID(t *testing.T) {
	env := newTestEnv(t, ai.VideoInfo{TotalFrames: 60, FPS: 30}, 5)

	_, err := env.service.GenerateStory(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.service.GenerateStory(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, int32(0), env.generator.calls.Load())
}

func TestListNewestFirst(t *testing.T) {
	env := newTestEnv(t, ai.VideoInfo{TotalFrames: 30, FPS: 30}, 3)

	var ids []string
	for i := 0; i < 3; i++ {
		record, err := env.upload(t, "video/webm")
		require.NoError(t, err)
		ids = append(ids, record.ID)
		time.Sleep(2 * time.Millisecond)
	}

	records := env.service.List(context.Background(), 0)
	require.Len(t, records, 3)
	assert.Equal(t, ids[2], records[0].ID)
	assert.Equal(t, ids[0], records[2].ID)
}

func TestAnalyzeFileHonoursMaxFrames(t *testing.T) {
	env := newTestEnv(t, ai.VideoInfo{TotalFrames: 100, FPS: 25}, 50)

	path := env.uploadDir + "/local.mp4"
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	data, err := env.service.AnalyzeFile(context.Background(), path, 4)
	require.NoError(t, err)
	require.Len(t, data.Scenes, 4)
	assert.Equal(t, 99, data.Scenes[3].FrameNumber)
}
