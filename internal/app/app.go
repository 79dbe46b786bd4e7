// Package app builds the service components from configuration for the binaries under cmd/.
package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/ai"
	"github.com/ritheshsuvarna/natya/internal/analysis"
	"github.com/ritheshsuvarna/natya/internal/config"
	"github.com/ritheshsuvarna/natya/internal/database"
	"github.com/ritheshsuvarna/natya/internal/processing"
	"github.com/ritheshsuvarna/natya/internal/storage"
	"github.com/ritheshsuvarna/natya/internal/store"
	"github.com/ritheshsuvarna/natya/internal/story"
)

type Components struct {
	Service   *analysis.Service
	Store     *store.Store
	Pool      *processing.Pool
	Detector  *ai.DetectorClient
	Generator *story.Generator
	Storage   *storage.LocalStorage
}

// Close drains the pool and closes the store.
func (c *Components) Close(ctx context.Context) {
	if err := c.Pool.Shutdown(ctx); err != nil {
		log.Warnf("Shutdown: %v", err)
	}
	if err := c.Store.Close(ctx); err != nil {
		log.Warnf("Shutdown: %v", err)
	}
}

func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	aiConfig := cfg.AI()

	extractor, err := ai.NewFrameExtractor(aiConfig.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("frame extractor: %w", err)
	}

	localStorage, err := storage.NewLocalStorage(cfg.Server.UploadDir)
	if err != nil {
		return nil, err
	}

	detector := ai.NewDetectorClient(aiConfig.DetectorURL)
	if detector.Available() {
		log.Infof("Landmark detector: %s", aiConfig.DetectorURL)
	} else {
		log.Warn("LANDMARK_DETECTOR_URL not set, scenes will use heuristic annotation")
	}

	generator, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	analysisStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pool := processing.NewPool(cfg.Processing.MaxConcurrentAnalyses, cfg.Processing.Timeout)

	service := analysis.NewService(
		ai.NewSampler(extractor, aiConfig.MaxFramesPerVideo),
		ai.NewAnnotator(detector, aiConfig.DetectorWorkers),
		generator,
		analysisStore,
		localStorage,
		pool,
		analysis.Config{MaxFramesPerVideo: aiConfig.MaxFramesPerVideo},
	)

	return &Components{
		Service:   service,
		Store:     analysisStore,
		Pool:      pool,
		Detector:  detector,
		Generator: generator,
		Storage:   localStorage,
	}, nil
}

func NewGenerator(ctx context.Context, cfg *config.Config) (*story.Generator, error) {
	provider, err := story.NewProvider(ctx, cfg.StoryProvider())
	if err != nil {
		return nil, fmt.Errorf("story provider: %w", err)
	}
	if !provider.IsEnabled() {
		log.Warnf("Story provider %s has no API key, stories will use the fallback narrative", provider.Name())
	}
	return story.NewGenerator(provider, cfg.Story.Timeout), nil
}

// OpenStore connects the configured persistent tier. An unreachable MongoDB degrades to
// the in-process tier only; SQL backends must open and migrate.
func OpenStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	persistent, err := OpenPersistent(ctx, cfg)
	if err != nil {
		if cfg.Store.Backend == config.BackendMongo {
			log.Warnf("MongoDB not available, using in-memory storage: %v", err)
			return store.New(nil), nil
		}
		return nil, err
	}
	if persistent == nil {
		log.Info("Using in-memory analysis storage")
		return store.New(nil), nil
	}

	log.Infof("Using %s analysis storage", persistent.Name())
	return store.New(persistent), nil
}

// OpenPersistent returns nil for the memory backend.
func OpenPersistent(ctx context.Context, cfg *config.Config) (store.Persistent, error) {
	switch cfg.Store.Backend {
	case config.BackendMongo:
		mongoStore, err := database.NewMongoStore(ctx, cfg.Store.MongoURL, cfg.Store.DBName)
		if err != nil {
			return nil, err
		}
		return mongoStore, nil
	case config.BackendSQLite, config.BackendPostgres:
		db, err := database.NewDB(cfg.Database())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if _, err := database.NewMigrator(db).Run(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return database.NewAnalysisRepository(db), nil
	default:
		return nil, nil
	}
}
