package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ritheshsuvarna/natya/internal/ai"
	"github.com/ritheshsuvarna/natya/internal/database"
	"github.com/ritheshsuvarna/natya/internal/story"
)

const (
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Processing ProcessingConfig `yaml:"processing"`
	Detector   DetectorConfig   `yaml:"detector"`
	Store      StoreConfig      `yaml:"store"`
	Story      StoryConfig      `yaml:"story"`
	LogLevel   string           `yaml:"log_level"`
}

type ServerConfig struct {
	Port          string   `yaml:"port"`
	MaxUploadSize int64    `yaml:"max_upload_size"`
	UploadDir     string   `yaml:"upload_dir"`
	CORSOrigins   []string `yaml:"cors_origins"`
}

type ProcessingConfig struct {
	Timeout               time.Duration `yaml:"timeout"`
	MaxConcurrentAnalyses int           `yaml:"max_concurrent_analyses"`
	MaxFramesPerVideo     int           `yaml:"max_frames_per_video"`
	FrameSize             int           `yaml:"frame_size"`
}

type DetectorConfig struct {
	URL     string `yaml:"url"`
	Workers int    `yaml:"workers"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"`
	MongoURL   string `yaml:"mongo_url"`
	DBName     string `yaml:"db_name"`
	SQLitePath string `yaml:"db_path"`
	Host       string `yaml:"db_host"`
	Port       int    `yaml:"db_port"`
	User       string `yaml:"db_user"`
	Password   string `yaml:"db_password"`
}

type StoryConfig struct {
	Provider      string        `yaml:"provider"`
	GoogleAPIKey  string        `yaml:"google_api_key"`
	GeminiModel   string        `yaml:"gemini_model"`
	OpenAIAPIKey  string        `yaml:"openai_api_key"`
	OpenAIModel   string        `yaml:"openai_model"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Load reads .env, then the YAML file named by CONFIG_FILE (or ./config.yaml when present),
// then applies environment overrides and defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	required := configFile != ""
	if configFile == "" {
		configFile = "config.yaml"
	}

	return load(configFile, required)
}

func load(configFile string, required bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
		log.Debugf("Loaded config file %s", configFile)
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	envString("PORT", &c.Server.Port)
	envString("UPLOAD_DIR", &c.Server.UploadDir)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	envString("LANDMARK_DETECTOR_URL", &c.Detector.URL)
	envString("STORE_BACKEND", &c.Store.Backend)
	envString("MONGO_URL", &c.Store.MongoURL)
	envString("DB_NAME", &c.Store.DBName)
	envString("DB_PATH", &c.Store.SQLitePath)
	envString("DB_HOST", &c.Store.Host)
	envString("DB_USER", &c.Store.User)
	envString("DB_PASSWORD", &c.Store.Password)
	envString("STORY_PROVIDER", &c.Story.Provider)
	envString("GOOGLE_API_KEY", &c.Story.GoogleAPIKey)
	envString("GEMINI_MODEL", &c.Story.GeminiModel)
	envString("OPENAI_API_KEY", &c.Story.OpenAIAPIKey)
	envString("OPENAI_MODEL", &c.Story.OpenAIModel)
	envString("OPENAI_BASE_URL", &c.Story.OpenAIBaseURL)
	envString("LOG_LEVEL", &c.LogLevel)

	return errors.Join(
		envInt64("MAX_UPLOAD_SIZE", &c.Server.MaxUploadSize),
		envDuration("PROCESSING_TIMEOUT", &c.Processing.Timeout),
		envInt("MAX_CONCURRENT_ANALYSES", &c.Processing.MaxConcurrentAnalyses),
		envInt("MAX_FRAMES_PER_VIDEO", &c.Processing.MaxFramesPerVideo),
		envInt("FRAME_SIZE", &c.Processing.FrameSize),
		envInt("DETECTOR_WORKERS", &c.Detector.Workers),
		envInt("DB_PORT", &c.Store.Port),
		envDuration("STORY_TIMEOUT", &c.Story.Timeout),
	)
}

func (c *Config) applyDefaults() {
	aiDefaults := ai.NewConfig()

	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.Server.MaxUploadSize == 0 {
		c.Server.MaxUploadSize = 100 << 20
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = filepath.Join(os.TempDir(), "natya-uploads")
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}

	if c.Processing.Timeout == 0 {
		c.Processing.Timeout = 5 * time.Minute
	}
	if c.Processing.MaxConcurrentAnalyses == 0 {
		c.Processing.MaxConcurrentAnalyses = 4
	}
	if c.Processing.MaxFramesPerVideo == 0 {
		c.Processing.MaxFramesPerVideo = aiDefaults.MaxFramesPerVideo
	}
	if c.Processing.FrameSize == 0 {
		c.Processing.FrameSize = aiDefaults.FrameSize
	}
	if c.Detector.Workers == 0 {
		c.Detector.Workers = aiDefaults.DetectorWorkers
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		if c.Store.MongoURL != "" {
			c.Store.Backend = BackendMongo
		} else {
			c.Store.Backend = BackendMemory
		}
	}
	if c.Store.DBName == "" {
		c.Store.DBName = database.DefaultMongoDatabase
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "./natya.db"
	}
	if c.Store.Host == "" {
		c.Store.Host = "localhost"
	}
	if c.Store.Port == 0 {
		c.Store.Port = 5432
	}

	c.Story.Provider = strings.ToLower(strings.TrimSpace(c.Story.Provider))
	if c.Story.Provider == "" {
		c.Story.Provider = "gemini"
	}
	if c.Story.GeminiModel == "" {
		c.Story.GeminiModel = "gemini-2.5-flash"
	}
	if c.Story.OpenAIModel == "" {
		c.Story.OpenAIModel = "gpt-4o"
	}
	if c.Story.Timeout == 0 {
		c.Story.Timeout = 60 * time.Second
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port %q (set PORT or server.port)", c.Server.Port)
	}
	if c.Server.MaxUploadSize < 0 {
		return fmt.Errorf("max upload size must be positive (set MAX_UPLOAD_SIZE)")
	}
	if c.Processing.Timeout < 0 {
		return fmt.Errorf("processing timeout must be positive (set PROCESSING_TIMEOUT)")
	}
	if c.Processing.MaxConcurrentAnalyses < 0 || c.Processing.MaxFramesPerVideo < 0 ||
		c.Processing.FrameSize < 0 || c.Detector.Workers < 0 {
		return fmt.Errorf("processing limits must be positive")
	}

	switch c.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendMongo:
		if c.Store.MongoURL == "" {
			return fmt.Errorf("MongoDB URL is required for the mongo store (set MONGO_URL or store.mongo_url)")
		}
	case BackendPostgres:
		if c.Store.User == "" {
			return fmt.Errorf("database user is required for the postgres store (set DB_USER or store.db_user)")
		}
	default:
		return fmt.Errorf("unknown store backend %q (set STORE_BACKEND to mongo, sqlite, postgres or memory)", c.Store.Backend)
	}

	switch c.Story.Provider {
	case "gemini", "google", "openai":
	default:
		return fmt.Errorf("unknown story provider %q (set STORY_PROVIDER to gemini or openai)", c.Story.Provider)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

func (c *Config) AI() *ai.Config {
	return &ai.Config{
		MaxFramesPerVideo: c.Processing.MaxFramesPerVideo,
		FrameSize:         c.Processing.FrameSize,
		DetectorURL:       c.Detector.URL,
		DetectorWorkers:   c.Detector.Workers,
	}
}

// Database returns the SQL connection settings for the sqlite and postgres backends.
func (c *Config) Database() database.Config {
	return database.Config{
		Type:       c.Store.Backend,
		Host:       c.Store.Host,
		Port:       c.Store.Port,
		User:       c.Store.User,
		Password:   c.Store.Password,
		Name:       c.Store.DBName,
		SQLitePath: c.Store.SQLitePath,
	}
}

func (c *Config) StoryProvider() story.Config {
	return story.Config{
		Provider:      c.Story.Provider,
		GoogleAPIKey:  c.Story.GoogleAPIKey,
		GeminiModel:   c.Story.GeminiModel,
		OpenAIAPIKey:  c.Story.OpenAIAPIKey,
		OpenAIModel:   c.Story.OpenAIModel,
		OpenAIBaseURL: c.Story.OpenAIBaseURL,
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
