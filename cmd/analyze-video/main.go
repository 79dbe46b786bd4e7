package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ritheshsuvarna/natya/internal/app"
	"github.com/ritheshsuvarna/natya/internal/config"
	"github.com/ritheshsuvarna/natya/internal/models"
)

type options struct {
	maxFrames int
	story     bool
	save      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "analyze-video <path>",
		Short: "Annotate a local dance video and optionally narrate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVarP(&opts.maxFrames, "max-frames", "n", 0, "Frames to sample (default MAX_FRAMES_PER_VIDEO)")
	cmd.Flags().BoolVar(&opts.story, "story", false, "Generate a narrative for the analysis")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Store the analysis in the configured store")

	return cmd
}

func run(cmd *cobra.Command, path string, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	config.SetupLogging(cfg.LogLevel)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("video not accessible: %w", err)
	}

	ctx := cmd.Context()
	components, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer components.Close(context.Background())

	log.Infof("Analyzing %s", absPath)
	data, err := components.Service.AnalyzeFile(ctx, absPath, opts.maxFrames)
	if err != nil {
		return fmt.Errorf("analyze video: %w", err)
	}

	out := struct {
		ID       string              `json:"id,omitempty"`
		Filename string              `json:"filename"`
		Analysis models.AnalysisData `json:"analysis"`
		Story    string              `json:"story,omitempty"`
		Source   string              `json:"story_source,omitempty"`
	}{
		Filename: filepath.Base(absPath),
		Analysis: data,
	}

	if opts.save {
		record := models.NewAnalysisRecord(out.Filename, data)
		components.Store.Put(ctx, record)
		out.ID = record.ID
	}

	if opts.story {
		result := components.Generator.Generate(ctx, data)
		if result.Err != nil {
			log.Warnf("Using fallback narrative: %v", result.Err)
		}
		out.Story = result.Story
		out.Source = string(result.Source)
		if opts.save {
			components.Store.UpdateStory(ctx, out.ID, result.Story)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
