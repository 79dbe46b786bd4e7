package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	log "github.com/sirupsen/logrus"

	"github.com/ritheshsuvarna/natya/internal/ai"
	"github.com/ritheshsuvarna/natya/internal/app"
	"github.com/ritheshsuvarna/natya/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	config.SetupLogging("warn")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Capabilities")
	tw.AppendHeader(table.Row{"Capability", "Status", "Detail"})

	if _, err := ai.NewFrameExtractor(cfg.Processing.FrameSize); err != nil {
		tw.AppendRow(table.Row{"Video decoding (ffmpeg)", unavailable(), err.Error()})
	} else {
		tw.AppendRow(table.Row{"Video decoding (ffmpeg)", available(), fmt.Sprintf("frames up to %dpx", cfg.Processing.FrameSize)})
	}

	detector := ai.NewDetectorClient(cfg.Detector.URL)
	if detector.Available() {
		tw.AppendRow(table.Row{"Landmark detector", available(), cfg.Detector.URL})
	} else {
		tw.AppendRow(table.Row{"Landmark detector", unavailable(), "LANDMARK_DETECTOR_URL not set, heuristic annotation"})
	}

	generator, err := app.NewGenerator(ctx, cfg)
	switch {
	case err != nil:
		tw.AppendRow(table.Row{"Story provider", unavailable(), err.Error()})
	case generator.Available():
		tw.AppendRow(table.Row{"Story provider", available(), generator.ProviderName()})
	default:
		tw.AppendRow(table.Row{"Story provider", unavailable(), generator.ProviderName() + " has no API key, fallback narrative"})
	}

	var persistentCount int64 = -1
	persistent, err := app.OpenPersistent(ctx, cfg)
	switch {
	case err != nil:
		tw.AppendRow(table.Row{"Persistent store", unavailable(), err.Error()})
	case persistent == nil:
		tw.AppendRow(table.Row{"Persistent store", unavailable(), "STORE_BACKEND=memory"})
	default:
		defer persistent.Close(context.Background())
		persistentCount, err = persistent.Count(ctx)
		if err != nil {
			tw.AppendRow(table.Row{"Persistent store", unavailable(), err.Error()})
		} else {
			tw.AppendRow(table.Row{"Persistent store", available(), persistent.Name()})
		}
	}

	tw.Render()

	if persistentCount >= 0 {
		fmt.Printf("\nStored analyses: %d\n", persistentCount)
	}
}

func available() string {
	return text.FgGreen.Sprint("available")
}

func unavailable() string {
	return text.FgYellow.Sprint("unavailable")
}
