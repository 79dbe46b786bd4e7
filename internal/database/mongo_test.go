package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs only when MONGO_TEST_URL points at a disposable MongoDB instance.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URL")
	if uri == "" {
		t.Skip("MONGO_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "natya_test_" + uuid.New().String()[:8]
	s, err := NewMongoStore(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		_ = s.client.Database(dbName).Drop(context.Background())
		_ = s.Close(context.Background())
	}()

	record := testRecord("dance.mp4", time.Now().UTC().Truncate(time.Millisecond))
	if err := s.Insert(ctx, record); err != nil {
		t.Fatalf("Failed to insert analysis: %v", err)
	}

	got, err := s.FindByID(ctx, record.ID)
	if err != nil || got == nil {
		t.Fatalf("Failed to find analysis: %v", err)
	}
	if got.VideoFilename != record.VideoFilename || len(got.AnalysisData.Scenes) != 2 {
		t.Errorf("Unexpected record: %+v", got)
	}

	missing, err := s.FindByID(ctx, "missing")
	if err != nil || missing != nil {
		t.Errorf("Expected (nil, nil) for missing analysis, got (%v, %v)", missing, err)
	}

	if err := s.SetStory(ctx, record.ID, "story"); err != nil {
		t.Fatalf("Failed to set story: %v", err)
	}

	records, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list analyses: %v", err)
	}
	if len(records) != 1 || records[0].GeneratedStory == nil || *records[0].GeneratedStory != "story" {
		t.Errorf("Unexpected list result: %+v", records)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Expected count 1, got %d (%v)", n, err)
	}
}
