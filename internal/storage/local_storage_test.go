package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorage(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("SaveFile", func(t *testing.T) {
		content := []byte("test video content")

		info := FileInfo{
			Filename:    "test.MOV",
			ContentType: "video/quicktime",
			Size:        int64(len(content)),
		}

		filename, err := storage.SaveFile(bytes.NewReader(content), info)
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if filepath.Ext(filename) != ".mov" {
			t.Errorf("Expected .mov extension, got %s", filepath.Ext(filename))
		}

		savedPath := filepath.Join(tmpDir, filename)
		saved, err := os.ReadFile(savedPath)
		if err != nil {
			t.Fatalf("File was not saved to expected location: %s", savedPath)
		}
		if !bytes.Equal(saved, content) {
			t.Errorf("File content mismatch")
		}
	})

	t.Run("SaveFileDefaultExtension", func(t *testing.T) {
		filename, err := storage.SaveFile(bytes.NewReader([]byte("x")), FileInfo{Filename: "recording"})
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		if filepath.Ext(filename) != ".mp4" {
			t.Errorf("Expected .mp4 extension, got %s", filepath.Ext(filename))
		}
	})

	t.Run("DeleteFile", func(t *testing.T) {
		testFile := "delete-test.mp4"
		fullPath := filepath.Join(tmpDir, testFile)

		if err := os.WriteFile(fullPath, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		if err := storage.DeleteFile(testFile); err != nil {
			t.Fatalf("Failed to delete file: %v", err)
		}

		if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
			t.Errorf("File was not deleted")
		}
	})

	t.Run("PathTraversalPrevention", func(t *testing.T) {
		if _, err := storage.Path("../../../etc/passwd"); err == nil {
			t.Errorf("Path traversal was not prevented")
		}

		if err := storage.DeleteFile("../../../etc/passwd"); err == nil {
			t.Errorf("Path traversal was not prevented in delete")
		}
	})
}

func TestWithStagedFile(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	content := []byte("fake video bytes")

	t.Run("RemovedAfterSuccess", func(t *testing.T) {
		var stagedPath string
		err := WithStagedFile(storage, bytes.NewReader(content), FileInfo{Filename: "a.mp4"}, func(f *StagedFile) error {
			stagedPath = f.Path
			if f.Size != int64(len(content)) {
				t.Errorf("Expected size %d, got %d", len(content), f.Size)
			}
			if _, err := os.Stat(f.Path); err != nil {
				t.Errorf("Staged file missing during callback: %v", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, err := os.Stat(stagedPath); !os.IsNotExist(err) {
			t.Errorf("Staged file was not removed")
		}
	})

	t.Run("RemovedAfterError", func(t *testing.T) {
		boom := errors.New("decode failed")
		var stagedPath string
		err := WithStagedFile(storage, bytes.NewReader(content), FileInfo{Filename: "a.mp4"}, func(f *StagedFile) error {
			stagedPath = f.Path
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected callback error, got %v", err)
		}
		if _, err := os.Stat(stagedPath); !os.IsNotExist(err) {
			t.Errorf("Staged file was not removed")
		}
	})

	t.Run("RemovedAfterPanic", func(t *testing.T) {
		var stagedPath string
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic to propagate")
				}
			}()
			_ = WithStagedFile(storage, bytes.NewReader(content), FileInfo{Filename: "a.mp4"}, func(f *StagedFile) error {
				stagedPath = f.Path
				panic("annotator crashed")
			})
		}()
		if _, err := os.Stat(stagedPath); !os.IsNotExist(err) {
			t.Errorf("Staged file was not removed")
		}
	})

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read storage dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty storage dir, found %d entries", len(entries))
	}
}
