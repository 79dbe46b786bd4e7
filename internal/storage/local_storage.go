package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

func (ls *LocalStorage) SaveFile(file io.Reader, info FileInfo) (string, error) {
	ext := strings.ToLower(filepath.Ext(info.Filename))
	if ext == "" || len(ext) > 8 {
		ext = ".mp4"
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	fullPath := filepath.Join(ls.basePath, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

// Path resolves a staged file name to its location on disk.
func (ls *LocalStorage) Path(name string) (string, error) {
	cleanPath := filepath.Clean(name)
	if strings.Contains(cleanPath, "..") || filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("invalid path")
	}
	return filepath.Join(ls.basePath, cleanPath), nil
}

func (ls *LocalStorage) DeleteFile(name string) error {
	fullPath, err := ls.Path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// StagedFile is an upload written to disk. Release removes it.
type StagedFile struct {
	Name string
	Path string
	Size int64

	storage Storage
}

func (f *StagedFile) Release() {
	if err := f.storage.DeleteFile(f.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("Failed to remove staged file %s: %v", f.Path, err)
	}
}

// Stage writes r to storage and returns the staged file. The caller must Release it.
func Stage(s Storage, r io.Reader, info FileInfo) (*StagedFile, error) {
	counter := &countingReader{r: r}
	name, err := s.SaveFile(counter, info)
	if err != nil {
		return nil, err
	}

	path, err := s.Path(name)
	if err != nil {
		s.DeleteFile(name)
		return nil, err
	}

	return &StagedFile{Name: name, Path: path, Size: counter.n, storage: s}, nil
}

// WithStagedFile stages r, calls fn with its path and removes the file on every exit path,
// panics included.
func WithStagedFile(s Storage, r io.Reader, info FileInfo, fn func(staged *StagedFile) error) error {
	staged, err := Stage(s, r, info)
	if err != nil {
		return err
	}
	defer staged.Release()

	return fn(staged)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
