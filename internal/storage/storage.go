package storage

import (
	"io"
)

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage stages uploaded files on disk for the duration of one analysis.
type Storage interface {
	SaveFile(file io.Reader, info FileInfo) (string, error)
	Path(name string) (string, error)
	DeleteFile(name string) error
}
