package artifacts

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Writer persists artifacts idempotently: the target directory and file are
// created when missing, and content is only written when it differs from
// what is on disk. Unchanged files keep their modification times.
type Writer struct {
	log logrus.FieldLogger
}

// NewWriter creates a new artifact writer
func NewWriter(log logrus.FieldLogger) *Writer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Writer{log: log}
}

// Write ensures path holds content. Creating a missing file counts as a
// write even when content is empty.
func (w *Writer) Write(path string, content []byte) (*Artifact, error) {
	artifact := &Artifact{Path: path, Content: content}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create directory for %s: %v", ErrWriteFailed, path, err)
	}

	if _, err := os.Stat(path); err == nil {
		artifact.Existed = true
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrWriteFailed, path, err)
	}
	defer file.Close()

	existing, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrWriteFailed, path, err)
	}

	if bytes.Equal(existing, content) {
		artifact.Written = !artifact.Existed
		w.log.WithField("output", path).Debug("Artifact unchanged")
		return artifact, nil
	}

	if err := file.Truncate(0); err != nil {
		return nil, fmt.Errorf("%w: truncate %s: %v", ErrWriteFailed, path, err)
	}
	if _, err := file.WriteAt(content, 0); err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", ErrWriteFailed, path, err)
	}
	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("%w: sync %s: %v", ErrWriteFailed, path, err)
	}

	artifact.Written = true
	w.log.WithField("output", path).Debug("Artifact written")
	return artifact, nil
}
