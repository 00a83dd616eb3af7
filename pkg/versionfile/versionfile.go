// Package versionfile writes the version-stamp file: a generated source file
// under the source root holding compiler-supplied bootstrap code (typically
// a variable carrying the application version).
package versionfile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/platinummonkey/cssprep/pkg/artifacts"
	"github.com/platinummonkey/cssprep/pkg/config"
	"github.com/platinummonkey/cssprep/pkg/plugins"
	"github.com/sirupsen/logrus"
)

// Disclaimer prefixes every generated version file
const Disclaimer = "/* do not edit; generated automatically by cssprep */ "

// ErrFieldInvalid is returned when file_name or var_name is missing
var ErrFieldInvalid = errors.New("versioned_css_file field invalid")

// Validate checks both fields. Each missing field is reported on its own.
func Validate(vf *config.VersionedFile) error {
	if vf == nil {
		return nil
	}

	var errs []error
	if strings.TrimSpace(vf.FileName) == "" {
		errs = append(errs, fmt.Errorf("%w: file_name must be a non-empty string", ErrFieldInvalid))
	}
	if strings.TrimSpace(vf.VarName) == "" {
		errs = append(errs, fmt.Errorf("%w: var_name must be a non-empty string", ErrFieldInvalid))
	}
	return errors.Join(errs...)
}

// Render returns the full file content for a version code
func Render(code string) string {
	return Disclaimer + code
}

// Writer regenerates the version file
type Writer struct {
	artifacts *artifacts.Writer
	log       logrus.FieldLogger
}

// NewWriter creates a version file writer
func NewWriter(w *artifacts.Writer, log logrus.FieldLogger) *Writer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if w == nil {
		w = artifacts.NewWriter(log)
	}
	return &Writer{artifacts: w, log: log}
}

// Write asks coder for the version code and persists it to fileName under
// app.SourceRoot, rewriting the file only when the content changed
func (w *Writer) Write(ctx context.Context, coder plugins.VersionCoder, app *plugins.App, fileName string) (*artifacts.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	code, err := coder.VersionCode(app)
	if err != nil {
		return nil, fmt.Errorf("failed to render version code: %w", err)
	}

	path := filepath.Join(app.SourceRoot, filepath.FromSlash(fileName))
	artifact, err := w.artifacts.Write(path, []byte(Render(code)))
	if err != nil {
		return nil, err
	}

	w.log.WithFields(logrus.Fields{
		"file":    fileName,
		"written": artifact.Written,
	}).Debug("Version file checked")
	return artifact, nil
}
