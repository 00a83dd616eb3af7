package versionfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/platinummonkey/cssprep/pkg/config"
	"github.com/platinummonkey/cssprep/pkg/plugins"
	"github.com/platinummonkey/cssprep/pkg/plugins/plugintest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		vf      *config.VersionedFile
		wantErr int
	}{
		{name: "absent", vf: nil},
		{name: "complete", vf: &config.VersionedFile{FileName: "version.css", VarName: "v1"}},
		{name: "missing file name", vf: &config.VersionedFile{VarName: "v1"}, wantErr: 1},
		{name: "missing var name", vf: &config.VersionedFile{FileName: "version.css"}, wantErr: 1},
		{name: "both missing", vf: &config.VersionedFile{FileName: " "}, wantErr: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.vf)
			if tt.wantErr == 0 {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrFieldInvalid)
			joined, ok := err.(interface{ Unwrap() []error })
			require.True(t, ok)
			assert.Len(t, joined.Unwrap(), tt.wantErr)
		})
	}
}

func TestWriter_Write(t *testing.T) {
	root := t.TempDir()
	logger, _ := test.NewNullLogger()
	writer := NewWriter(nil, logger)
	compiler := plugintest.New("fake")
	app := &plugins.App{SourceRoot: root, VersionVar: "v1"}

	first, err := writer.Write(context.Background(), compiler, app, "version.css")
	require.NoError(t, err)
	assert.True(t, first.Written)

	data, err := os.ReadFile(filepath.Join(root, "version.css"))
	require.NoError(t, err)
	assert.Equal(t, Disclaimer+"body{}", string(data))

	second, err := writer.Write(context.Background(), compiler, app, "version.css")
	require.NoError(t, err)
	assert.False(t, second.Written)

	compiler.SetVersionText("html{}")
	third, err := writer.Write(context.Background(), compiler, app, "version.css")
	require.NoError(t, err)
	assert.True(t, third.Written)

	data, err = os.ReadFile(filepath.Join(root, "version.css"))
	require.NoError(t, err)
	assert.Equal(t, Disclaimer+"html{}", string(data))
}

type failingCoder struct{}

func (failingCoder) VersionCode(app *plugins.App) (string, error) {
	return "", errors.New("no version")
}

func TestWriter_CoderFailure(t *testing.T) {
	root := t.TempDir()

	_, err := NewWriter(nil, nil).Write(context.Background(), failingCoder{}, &plugins.App{SourceRoot: root}, "version.css")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, "version.css"))
}

func TestWriter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWriter(nil, nil).Write(ctx, plugintest.New("fake"), &plugins.App{SourceRoot: t.TempDir()}, "v.css")
	assert.ErrorIs(t, err, context.Canceled)
}
