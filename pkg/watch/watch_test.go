package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	runs atomic.Int32
	err  error
	fn   func()
}

func (r *countingRunner) Run(ctx context.Context) error {
	r.runs.Add(1)
	if r.fn != nil {
		r.fn()
	}
	return r.err
}

type harness struct {
	src    string
	out    string
	runner *countingRunner
	done   chan error
	cancel context.CancelFunc
}

func start(t *testing.T, runner *countingRunner) *harness {
	t.Helper()

	src := t.TempDir()
	out := filepath.Join(src, "build")
	require.NoError(t, os.MkdirAll(out, 0755))

	logger, _ := test.NewNullLogger()
	w, err := New(Config{
		SourceRoot: src,
		OutputRoot: out,
		Debounce:   50 * time.Millisecond,
		Ignore:     []string{"Thumbs.db"},
	}, runner, logger)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{src: src, out: out, runner: runner, done: make(chan error, 1), cancel: cancel}
	go func() { h.done <- w.Watch(ctx) }()
	return h
}

func (h *harness) write(t *testing.T, name string) {
	t.Helper()
	full := filepath.Join(h.src, filepath.FromSlash(name))
	require.NoError(t, os.WriteFile(full, []byte(name+time.Now().String()), 0644))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{SourceRoot: t.TempDir()}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{SourceRoot: filepath.Join(t.TempDir(), "missing")}, &countingRunner{}, nil)
	assert.Error(t, err)
}

func TestWatch_DebouncesBurst(t *testing.T) {
	h := start(t, &countingRunner{})

	for _, name := range []string{"a.styl", "b.styl", "c.styl"} {
		h.write(t, name)
	}

	require.Eventually(t, func() bool { return h.runner.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return h.runner.runs.Load() > 1 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestWatch_IgnoresOutputAndIgnorable(t *testing.T) {
	h := start(t, &countingRunner{})

	require.NoError(t, os.WriteFile(filepath.Join(h.out, "main.css"), []byte("body{}"), 0644))
	h.write(t, "Thumbs.db")

	assert.Never(t, func() bool { return h.runner.runs.Load() > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestWatch_NewDirectories(t *testing.T) {
	h := start(t, &countingRunner{})

	require.NoError(t, os.MkdirAll(filepath.Join(h.src, "partials"), 0755))
	require.Eventually(t, func() bool { return h.runner.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.write(t, "partials/_vars.styl")
	require.Eventually(t, func() bool { return h.runner.runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_StopsOnRunError(t *testing.T) {
	h := start(t, &countingRunner{err: errors.New("css compiler stylus: incompatible")})

	h.write(t, "main.styl")

	select {
	case err := <-h.done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "incompatible")
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_RecoversRunnerPanic(t *testing.T) {
	h := start(t, &countingRunner{fn: func() { panic("boom") }})

	h.write(t, "main.styl")

	select {
	case err := <-h.done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic")
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_ContextCancel(t *testing.T) {
	h := start(t, &countingRunner{})

	h.cancel()

	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Equal(t, int32(0), h.runner.runs.Load())
}
