package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_Success(t *testing.T) {
	logger, hook := test.NewNullLogger()

	task := Go(context.Background(), "test task", logger, func(ctx context.Context) error {
		return nil
	})

	require.NoError(t, task.Wait())
	assert.Equal(t, "test task", task.Name())
	assert.Empty(t, hook.AllEntries())
}

func TestGo_WithError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	want := errors.New("test error")

	task := Go(context.Background(), "test task", logger, func(ctx context.Context) error {
		return want
	})

	assert.ErrorIs(t, task.Wait(), want)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "test task", hook.LastEntry().Data["task"])
}

func TestGo_PanicRecovery(t *testing.T) {
	logger, hook := test.NewNullLogger()

	task := Go(context.Background(), "panicky", logger, func(ctx context.Context) error {
		panic("test panic")
	})

	err := task.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test panic")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestGo_ContextPropagation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	task := Go(ctx, "waiter", nil, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	select {
	case <-task.Done():
		t.Fatal("task finished before cancellation")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	assert.ErrorIs(t, task.Wait(), context.Canceled)
}

func TestTask_WaitNil(t *testing.T) {
	var task *Task
	assert.NoError(t, task.Wait())
}

func TestTask_WaitIsRepeatable(t *testing.T) {
	task := Go(context.Background(), "once", nil, func(ctx context.Context) error {
		return errors.New("boom")
	})

	first := task.Wait()
	second := task.Wait()
	assert.Equal(t, first, second)
}
