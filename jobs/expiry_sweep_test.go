package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSweeper struct {
	count int
	err   error
	calls int
}

func (s *stubSweeper) SweepExpired(ctx context.Context) (int, error) {
	s.calls++
	return s.count, s.err
}

func TestExpirySweepJobHandle(t *testing.T) {
	sweeper := &stubSweeper{count: 3}
	job := NewExpirySweepJob(sweeper, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	err := job.Handle(context.Background(), NewExpirySweepTask())
	require.NoError(t, err)
	assert.Equal(t, 1, sweeper.calls)
}

func TestExpirySweepJobPropagatesError(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("db down")}
	job := NewExpirySweepJob(sweeper, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	err := job.Handle(context.Background(), NewExpirySweepTask())
	require.Error(t, err)
}

func TestNewExpirySweepTask(t *testing.T) {
	task := NewExpirySweepTask()
	assert.Equal(t, TaskExpirySweep, task.Type())
	assert.Empty(t, task.Payload())
}
