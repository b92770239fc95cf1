package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	calls  atomic.Int32
	behave func(ctx context.Context) error
}

func (w *countingWorker) Run(ctx context.Context) error {
	w.calls.Add(1)
	return w.behave(ctx)
}

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	worker := &countingWorker{behave: func(context.Context) error { panic("boom") }}

	sup := NewSupervisor(slog.Default(), 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go sup.Add(worker).Run(ctx)

	// Waiting for panics and restarts
	req.Eventually(func() bool { return worker.calls.Load() >= 2 },
		900*time.Millisecond, 20*time.Millisecond)
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	worker := &countingWorker{behave: func(context.Context) error { return nil }}

	sup := NewSupervisor(slog.Default(), 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Supervisor detected a success, returned and stopped
		req.Equal(int32(1), worker.calls.Load())
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_Stop_Cancels_Workers(t *testing.T) {
	req := require.New(t)
	worker := &countingWorker{behave: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}

	sup := NewSupervisor(slog.Default(), 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	// Give the worker time to start before stopping
	req.Eventually(func() bool { return worker.calls.Load() == 1 },
		time.Second, 10*time.Millisecond)
	sup.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Supervisor did not stop after Stop()")
	}
}
