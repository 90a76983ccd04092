package background

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingExpirer struct {
	calls atomic.Int64
}

func (c *countingExpirer) ExpireOverdue(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, nil
}

func TestExpiryManager_RunsImmediatelyAndStops(t *testing.T) {
	expirer := &countingExpirer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := NewExpiryManager(expirer, logger, time.Hour)

	done := make(chan struct{})
	go func() {
		manager.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return expirer.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	manager.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
}

func TestExpiryManager_ContextCancellation(t *testing.T) {
	expirer := &countingExpirer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := NewExpiryManager(expirer, logger, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		manager.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return expirer.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop on context cancel")
	}
}

func TestExpiryManager_TickerSweeps(t *testing.T) {
	expirer := &countingExpirer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := NewExpiryManager(expirer, logger, 20*time.Millisecond)

	go manager.Start(context.Background())
	defer manager.Stop()

	assert.Eventually(t, func() bool {
		return expirer.calls.Load() >= 3
	}, time.Second, 10*time.Millisecond)
}
