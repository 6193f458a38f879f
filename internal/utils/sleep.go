package utils

import (
	"context"
	"sync"
	"time"
)

var (
	sleepFunc func(context.Context, time.Duration) error
	mu        sync.Mutex
)

func init() {
	ResetSleepFunc()
}

// Sleep waits for d or until ctx is done, whichever comes first. It returns
// the context error in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	mu.Lock()
	f := sleepFunc
	mu.Unlock()
	return f(ctx, d)
}

// SetSleepFunc replaces the wait with f, for tests. The context is still
// honoured once f returns.
func SetSleepFunc(f func(time.Duration)) {
	mu.Lock()
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		f(d)
		return ctx.Err()
	}
	mu.Unlock()
}

func ResetSleepFunc() {
	mu.Lock()
	sleepFunc = sleepContext
	mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
