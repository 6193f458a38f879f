package utils

import (
	"sync"
	"time"
)

var (
	nowFunc func() time.Time
	nowMu   sync.Mutex
)

func init() {
	ResetNowFunc()
}

// Now returns the current unix time in seconds from the single clock source
// shared by the whole service.
func Now() uint64 {
	nowMu.Lock()
	f := nowFunc
	nowMu.Unlock()
	ts := f().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// SetNowFunc allows for overriding the clock, primarily for testing.
func SetNowFunc(f func() time.Time) {
	nowMu.Lock()
	nowFunc = f
	nowMu.Unlock()
}

// ResetNowFunc resets the clock to time.Now.
func ResetNowFunc() {
	SetNowFunc(time.Now)
}
