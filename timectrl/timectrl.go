// Package timectrl steps simulated time through a sequence of epochs, e.g.
// the visits of an observing night.
package timectrl

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Clock reports the current simulated time.
type Clock interface {
	Now() time.Time
}

// Mode describes how the TimeController advances simulated time.
type Mode int

const (
	// RealTime waits one wall-clock Tick between epochs.
	RealTime Mode = iota
	// Accelerated advances as quickly as the listeners return.
	Accelerated
)

// ErrBadTick is returned when the tick is not positive.
var ErrBadTick = errors.New("tick must be positive")

// Listener is invoked once per epoch. Returning an error stops the run.
type Listener func(ctx context.Context, epoch time.Time) error

// TimeController drives simulated time and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	listeners   []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulated time. Implements Clock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime moves the clock without notifying listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.mu.Unlock()
}

// AddListener registers a callback invoked on every epoch.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// Epochs lists the epochs Run visits for duration: StartTime and every Tick
// after it up to and including StartTime+duration.
func (tc *TimeController) Epochs(duration time.Duration) []time.Time {
	if tc.Tick <= 0 || duration < 0 {
		return nil
	}
	n := int(duration/tc.Tick) + 1
	out := make([]time.Time, n)
	for i := range out {
		out[i] = tc.StartTime.Add(time.Duration(i) * tc.Tick)
	}
	return out
}

// Run steps through Epochs(duration), notifying listeners at each one. It
// stops early on context cancellation or the first listener error.
func (tc *TimeController) Run(ctx context.Context, duration time.Duration) error {
	if tc.Tick <= 0 {
		return ErrBadTick
	}
	tc.mu.RLock()
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.RUnlock()

	var ticker *time.Ticker
	if tc.Mode == RealTime {
		ticker = time.NewTicker(tc.Tick)
		defer ticker.Stop()
	}

	for i, epoch := range tc.Epochs(duration) {
		if i > 0 && ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		tc.SetTime(epoch)
		for _, fn := range listeners {
			if err := fn(ctx, epoch); err != nil {
				return err
			}
		}
	}
	return nil
}
