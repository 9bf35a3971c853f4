// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/loov/hrtime"
)

const defaultEventPollDelay = 10 * time.Millisecond

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	eventInterval := time.Duration(cfg.EventPollDelay) * time.Millisecond
	if eventInterval <= 0 {
		eventInterval = defaultEventPollDelay
	}

	return Time{
		fps:            cfg.FramesPerSecond,
		fpsTicker:      time.NewTicker(interval),
		eventPollDelay: cfg.EventPollDelay,
		eventTicker:    time.NewTicker(eventInterval),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventPollDelay int
	eventTicker    *time.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Stop stops the tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}

// Lap is one timed stage
type Lap struct {
	Name     string
	Duration time.Duration
}

// Stopwatch times consecutive stages with the high resolution clock
type Stopwatch struct {
	start time.Duration
	last  time.Duration
	laps  []Lap
}

// NewStopwatch starts a stopwatch
func NewStopwatch() *Stopwatch {
	now := hrtime.Now()
	return &Stopwatch{start: now, last: now}
}

// Lap records the time since the previous lap under name
func (s *Stopwatch) Lap(name string) time.Duration {
	now := hrtime.Now()
	d := now - s.last
	s.last = now
	s.laps = append(s.laps, Lap{Name: name, Duration: d})
	return d
}

// Laps returns the recorded laps in order
func (s *Stopwatch) Laps() []Lap {
	return s.laps
}

// Total returns the time since the stopwatch started
func (s *Stopwatch) Total() time.Duration {
	return hrtime.Since(s.start)
}
