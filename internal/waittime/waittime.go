// Package waittime derives the recommended customer wait time from queue
// depth and observed preparation times.
package waittime

import (
	"sync"
	"time"
)

const (
	// windowSize bounds the rolling history of prep-time samples.
	windowSize = 20
	// defaultPrepMinutes seeds the average before any order has been timed.
	defaultPrepMinutes = 3
	// maxWaitMinutes caps the estimate; beyond this the number stops being
	// information and starts being a complaint.
	maxWaitMinutes = 90
)

// Stats is a rolling window of preparation durations for one station.
type Stats struct {
	mu      sync.Mutex
	samples []time.Duration
}

// Record appends an observed preparation duration, evicting the oldest sample
// once the window is full. Non-positive durations are ignored.
func (s *Stats) Record(prep time.Duration) {
	if prep <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, prep)
	if len(s.samples) > windowSize {
		s.samples = s.samples[len(s.samples)-windowSize:]
	}
}

// AveragePrepMinutes returns the rolling average in minutes, seeded to the
// default when no history exists.
func (s *Stats) AveragePrepMinutes() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		return defaultPrepMinutes
	}
	var total time.Duration
	for _, d := range s.samples {
		total += d
	}
	avg := total / time.Duration(len(s.samples))
	return avg.Minutes()
}

// SampleCount reports how many observations the window currently holds.
func (s *Stats) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// Estimate computes the recommended wait in whole minutes:
// base + queueLength * averagePrep, clamped to [base, maxWaitMinutes]. For a
// fixed average the result never decreases as the queue grows.
func Estimate(queueLength, baseWaitMinutes int, stats *Stats) int {
	if baseWaitMinutes < 0 {
		baseWaitMinutes = 0
	}
	if queueLength < 0 {
		queueLength = 0
	}
	avg := float64(defaultPrepMinutes)
	if stats != nil {
		avg = stats.AveragePrepMinutes()
	}
	if avg < 0 {
		avg = 0
	}
	estimate := float64(baseWaitMinutes) + float64(queueLength)*avg
	minutes := int(estimate + 0.5)
	if minutes < baseWaitMinutes {
		minutes = baseWaitMinutes
	}
	if minutes > maxWaitMinutes {
		minutes = maxWaitMinutes
	}
	return minutes
}
