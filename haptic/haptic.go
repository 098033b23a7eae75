// Package haptic drives the vibration motor used to alert the wearer.
package haptic

import (
	"fmt"
	"math"
	"sync"
	"time"
)

type Actuator interface {
	// Trigger starts a buzz of roughly d and returns without waiting for it
	// to finish.
	Trigger(d time.Duration) error
	Close() error
}

type Noop struct{}

func (Noop) Trigger(time.Duration) error { return nil }
func (Noop) Close() error { return nil }

// Fake records every trigger.
type Fake struct {
	mu    sync.Mutex
	calls  []time.Duration
	closed bool
	Err    error
}

func (f *Fake) Trigger(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, d)
	return f.Err
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) Calls() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.calls...)
}

type Options struct {
	Backend string // "pulse", "gpio" or "none"
	// GPIOPath is the sysfs value file of the motor pin.
	GPIOPath string
}

func New(o Options) (Actuator, error) {
	switch o.Backend {
	case "", "none":
		return Noop{}, nil
	case "pulse":
		return NewPulse()
	case "gpio":
		return NewGPIO(o.GPIOPath)
	}
	return nil, fmt.Errorf("haptic: unknown backend %q", o.Backend)
}

const (
	// resonant frequency of a typical coin LRA
	lraFreq    = 175
	sampleRate = 8000
	volume     = 0.9
)

// waveform builds the stereo drive signal for a buzz of duration d. The
// envelope ramps up and down over 10ms so the motor does not click.
func waveform(d time.Duration) []int16 {
	n := int(float64(sampleRate) * d.Seconds())
	ramp := sampleRate / 100
	samples := make([]int16, n*2)
	for i := 0; i < n; i++ {
		env := 1.0
		if i < ramp {
			env = float64(i) / float64(ramp)
		} else if n-i < ramp {
			env = float64(n-i) / float64(ramp)
		}
		t := float64(i) / sampleRate
		s := int16(math.Sin(2*math.Pi*lraFreq*t) * 32767 * volume * env)
		samples[i*2] = s
		samples[i*2+1] = s
	}
	return samples
}
