// Package display renders the live transcript on the wearable's text panel.
package display

import (
	"slices"
	"sync"
)

type Renderer interface {
	Clear() error
	RenderLines(lines []string) error
	Present() error
	Close() error
}

// Recorder keeps what would have been shown. Used by tests and headless runs.
type Recorder struct {
	mu       sync.Mutex
	pending  []string
	shown    []string
	presents int

	FailRender error
}

func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	return nil
}

func (r *Recorder) RenderLines(lines []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailRender != nil {
		return r.FailRender
	}
	r.pending = slices.Clone(lines)
	return nil
}

func (r *Recorder) Present() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = r.pending
	r.presents++
	return nil
}

func (r *Recorder) Close() error { return nil }

// Shown returns the lines of the last present.
func (r *Recorder) Shown() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.shown)
}

func (r *Recorder) Presents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presents
}
