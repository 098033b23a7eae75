package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"earshot/audio"
	"earshot/store"
)

// frameSource hands out silent frames, optionally failing on the listed calls.
type frameSource struct {
	mu    sync.Mutex
	calls int
	errs  map[int]error
	short map[int]bool
}

func (s *frameSource) CaptureFrame(ctx context.Context, d time.Duration) (audio.Frame, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return audio.Frame{}, err
	}
	want := audio.SamplesFor(d, 16000, 1)
	if s.short[n] {
		f := audio.Frame{Samples: make([]int16, want/2), SampleRate: 16000, Channels: 1}
		return f, audio.ErrShortRead
	}
	if err := s.errs[n]; err != nil {
		return audio.Frame{SampleRate: 16000, Channels: 1}, err
	}
	return audio.Frame{Samples: make([]int16, want), SampleRate: 16000, Channels: 1}, nil
}

func (s *frameSource) Close() {}

func (s *frameSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// memStore is an in-memory store.Store that can fail on a given append.
type memStore struct {
	mu      sync.Mutex
	texts   []string
	appends int
	failAt  map[int]bool
}

var errDisk = errors.New("disk full")

func (m *memStore) Append(_ context.Context, _ time.Time, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	if m.failAt[m.appends] {
		return errDisk
	}
	m.texts = append(m.texts, text)
	return nil
}

func (m *memStore) Unsynced(context.Context) ([]store.Record, error) { return nil, nil }
func (m *memStore) MarkSynced(context.Context, []string) error      { return nil }
func (m *memStore) Close() error                                    { return nil }

func (m *memStore) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}
