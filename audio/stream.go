package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// captureSlack is how long CaptureFrame waits past the frame duration before
// giving up and returning a short frame.
const captureSlack = 500 * time.Millisecond

// maxBufferedFrames bounds how much audio piles up while the consumer is
// busy. The oldest samples are dropped first.
const maxBufferedFrames = 4

// StreamSource turns a push-style CaptureDevice into a Source.
type StreamSource struct {
	backend Backend
	capture CaptureDevice
	name    string
	rate    int
	chans   int

	mu      sync.Mutex
	buf     []int16
	max     int
	dropped uint64
	notify  chan struct{}
}

// Open starts capturing from the named device (empty means system default).
func Open(deviceName string, cfg CaptureConfig) (*StreamSource, error) {
	b, err := NewBackend()
	if err != nil {
		return nil, err
	}
	s, err := openStream(b, deviceName, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	return s, nil
}

func openStream(b Backend, deviceName string, cfg CaptureConfig) (*StreamSource, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Channels == 0 {
		cfg.Channels = DefaultChannels
	}

	dev, err := FindDevice(b, deviceName)
	if err != nil {
		return nil, err
	}
	capture, err := b.NewCapture(dev, cfg)
	if err != nil {
		return nil, fmt.Errorf("capture device init: %w", err)
	}

	name := "system default"
	if dev != nil {
		name = dev.Name
	}
	s := &StreamSource{
		backend: b,
		capture: capture,
		name:    name,
		rate:    int(cfg.SampleRate),
		chans:   int(cfg.Channels),
		max:     SamplesFor(time.Second, int(cfg.SampleRate), int(cfg.Channels)) * maxBufferedFrames,
		notify:  make(chan struct{}, 1),
	}
	capture.SetCallback(s.push)
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return nil, fmt.Errorf("capture start: %w", err)
	}
	return s, nil
}

func (s *StreamSource) DeviceName() string { return s.name }

// Dropped reports how many samples were discarded because nobody read them.
func (s *StreamSource) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *StreamSource) push(data []byte, _ uint32) {
	s.mu.Lock()
	for i := 0; i+1 < len(data); i += 2 {
		s.buf = append(s.buf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	if s.max > 0 && len(s.buf) > s.max {
		over := len(s.buf) - s.max
		s.dropped += uint64(over)
		s.buf = append(s.buf[:0], s.buf[over:]...)
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// take removes up to n samples from the buffer.
func (s *StreamSource) take(n int, partial bool) ([]int16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max < n*maxBufferedFrames {
		s.max = n * maxBufferedFrames
	}
	if len(s.buf) < n && !partial {
		return nil, false
	}
	if n > len(s.buf) {
		n = len(s.buf)
	}
	out := make([]int16, n)
	copy(out, s.buf[:n])
	s.buf = append(s.buf[:0], s.buf[n:]...)
	return out, true
}

func (s *StreamSource) CaptureFrame(ctx context.Context, d time.Duration) (Frame, error) {
	want := SamplesFor(d, s.rate, s.chans)
	deadline := time.NewTimer(d + captureSlack)
	defer deadline.Stop()

	for {
		if samples, ok := s.take(want, false); ok {
			return Frame{Samples: samples, SampleRate: s.rate, Channels: s.chans}, nil
		}
		select {
		case <-s.notify:
		case <-deadline.C:
			samples, _ := s.take(want, true)
			f := Frame{Samples: samples, SampleRate: s.rate, Channels: s.chans}
			return f, fmt.Errorf("%w: got %d of %d samples", ErrShortRead, len(samples), want)
		case <-ctx.Done():
			return Frame{SampleRate: s.rate, Channels: s.chans}, ctx.Err()
		}
	}
}

func (s *StreamSource) Close() {
	s.capture.Stop()
	s.capture.ClearCallback()
	s.capture.Close()
	s.backend.Close()
}
