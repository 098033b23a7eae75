// Package denoise cleans up captured frames before they reach the transcriber.
package denoise

import (
	"fmt"
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"earshot/audio"
)

type Filter interface {
	// Process returns a cleaned copy of f. The input frame is not modified.
	Process(f audio.Frame) audio.Frame
}

type Passthrough struct{}

func (Passthrough) Process(f audio.Frame) audio.Frame { return f }

const (
	vadFrameMs  = 20
	vadHangover = 10 // 20ms windows kept open after speech ends
)

// Gate silences the parts of a frame the VAD classifies as non-speech. A short
// hangover keeps word endings intact.
type Gate struct {
	vad  *webrtcvad.VAD
	mode int

	mu     sync.Mutex
	open   int
	total  int
	speech int
}

// NewGate creates a noise gate. mode is the webrtc aggressiveness, 0 to 3.
func NewGate(mode int) (*Gate, error) {
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("denoise: vad mode %d out of range", mode)
	}
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("denoise: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("denoise: set mode: %w", err)
	}
	return &Gate{vad: v, mode: mode}, nil
}

func (g *Gate) Process(f audio.Frame) audio.Frame {
	// webrtc VAD only understands mono at these rates
	if f.Channels != 1 || !g.vad.ValidRateAndFrameLength(f.SampleRate, f.SampleRate*vadFrameMs/1000) {
		return f
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	step := f.SampleRate * vadFrameMs / 1000
	out := audio.Frame{
		Samples:    make([]int16, len(f.Samples)),
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
	}
	for off := 0; off < len(f.Samples); off += step {
		end := min(off+step, len(f.Samples))
		window := f.Samples[off:end]
		if len(window) < step {
			// trailing partial window follows the previous decision
			if g.open > 0 {
				copy(out.Samples[off:end], window)
			}
			break
		}

		pcm := audio.Frame{Samples: window}.PCM()
		active, err := g.vad.Process(f.SampleRate, pcm)
		if err != nil {
			copy(out.Samples[off:end], window)
			continue
		}
		g.total++
		if active {
			g.speech++
			g.open = vadHangover
		} else if g.open > 0 {
			g.open--
		}
		if active || g.open > 0 {
			copy(out.Samples[off:end], window)
		}
	}
	return out
}

// Stats reports how many 20ms windows were classified and how many held speech.
func (g *Gate) Stats() (total, speech int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total, g.speech
}

// New returns the filter for a configured name: "vad" or "none".
func New(name string, vadMode int) (Filter, error) {
	switch name {
	case "", "none", "passthrough":
		return Passthrough{}, nil
	case "vad":
		return NewGate(vadMode)
	}
	return nil, fmt.Errorf("denoise: unknown filter %q", name)
}
