//go:build linux

package haptic

import (
	"fmt"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Pulse drives an LRA wired to the audio codec's second output.
type Pulse struct {
	client *pulse.Client
}

func NewPulse() (*Pulse, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("earshot-haptic"))
	if err != nil {
		return nil, fmt.Errorf("haptic: pulse: %w", err)
	}
	return &Pulse{client: c}, nil
}

func (p *Pulse) Trigger(d time.Duration) error {
	samples := waveform(d)
	if len(samples) == 0 {
		return nil
	}
	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := p.client.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackRawOption(func(ps *proto.CreatePlaybackStream) {
			ps.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return fmt.Errorf("haptic: playback: %w", err)
	}
	go func() {
		stream.Start()
		stream.Drain()
		stream.Stop()
		stream.Close()
	}()
	return nil
}

func (p *Pulse) Close() error {
	p.client.Close()
	return nil
}
