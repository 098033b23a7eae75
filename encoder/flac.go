package encoder

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

type FlacEncoder struct {
	buf         bytes.Buffer
	enc         *flac.Encoder
	sampleRate  int
	channels    int
	totalFrames uint64
	mu          sync.Mutex
}

// NewFlac creates an encoder for mono or stereo 16-bit input.
func NewFlac(sampleRate, channels int) (*FlacEncoder, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("flac: %d channels not supported", channels)
	}
	e := &FlacEncoder{sampleRate: sampleRate, channels: channels}
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     uint8(channels),
		BitsPerSample: BitsPerSample,
	}
	enc, err := flac.NewEncoder(&e.buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	e.enc = enc
	return e, nil
}

// EncodeBlock writes one FLAC frame from interleaved samples.
func (e *FlacEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(block) / e.channels
	if n == 0 {
		return nil
	}
	subframes := make([]*frame.Subframe, e.channels)
	for ch := range subframes {
		samples := make([]int32, n)
		for i := range samples {
			samples[i] = int32(block[i*e.channels+ch])
		}
		subframes[ch] = &frame.Subframe{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  n,
		}
	}

	layout := frame.ChannelsMono
	if e.channels == 2 {
		layout = frame.ChannelsLR
	}
	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(n),
			SampleRate:    uint32(e.sampleRate),
			Channels:      layout,
			BitsPerSample: BitsPerSample,
		},
		Subframes: subframes,
	}

	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(n)
	return nil
}

func (e *FlacEncoder) Close() error {
	return e.enc.Close()
}

func (e *FlacEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *FlacEncoder) TotalFrames() uint64 {
	return e.totalFrames
}
