package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
)

// WAVSource replays a 16-bit PCM WAV file as if it came from a microphone.
// Once the file is exhausted it keeps returning silence.
type WAVSource struct {
	rate     int
	chans    int
	realtime bool

	mu  sync.Mutex
	pcm []int16
	pos int
}

// NewWAVSource loads path. With realtime set, CaptureFrame sleeps for the
// frame duration like a live device would.
func NewWAVSource(path string, realtime bool) (*WAVSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rate, chans := DefaultSampleRate, DefaultChannels
	if len(data) >= WAVHeaderSize && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		chans = int(binary.LittleEndian.Uint16(data[22:24]))
		rate = int(binary.LittleEndian.Uint32(data[24:28]))
		if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
			return nil, fmt.Errorf("wav %s: %d-bit samples not supported", path, bits)
		}
		data = data[WAVHeaderSize:]
	}
	f := FrameFromPCM(data, rate, chans)
	return &WAVSource{rate: rate, chans: chans, realtime: realtime, pcm: f.Samples}, nil
}

// Remaining reports how many samples of the file have not been replayed yet.
func (w *WAVSource) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pcm) - w.pos
}

func (w *WAVSource) CaptureFrame(ctx context.Context, d time.Duration) (Frame, error) {
	if w.realtime {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return Frame{SampleRate: w.rate, Channels: w.chans}, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return Frame{SampleRate: w.rate, Channels: w.chans}, err
	}

	want := SamplesFor(d, w.rate, w.chans)
	out := make([]int16, want)

	w.mu.Lock()
	n := copy(out, w.pcm[w.pos:])
	w.pos += n
	w.mu.Unlock()

	return Frame{Samples: out, SampleRate: w.rate, Channels: w.chans}, nil
}

func (w *WAVSource) Close() {}

// WriteWAV writes mono or stereo 16-bit samples with a canonical header.
func WriteWAV(path string, f Frame) error {
	pcm := f.PCM()
	hdr := make([]byte, WAVHeaderSize)
	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], uint32(36+len(pcm)))
	copy(hdr[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 16)
	binary.LittleEndian.PutUint16(hdr[20:], 1)
	binary.LittleEndian.PutUint16(hdr[22:], uint16(f.Channels))
	binary.LittleEndian.PutUint32(hdr[24:], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(f.SampleRate*f.Channels*2))
	binary.LittleEndian.PutUint16(hdr[32:], uint16(f.Channels*2))
	binary.LittleEndian.PutUint16(hdr[34:], 16)
	copy(hdr[36:], "data")
	binary.LittleEndian.PutUint32(hdr[40:], uint32(len(pcm)))
	return os.WriteFile(path, append(hdr, pcm...), 0o644)
}
