// Package audio captures fixed-duration PCM frames from the microphone.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"time"
)

const (
	WAVHeaderSize = 44

	DefaultSampleRate = 16000
	DefaultChannels   = 1
)

// ErrShortRead is returned with a frame that holds fewer samples than requested.
var ErrShortRead = errors.New("audio: short read")

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"bluetooth", "bluez", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Frame is a block of interleaved signed 16-bit samples. Frames are never
// modified after they are returned.
type Frame struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

func (f Frame) Len() int { return len(f.Samples) }

func (f Frame) Duration() time.Duration {
	if f.SampleRate == 0 || f.Channels == 0 {
		return 0
	}
	perChannel := len(f.Samples) / f.Channels
	return time.Duration(perChannel) * time.Second / time.Duration(f.SampleRate)
}

// PCM returns the samples as little-endian bytes.
func (f Frame) PCM() []byte {
	out := make([]byte, len(f.Samples)*2)
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// FrameFromPCM decodes little-endian 16-bit PCM into a Frame.
func FrameFromPCM(pcm []byte, sampleRate, channels int) Frame {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return Frame{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// SamplesFor returns how many interleaved samples cover d.
func SamplesFor(d time.Duration, sampleRate, channels int) int {
	return int(int64(sampleRate)*int64(d)/int64(time.Second)) * channels
}

// Source is the pull-side contract consumed by the capture task.
type Source interface {
	// CaptureFrame blocks for roughly d and returns one frame. A frame with
	// fewer samples than requested comes back together with ErrShortRead.
	CaptureFrame(ctx context.Context, d time.Duration) (Frame, error)
	Close()
}

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	Gain       int
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

// Backend enumerates devices and opens push-style captures.
type Backend interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

// FindDevice returns the device called name, or nil when name is empty.
func FindDevice(b Backend, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := b.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, errors.New("audio: device not found: " + name)
}

func clampGain(s int16, gain int) int16 {
	if gain <= 1 {
		return s
	}
	amplified := int32(s) * int32(gain)
	if amplified > 32767 {
		amplified = 32767
	} else if amplified < -32768 {
		amplified = -32768
	}
	return int16(amplified)
}
