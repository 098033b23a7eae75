// Package encoder packs captured frames into upload formats for the HTTP
// transcription engines.
package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"earshot/audio"
)

const (
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// Encode returns f as a complete file in the named format ("flac" or "wav").
func Encode(format string, f audio.Frame) ([]byte, error) {
	switch format {
	case "wav":
		return WAV(f), nil
	case "", "flac":
	default:
		return nil, fmt.Errorf("encoder: unknown format %q", format)
	}

	enc, err := NewFlac(f.SampleRate, f.Channels)
	if err != nil {
		return nil, err
	}
	step := BlockSize * f.Channels
	for i := 0; i < len(f.Samples); i += step {
		end := min(i+step, len(f.Samples))
		if err := enc.EncodeBlock(f.Samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing flac encoder: %w", err)
	}
	return enc.Bytes(), nil
}

// WAV wraps the frame's PCM in a canonical 44-byte RIFF header.
func WAV(f audio.Frame) []byte {
	pcm := f.PCM()
	var buf bytes.Buffer
	buf.Grow(audio.WAVHeaderSize + len(pcm))
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	w(uint32(36 + len(pcm)))
	buf.WriteString("WAVEfmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(f.Channels))
	w(uint32(f.SampleRate))
	w(uint32(f.SampleRate * f.Channels * BitsPerSample / 8))
	w(uint16(f.Channels * BitsPerSample / 8))
	w(uint16(BitsPerSample))
	buf.WriteString("data")
	w(uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
