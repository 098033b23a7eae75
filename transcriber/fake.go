package transcriber

import (
	"context"
	"errors"
	"sync"

	"earshot/audio"
)

func init() {
	Register("fake", func(opts map[string]any) (Transcriber, error) {
		var o FakeOptions
		if err := decodeOptions(opts, &o); err != nil {
			return nil, err
		}
		var err error
		if o.Error != "" {
			err = errors.New(o.Error)
		}
		return NewFake(err, o.Script...), nil
	})
}

type FakeOptions struct {
	Script []string `mapstructure:"script"`
	Error  string   `mapstructure:"error"`
}

// FakeTranscriber returns scripted texts in order, one per frame, and ""
// once the script runs out.
type FakeTranscriber struct {
	mu     sync.Mutex
	script []string
	err    error
	calls  int
	closed bool
}

func NewFake(err error, script ...string) *FakeTranscriber {
	return &FakeTranscriber{script: script, err: err}
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) Transcribe(ctx context.Context, _ audio.Frame) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.script) == 0 {
		return "", nil
	}
	text := f.script[0]
	f.script = f.script[1:]
	return text, nil
}

func (f *FakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeTranscriber) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
