package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"earshot/audio"
	"earshot/haptic"
	"earshot/keyword"
	"earshot/transcriber"
	"earshot/transcript"
)

func newCapture(src audio.Source, tr transcriber.Transcriber, h haptic.Actuator) *Capture {
	c := &Capture{
		Source:        src,
		Transcriber:   tr,
		Keywords:      keyword.NewSet("help"),
		Haptic:        h,
		State:         transcript.New(),
		FrameDuration: 10 * time.Millisecond,
	}
	c.defaults()
	return c
}

func TestCaptureKeywordTriggersHapticOnce(t *testing.T) {
	h := &haptic.Fake{}
	c := newCapture(&frameSource{}, transcriber.NewFake(nil, "help me"), h)

	c.cycle(context.Background())

	calls := h.Calls()
	if len(calls) != 1 {
		t.Fatalf("haptic calls = %d, want 1", len(calls))
	}
	if calls[0] != DefaultHapticDuration {
		t.Errorf("duration = %v, want %v", calls[0], DefaultHapticDuration)
	}
	if got := c.State.Current(); got != "help me" {
		t.Errorf("current = %q", got)
	}
	if got := c.State.Total(); got != 1 {
		t.Errorf("total = %d, want 1", got)
	}
}

func TestCaptureNoKeyword(t *testing.T) {
	h := &haptic.Fake{}
	c := newCapture(&frameSource{}, transcriber.NewFake(nil, "that was helpful"), h)

	c.cycle(context.Background())

	if n := len(h.Calls()); n != 0 {
		t.Errorf("haptic calls = %d, want 0", n)
	}
	if got := c.State.Current(); got != "that was helpful" {
		t.Errorf("current = %q", got)
	}
}

func TestCaptureEmptyTextIsNoop(t *testing.T) {
	c := newCapture(&frameSource{}, transcriber.NewFake(nil), &haptic.Fake{})

	c.cycle(context.Background())

	if got := c.State.Total(); got != 0 {
		t.Errorf("total = %d, want 0", got)
	}
}

func TestCaptureTranscribeErrorKeepsState(t *testing.T) {
	c := newCapture(&frameSource{}, transcriber.NewFake(errors.New("503"), "x"), &haptic.Fake{})

	c.cycle(context.Background())

	if got := c.State.Total(); got != 0 {
		t.Errorf("total = %d, want 0", got)
	}
}

func TestCaptureErrorSkipsTranscribe(t *testing.T) {
	src := &frameSource{errs: map[int]error{1: errors.New("device gone")}}
	tr := transcriber.NewFake(nil, "hello")
	c := newCapture(src, tr, &haptic.Fake{})

	c.cycle(context.Background())
	if tr.Calls() != 0 {
		t.Fatalf("transcribe called on failed capture")
	}

	c.cycle(context.Background())
	if got := c.State.Current(); got != "hello" {
		t.Errorf("current = %q, want hello", got)
	}
}

func TestCaptureShortFrameIsTranscribed(t *testing.T) {
	src := &frameSource{short: map[int]bool{1: true}}
	tr := transcriber.NewFake(nil, "partial")
	c := newCapture(src, tr, &haptic.Fake{})

	c.cycle(context.Background())

	if tr.Calls() != 1 {
		t.Fatalf("transcribe calls = %d, want 1", tr.Calls())
	}
	if got := c.State.Current(); got != "partial" {
		t.Errorf("current = %q", got)
	}
}

func TestCaptureHapticErrorStillAppends(t *testing.T) {
	h := &haptic.Fake{Err: errors.New("motor")}
	c := newCapture(&frameSource{}, transcriber.NewFake(nil, "help"), h)

	c.cycle(context.Background())

	if got := c.State.Total(); got != 1 {
		t.Errorf("total = %d, want 1", got)
	}
}

func TestCaptureRunStopsOnCancel(t *testing.T) {
	src := &frameSource{}
	c := newCapture(src, transcriber.NewFake(nil, "a", "b", "c"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for c.State.Total() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("capture did not stop")
	}
	if got := c.State.Total(); got != 3 {
		t.Errorf("total = %d, want 3", got)
	}
}
