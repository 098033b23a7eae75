package tasks

import (
	"context"
	"slices"
	"testing"
	"time"

	"earshot/transcript"
)

func TestPersistCopiesEachRecordOnce(t *testing.T) {
	state := transcript.New()
	st := &memStore{}
	p := &Persist{State: state, Store: st}

	state.Append("one")
	state.Append("two")
	p.cycle(t.Context())
	p.cycle(t.Context())
	state.Append("three")
	p.cycle(t.Context())

	if got := st.Texts(); !slices.Equal(got, []string{"one", "two", "three"}) {
		t.Errorf("stored = %v", got)
	}
	if p.Watermark() != 3 {
		t.Errorf("watermark = %d, want 3", p.Watermark())
	}
}

func TestPersistStopsAtFirstFailure(t *testing.T) {
	state := transcript.New()
	st := &memStore{failAt: map[int]bool{2: true}}
	p := &Persist{State: state, Store: st}

	state.Append("a")
	state.Append("b")
	state.Append("c")
	p.cycle(t.Context())

	if p.Watermark() != 1 {
		t.Fatalf("watermark = %d, want 1", p.Watermark())
	}
	if got := st.Texts(); !slices.Equal(got, []string{"a"}) {
		t.Fatalf("stored = %v", got)
	}

	p.cycle(t.Context())
	if got := st.Texts(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("stored after retry = %v", got)
	}
	if p.Watermark() != 3 {
		t.Errorf("watermark = %d, want 3", p.Watermark())
	}
}

func TestPersistSkipsEvictedRecords(t *testing.T) {
	state := transcript.New(transcript.WithCapacity(2))
	st := &memStore{}
	p := &Persist{State: state, Store: st}

	for _, s := range []string{"1", "2", "3", "4", "5"} {
		state.Append(s)
	}
	p.cycle(t.Context())

	if got := st.Texts(); !slices.Equal(got, []string{"4", "5"}) {
		t.Errorf("stored = %v", got)
	}
	if p.Watermark() != state.Total() {
		t.Errorf("watermark = %d, want %d", p.Watermark(), state.Total())
	}
}

func TestPersistWatermarkNeverPassesTotal(t *testing.T) {
	state := transcript.New(transcript.WithCapacity(3))
	st := &memStore{failAt: map[int]bool{3: true, 7: true}}
	p := &Persist{State: state, Store: st}

	prev := uint64(0)
	for i := range 20 {
		state.Append(string(rune('a' + i)))
		if i%3 == 0 {
			p.cycle(t.Context())
		}
		wm := p.Watermark()
		if wm < prev {
			t.Fatalf("watermark went back from %d to %d", prev, wm)
		}
		if wm > state.Total() {
			t.Fatalf("watermark %d beyond total %d", wm, state.Total())
		}
		prev = wm
	}
}

func TestPersistFinalFlush(t *testing.T) {
	state := transcript.New()
	st := &memStore{}
	p := &Persist{State: state, Store: st, Interval: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	state.Append("last words")
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("persist did not stop")
	}
	if got := st.Texts(); !slices.Equal(got, []string{"last words"}) {
		t.Errorf("stored = %v", got)
	}
}
