// Package transcript holds the live transcription and the bounded history
// shared by every background task.
package transcript

import (
	"sync"
	"time"
)

// MaxHistory bounds the in-memory history. The oldest record is evicted first.
const MaxHistory = 100

// Record is a single timestamped transcription result.
type Record struct {
	// Seq is the 1-based position in the logical record stream. It keeps
	// growing after the history starts evicting.
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// State is the one piece of state every task touches. All reads and writes
// go through mu and never perform I/O while holding it.
type State struct {
	mu      sync.Mutex
	current string
	history []Record
	seq     uint64
	max     int
	now     func() time.Time
}

type Option func(*State)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithCapacity overrides MaxHistory. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.max = n
		}
	}
}

func New(opts ...Option) *State {
	s := &State{max: MaxHistory, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.history = make([]Record, 0, s.max)
	return s
}

// Append records text as the newest transcription, evicting the oldest
// record when the history is full.
func (s *State) Append(text string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == s.max {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.seq++
	r := Record{Seq: s.seq, Time: s.now(), Text: text}
	s.history = append(s.history, r)
	s.current = text
	return r
}

// Current returns the text of the most recent record, or "" if none.
func (s *State) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns a copy of the history, oldest first.
func (s *State) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}

// Total returns how many records were ever appended.
func (s *State) Total() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Since returns the records with Seq greater than seq that are still held,
// and how many records after seq were already evicted.
func (s *State) Since(seq uint64) (records []Record, dropped uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq >= s.seq || len(s.history) == 0 {
		return nil, 0
	}
	oldest := s.history[0].Seq
	start := 0
	if seq+1 < oldest {
		dropped = oldest - seq - 1
	} else {
		start = int(seq + 1 - oldest)
	}
	records = make([]Record, len(s.history)-start)
	copy(records, s.history[start:])
	return records, dropped
}
