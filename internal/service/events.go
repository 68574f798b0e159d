package service

import (
	"sync"
	"time"

	"readingquest/internal/audio"
)

// EventKind identifies what happened in a session
type EventKind string

const (
	EventSound              EventKind = "sound"
	EventMessage            EventKind = "message"
	EventReadAloud          EventKind = "read_aloud"
	EventCelebrationStarted EventKind = "celebration_started"
	EventCelebrationEnded   EventKind = "celebration_ended"
	EventJournalPrompt      EventKind = "journal_prompt"
	EventJournalSaved       EventKind = "journal_saved"
	EventCaptureClosed      EventKind = "capture_closed"
)

// maxRetainedEvents bounds each session's log; clients poll far more often
const maxRetainedEvents = 256

// Event is one entry in a session's event log
type Event struct {
	Seq      int64        `json:"seq"`
	Kind     EventKind    `json:"kind"`
	At       time.Time    `json:"at"`
	Cue      audio.Cue    `json:"cue,omitempty"`
	Notes    []audio.Note `json:"notes,omitempty"`
	Message  string       `json:"message,omitempty"`
	AudioURL string       `json:"audio_url,omitempty"`
	Notice   string       `json:"notice,omitempty"`
}

// EventLog is an append-only, sequence-numbered list of session events
type EventLog struct {
	mu     sync.Mutex
	events []Event
	seq    int64
}

// NewEventLog creates an empty event log
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append stamps e with the next sequence number and stores it
func (l *EventLog) Append(e Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	e.Seq = l.seq
	if e.At.IsZero() {
		e.At = time.Now()
	}
	l.events = append(l.events, e)
	if len(l.events) > maxRetainedEvents {
		l.events = append([]Event(nil), l.events[len(l.events)-maxRetainedEvents:]...)
	}
	return e
}

// Since returns the events with a sequence number greater than after
func (l *EventLog) Since(after int64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []Event{}
	for _, e := range l.events {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}

// Kinds returns the kinds of all retained events in order
func (l *EventLog) Kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]EventKind, len(l.events))
	for i, e := range l.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// LastSeq returns the most recent sequence number
func (l *EventLog) LastSeq() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}
