package audio

import "sync"

// Cue names a sound effect the client plays
type Cue string

const (
	CueToken     Cue = "token"
	CueMessage   Cue = "message"
	CueMilestone Cue = "milestone"
	CueReset     Cue = "reset"
)

// Note is one oscillator tone of a cue
type Note struct {
	Wave      string  `json:"wave"`
	Frequency float64 `json:"frequency"`
	Duration  float64 `json:"duration"` // seconds
	Volume    float64 `json:"volume"`
	DelayMs   int     `json:"delay_ms"`
}

var cueNotes = map[Cue][]Note{
	// chime plus three sparkles
	CueToken: {
		{Wave: "triangle", Frequency: 880, Duration: 0.4, Volume: 0.3},
		{Wave: "sine", Frequency: 1396.91, Duration: 0.2, Volume: 0.15, DelayMs: 50},
		{Wave: "sine", Frequency: 1760.00, Duration: 0.15, Volume: 0.1, DelayMs: 120},
		{Wave: "sine", Frequency: 2093.00, Duration: 0.1, Volume: 0.08, DelayMs: 180},
	},
	CueMessage: {
		{Wave: "triangle", Frequency: 987.77, Duration: 0.3, Volume: 0.25},
		{Wave: "sine", Frequency: 1567.98, Duration: 0.2, Volume: 0.1, DelayMs: 80},
	},
	// C major arpeggio, final note rings longer
	CueMilestone: {
		{Wave: "sine", Frequency: 523.25, Duration: 0.2, Volume: 0.4},
		{Wave: "sine", Frequency: 659.25, Duration: 0.2, Volume: 0.4, DelayMs: 150},
		{Wave: "sine", Frequency: 783.99, Duration: 0.2, Volume: 0.4, DelayMs: 300},
		{Wave: "sine", Frequency: 1046.50, Duration: 0.4, Volume: 0.5, DelayMs: 450},
	},
	CueReset: {
		{Wave: "sawtooth", Frequency: 220, Duration: 0.15, Volume: 0.2},
		{Wave: "sawtooth", Frequency: 185, Duration: 0.2, Volume: 0.15, DelayMs: 100},
	},
}

// Notes returns a copy of the notes for a cue
func Notes(cue Cue) []Note {
	notes := cueNotes[cue]
	out := make([]Note, len(notes))
	copy(out, notes)
	return out
}

// Context gates sound playback behind a user interaction.
// Browsers refuse to start audio before the page has been touched, so cues
// played before Init are dropped rather than queued.
type Context struct {
	mu          sync.Mutex
	initialized bool
}

// NewContext creates an uninitialised audio context
func NewContext() *Context {
	return &Context{}
}

// Init enables playback. It reports whether this call did the initialisation.
func (c *Context) Init() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return false
	}
	c.initialized = true
	return true
}

// Initialized reports whether Init has been called
func (c *Context) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Play returns the notes to play for cue, or false if audio is not yet enabled
func (c *Context) Play(cue Cue) ([]Note, bool) {
	if !c.Initialized() {
		return nil, false
	}
	return Notes(cue), true
}
