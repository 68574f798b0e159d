package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"readingquest/internal/audio"
	"readingquest/internal/models"
)

const (
	InitialMessage = "Let's start our reading quest, Princess Celine!"
	ResetMessage   = "Ready for a new adventure, Princess Celine?"
	VictoryMessage = "You did it! You've reached the castle! You are the Queen of Reading!"
)

const (
	DefaultAnimationDuration   = 1200 * time.Millisecond
	DefaultCelebrationDuration = 8 * time.Second
	DefaultJournalPromptDelay  = 8500 * time.Millisecond
	DefaultProviderTimeout     = 10 * time.Second
)

var (
	ErrMoodAlreadySelected = errors.New("mood already selected")
	ErrSessionClosed       = errors.New("session closed")
)

// TextProvider generates the encouragement and reflection texts
type TextProvider interface {
	MotivationalMessage(ctx context.Context, mood models.Mood) (string, error)
	Reflection(ctx context.Context, answer1, answer2 string) (string, error)
}

// QuestObserver is told about progress after the session lock is released
type QuestObserver interface {
	TokenEarned(sessionID string, slot int, mood models.Mood, message string, usedFallback bool)
	QuestCompleted(sessionID string, mood models.Mood, tokens int)
	MessageShown(sessionID, message string)
}

// MachineConfig wires a SessionMachine to its collaborators
type MachineConfig struct {
	ID        string
	MaxTokens int
	Fallbacks []string
	Provider  TextProvider
	Layout    SlotLayout
	Scheduler Scheduler
	Rand      *rand.Rand
	Audio     *audio.Context
	Events    *EventLog
	Observer  QuestObserver

	AnimationDuration   time.Duration
	CelebrationDuration time.Duration
	JournalPromptDelay  time.Duration
	ProviderTimeout     time.Duration
}

// SessionMachine owns the state of one reading quest.
// Every mutation happens under mu; timer and provider callbacks carry the
// generation they were started in and are dropped once a reset moved past it.
type SessionMachine struct {
	mu sync.Mutex

	id        string
	maxTokens int
	fallbacks []string
	provider  TextProvider
	layout    SlotLayout
	sched     Scheduler
	rng       *rand.Rand
	audio     *audio.Context
	events    *EventLog
	observer  QuestObserver

	animationDuration   time.Duration
	celebrationDuration time.Duration
	journalPromptDelay  time.Duration
	providerTimeout     time.Duration

	mood          models.Mood
	earned        int
	isLoading     bool
	isAnimating   bool
	isCelebrating bool
	message       string
	animation     *models.AnimationTarget
	generation    uint64

	timers []Timer
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionMachine creates a session in the awaiting-mood state
func NewSessionMachine(cfg MachineConfig) *SessionMachine {
	if cfg.Scheduler == nil {
		cfg.Scheduler = RealScheduler{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Audio == nil {
		cfg.Audio = audio.NewContext()
	}
	if cfg.Events == nil {
		cfg.Events = NewEventLog()
	}
	if cfg.Layout == nil {
		cfg.Layout = NewBoardLayout(cfg.MaxTokens, 0, 0)
	}
	if cfg.AnimationDuration <= 0 {
		cfg.AnimationDuration = DefaultAnimationDuration
	}
	if cfg.CelebrationDuration <= 0 {
		cfg.CelebrationDuration = DefaultCelebrationDuration
	}
	if cfg.JournalPromptDelay <= 0 {
		cfg.JournalPromptDelay = DefaultJournalPromptDelay
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SessionMachine{
		id:                  cfg.ID,
		maxTokens:           cfg.MaxTokens,
		fallbacks:           cfg.Fallbacks,
		provider:            cfg.Provider,
		layout:              cfg.Layout,
		sched:               cfg.Scheduler,
		rng:                 cfg.Rand,
		audio:               cfg.Audio,
		events:              cfg.Events,
		observer:            cfg.Observer,
		animationDuration:   cfg.AnimationDuration,
		celebrationDuration: cfg.CelebrationDuration,
		journalPromptDelay:  cfg.JournalPromptDelay,
		providerTimeout:     cfg.ProviderTimeout,
		message:             InitialMessage,
		ctx:                 ctx,
		cancel:              cancel,
	}
}

// ID returns the session identifier
func (m *SessionMachine) ID() string {
	return m.id
}

// Events returns the session's event log
func (m *SessionMachine) Events() *EventLog {
	return m.events
}

// Generation returns the current reset generation
func (m *SessionMachine) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// InitAudio enables sound cues for this session
func (m *SessionMachine) InitAudio() bool {
	return m.audio.Init()
}

// SelectMood records the reader's mood and starts play
func (m *SessionMachine) SelectMood(mood models.Mood) error {
	if !mood.IsSet() {
		return models.ErrInvalidMood
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSessionClosed
	}
	if m.mood.IsSet() {
		return ErrMoodAlreadySelected
	}
	m.mood = mood
	return nil
}

// RequestCatch starts earning the next token, flying it from origin to its
// slot. It returns false without changing anything when the session cannot
// accept a token right now.
func (m *SessionMachine) RequestCatch(origin *models.Rect) bool {
	m.mu.Lock()
	return m.requestCatchAndUnlock(origin)
}

// requestCatchInGeneration is RequestCatch for a catch made before the
// session was reset: it is dropped once the generation has moved on.
func (m *SessionMachine) requestCatchInGeneration(gen uint64, origin *models.Rect) bool {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return false
	}
	return m.requestCatchAndUnlock(origin)
}

// requestCatchAndUnlock must be called with m.mu held and releases it
func (m *SessionMachine) requestCatchAndUnlock(origin *models.Rect) bool {
	if m.closed || !m.mood.IsSet() || m.earned >= m.maxTokens || m.isAnimating || m.isLoading {
		m.mu.Unlock()
		return false
	}

	slot := m.earned
	dest, ok := m.layout.SlotRect(slot)
	if origin == nil || origin.IsZero() || !ok {
		log.Printf("Warning: session %s has no flight geometry for slot %d, earning without animation", m.id, slot)
		after := m.landLocked(m.generation)
		m.mu.Unlock()
		after()
		return true
	}

	m.isAnimating = true
	m.animation = &models.AnimationTarget{From: *origin, To: dest, Slot: slot}
	m.playLocked(audio.CueToken)

	gen := m.generation
	m.scheduleLocked(m.animationDuration, func() { m.onFlightLanded(gen) })
	m.mu.Unlock()
	return true
}

// Reset returns the session to the awaiting-mood state from anywhere.
// Pending timers are stopped and late provider replies are ignored.
func (m *SessionMachine) Reset() {
	m.audio.Init()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.stopTimersLocked()
	m.generation++
	m.earned = 0
	m.mood = models.MoodUnset
	m.isCelebrating = false
	m.isLoading = false
	m.isAnimating = false
	m.animation = nil
	m.message = ResetMessage
	m.playLocked(audio.CueReset)
}

// Snapshot returns a copy of the current state
func (m *SessionMachine) Snapshot() models.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := models.SessionSnapshot{
		ID:               m.id,
		Mood:             m.mood,
		EarnedTokens:     m.earned,
		MaxTokens:        m.maxTokens,
		IsLoading:        m.isLoading,
		IsAnimatingToken: m.isAnimating,
		IsCelebrating:    m.isCelebrating,
		Message:          m.message,
		Phase:            m.phaseLocked(),
		Generation:       m.generation,
	}
	if m.animation != nil {
		anim := *m.animation
		snap.Animation = &anim
	}
	return snap
}

// Close stops all timers and waits for outstanding provider calls
func (m *SessionMachine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopTimersLocked()
	m.cancel()
	m.mu.Unlock()

	m.wg.Wait()
}

// Wait blocks until every provider call started so far has been applied
func (m *SessionMachine) Wait() {
	m.wg.Wait()
}

func (m *SessionMachine) phaseLocked() models.Phase {
	switch {
	case !m.mood.IsSet():
		return models.PhaseAwaitingMood
	case m.isCelebrating:
		return models.PhaseCelebrating
	case m.isAnimating || m.isLoading:
		return models.PhaseEarning
	default:
		return models.PhasePlaying
	}
}

func (m *SessionMachine) onFlightLanded(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.generation {
		m.mu.Unlock()
		return
	}
	after := m.landLocked(gen)
	m.mu.Unlock()
	after()
}

// landLocked commits the increment, runs the milestone check and starts the
// message request. The returned func must run after the lock is released.
func (m *SessionMachine) landLocked(gen uint64) func() {
	m.earned++
	m.animation = nil
	m.isLoading = true

	slot := m.earned - 1
	mood := m.mood
	completed := m.earned == m.maxTokens
	if completed {
		m.startCelebrationLocked(gen)
	}

	m.wg.Add(1)
	go m.fetchMessage(gen, slot, mood)

	return func() {
		if completed && m.observer != nil {
			m.observer.QuestCompleted(m.id, mood, m.maxTokens)
		}
	}
}

func (m *SessionMachine) startCelebrationLocked(gen uint64) {
	m.isCelebrating = true
	m.message = VictoryMessage
	m.playLocked(audio.CueMilestone)
	m.events.Append(Event{Kind: EventCelebrationStarted, Message: VictoryMessage})

	m.scheduleLocked(m.celebrationDuration, func() { m.endCelebration(gen) })
	m.scheduleLocked(m.journalPromptDelay, func() { m.promptJournal(gen) })
}

func (m *SessionMachine) endCelebration(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.generation || !m.isCelebrating {
		return
	}
	m.isCelebrating = false
	m.events.Append(Event{Kind: EventCelebrationEnded})
}

func (m *SessionMachine) promptJournal(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.generation {
		return
	}
	m.events.Append(Event{Kind: EventJournalPrompt})
}

func (m *SessionMachine) fetchMessage(gen uint64, slot int, mood models.Mood) {
	defer m.wg.Done()

	var text string
	var err error
	if m.provider == nil {
		err = errors.New("no text provider configured")
	} else {
		ctx, cancel := context.WithTimeout(m.ctx, m.providerTimeout)
		text, err = m.provider.MotivationalMessage(ctx, mood)
		cancel()
		text = strings.TrimSpace(text)
		if err == nil && text == "" {
			err = errors.New("provider returned an empty message")
		}
	}

	m.mu.Lock()
	usedFallback := err != nil
	if usedFallback {
		log.Printf("Error getting motivational message for session %s: %v", m.id, err)
		text = m.fallbackLocked()
	}

	shown := false
	if !m.closed && gen == m.generation {
		// The final token's reply never replaces the victory message
		if slot+1 < m.maxTokens {
			m.message = text
			m.playLocked(audio.CueMessage)
			m.events.Append(Event{Kind: EventMessage, Message: text})
			shown = true
		}
		m.isLoading = false
		m.isAnimating = false
	}
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.TokenEarned(m.id, slot, mood, text, usedFallback)
		if shown {
			m.observer.MessageShown(m.id, text)
		}
	}
}

func (m *SessionMachine) fallbackLocked() string {
	if len(m.fallbacks) == 0 {
		return "You're doing great!"
	}
	return m.fallbacks[m.rng.Intn(len(m.fallbacks))]
}

func (m *SessionMachine) playLocked(cue audio.Cue) {
	notes, ok := m.audio.Play(cue)
	if !ok {
		return
	}
	m.events.Append(Event{Kind: EventSound, Cue: cue, Notes: notes})
}

func (m *SessionMachine) scheduleLocked(d time.Duration, f func()) {
	m.timers = append(m.timers, m.sched.AfterFunc(d, f))
}

func (m *SessionMachine) stopTimersLocked() {
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = nil
}
