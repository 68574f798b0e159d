package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"readingquest/internal/audio"
	"readingquest/internal/config"
	"readingquest/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// ProgressRecorder stores earned tokens and finished quests
type ProgressRecorder interface {
	RecordToken(sessionID string, slot int, mood models.Mood, message string, usedFallback bool) (*models.ProgressRecord, error)
	RecordCompletion(sessionID string, mood models.Mood, tokens int) (*models.QuestCompletion, error)
	GetStats() (*models.ProgressStats, error)
}

// Speaker turns a message into an audio file name
type Speaker interface {
	Speak(ctx context.Context, text string) (string, error)
}

// QuestOptions configures every session the quest service creates
type QuestOptions struct {
	Catalog   *config.Catalog
	Provider  TextProvider
	Progress  ProgressRecorder
	Speaker   Speaker
	AudioURL  string
	Scheduler Scheduler
	Seed      int64

	AnimationDuration   time.Duration
	CelebrationDuration time.Duration
	JournalPromptDelay  time.Duration
	ProviderTimeout     time.Duration
	ViewportWidth       float64
	ViewportHeight      float64
}

// QuestSession bundles a session machine with its capture bridge and journal draft
type QuestSession struct {
	Machine *SessionMachine
	Bridge  *CaptureBridge
	Layout  *BoardLayout

	mu         sync.Mutex
	draft      *JournalDraft
	lastActive time.Time
}

// Touch marks the session as active now
func (q *QuestSession) Touch() {
	q.mu.Lock()
	q.lastActive = time.Now()
	q.mu.Unlock()
}

// LastActive returns the time of the last request for this session
func (q *QuestSession) LastActive() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastActive
}

// Draft returns the open journal draft, if any
func (q *QuestSession) Draft() *JournalDraft {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draft
}

// QuestService keeps the live quest sessions and applies their side effects
type QuestService struct {
	mu       sync.Mutex
	sessions map[string]*QuestSession
	opts     QuestOptions
	journal  *JournalService
	rng      *rand.Rand
	rngMu    sync.Mutex
	wg       sync.WaitGroup
	closed   bool
}

// NewQuestService creates a new quest service
func NewQuestService(opts QuestOptions, journal *JournalService) *QuestService {
	if opts.Catalog == nil {
		opts.Catalog = config.DefaultCatalog()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.AudioURL == "" {
		opts.AudioURL = "/audio/"
	}
	return &QuestService{
		sessions: make(map[string]*QuestSession),
		opts:     opts,
		journal:  journal,
		rng:      rand.New(rand.NewSource(opts.Seed)),
	}
}

// Journal returns the journal service shared by all sessions
func (s *QuestService) Journal() *JournalService {
	return s.journal
}

// Stages returns the board stages
func (s *QuestService) Stages() []models.Stage {
	stages := make([]models.Stage, len(s.opts.Catalog.Stages))
	copy(stages, s.opts.Catalog.Stages)
	return stages
}

// Create starts a new quest session
func (s *QuestService) Create() (*QuestSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	id := uuid.New().String()
	maxTokens := s.opts.Catalog.MaxTokens()
	layout := NewBoardLayout(maxTokens, s.opts.ViewportWidth, s.opts.ViewportHeight)

	machine := NewSessionMachine(MachineConfig{
		ID:                  id,
		MaxTokens:           maxTokens,
		Fallbacks:           s.opts.Catalog.FallbackMessages,
		Provider:            s.opts.Provider,
		Layout:              layout,
		Scheduler:           s.opts.Scheduler,
		Rand:                s.newRand(),
		Audio:               audio.NewContext(),
		Events:              NewEventLog(),
		Observer:            s,
		AnimationDuration:   s.opts.AnimationDuration,
		CelebrationDuration: s.opts.CelebrationDuration,
		JournalPromptDelay:  s.opts.JournalPromptDelay,
		ProviderTimeout:     s.opts.ProviderTimeout,
	})

	qs := &QuestSession{
		Machine:    machine,
		Bridge:     NewCaptureBridge(machine, s.opts.Scheduler, s.newRand(), s.opts.ViewportWidth, s.opts.ViewportHeight),
		Layout:     layout,
		lastActive: time.Now(),
	}
	s.sessions[id] = qs

	log.Printf("Quest session %s started", id)
	return qs, nil
}

// Get returns a live session by ID
func (s *QuestService) Get(id string) (*QuestSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return qs, nil
}

// Count returns the number of live sessions
func (s *QuestService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Remove ends a session and releases its resources
func (s *QuestService) Remove(id string) error {
	s.mu.Lock()
	qs, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	qs.Bridge.Close()
	qs.Machine.Close()
	return nil
}

// SweepIdle removes sessions that have been idle for longer than timeout
func (s *QuestService) SweepIdle(now time.Time, timeout time.Duration) int {
	s.mu.Lock()
	var idle []string
	for id, qs := range s.sessions {
		if now.Sub(qs.LastActive()) > timeout {
			idle = append(idle, id)
		}
	}
	s.mu.Unlock()

	for _, id := range idle {
		if err := s.Remove(id); err == nil {
			log.Printf("Quest session %s expired after being idle", id)
		}
	}
	return len(idle)
}

// OpenDraft starts a new journal draft for the session, replacing any earlier one
func (s *QuestService) OpenDraft(id string) (*JournalDraft, error) {
	qs, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	draft := s.journal.NewDraft(qs.Machine.Generation())

	qs.mu.Lock()
	qs.draft = draft
	qs.mu.Unlock()
	return draft, nil
}

// SubmitDraft finishes the session's journal draft. The entry is saved even
// when the session was reset meanwhile, but only a current draft reports back
// to the session's event log.
func (s *QuestService) SubmitDraft(ctx context.Context, id string) (*models.JournalEntry, error) {
	qs, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	draft := qs.Draft()
	if draft == nil {
		return nil, ErrStepOutOfOrder
	}

	entry, err := draft.Submit(ctx)
	if err != nil {
		return nil, err
	}

	if draft.Generation() == qs.Machine.Generation() {
		qs.Machine.Events().Append(Event{Kind: EventJournalSaved, Message: entry.Reflection})
	}
	return entry, nil
}

// Stats summarises the progress log
func (s *QuestService) Stats() (*models.ProgressStats, error) {
	if s.opts.Progress == nil {
		return &models.ProgressStats{}, nil
	}
	return s.opts.Progress.GetStats()
}

// Close ends every session and waits for background work
func (s *QuestService) Close() {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*QuestSession)
	s.mu.Unlock()

	for _, qs := range sessions {
		qs.Bridge.Close()
		qs.Machine.Close()
	}
	s.wg.Wait()
}

// TokenEarned records an earned token in the progress log
func (s *QuestService) TokenEarned(sessionID string, slot int, mood models.Mood, message string, usedFallback bool) {
	if s.opts.Progress == nil {
		return
	}
	if _, err := s.opts.Progress.RecordToken(sessionID, slot, mood, message, usedFallback); err != nil {
		log.Printf("Error recording token for session %s: %v", sessionID, err)
	}
}

// QuestCompleted records a filled board in the progress log
func (s *QuestService) QuestCompleted(sessionID string, mood models.Mood, tokens int) {
	log.Printf("Quest session %s reached the castle", sessionID)
	if s.opts.Progress == nil {
		return
	}
	if _, err := s.opts.Progress.RecordCompletion(sessionID, mood, tokens); err != nil {
		log.Printf("Error recording quest completion for session %s: %v", sessionID, err)
	}
}

// MessageShown reads a new message aloud when a speaker is configured
func (s *QuestService) MessageShown(sessionID, message string) {
	if s.opts.Speaker == nil {
		return
	}

	s.mu.Lock()
	qs, ok := s.sessions[sessionID]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		filename, err := s.opts.Speaker.Speak(context.Background(), message)
		if err != nil {
			log.Printf("Warning: failed to read message aloud: %v", err)
			return
		}
		qs.Machine.Events().Append(Event{
			Kind:     EventReadAloud,
			Message:  message,
			AudioURL: s.opts.AudioURL + filename,
		})
	}()
}

func (s *QuestService) newRand() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}
