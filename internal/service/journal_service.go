package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"readingquest/internal/models"
	"readingquest/internal/repository"
	"readingquest/internal/validation"
)

const (
	JournalQuestion1   = "What was your favorite part of today’s reading adventure?"
	JournalQuestion2   = "What did you find tricky?"
	FallbackReflection = "You did an amazing job reflecting on your reading today!"
	EmptyJournalText   = "Your royal journal is empty. Complete a quest to add an entry!"
	journalDateLayout  = "1/2/2006"
)

var (
	ErrAnswerRequired = errors.New("an answer is required")
	ErrAnswerTooLong  = errors.New("answer is too long")
	ErrStepOutOfOrder = errors.New("journal step out of order")
)

// JournalNotifier is told about every newly saved entry
type JournalNotifier interface {
	NotifyJournalEntry(ctx context.Context, entry models.JournalEntry) error
}

// JournalService owns the reading journal. It is the only writer of the store.
type JournalService struct {
	mu       sync.Mutex
	store    repository.JournalStore
	key      string
	provider TextProvider
	notifier JournalNotifier
	timeout  time.Duration
	now      func() time.Time

	loaded  bool
	entries []models.JournalEntry
}

// NewJournalService creates a journal backed by store under key
func NewJournalService(store repository.JournalStore, key string, provider TextProvider, notifier JournalNotifier) *JournalService {
	return &JournalService{
		store:    store,
		key:      key,
		provider: provider,
		notifier: notifier,
		timeout:  DefaultProviderTimeout,
		now:      time.Now,
	}
}

// SetProviderTimeout bounds each reflection request
func (s *JournalService) SetProviderTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// List returns the entries newest first. Unreadable storage yields an empty
// journal, apart from entries written since.
func (s *JournalService) List(ctx context.Context) []models.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked(ctx)

	out := make([]models.JournalEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// NewDraft starts a write-mode flow bound to a session generation
func (s *JournalService) NewDraft(generation uint64) *JournalDraft {
	return &JournalDraft{svc: s, step: models.JournalStepFirst, generation: generation}
}

// append prepends entry and persists the whole list. When the stored journal
// cannot be read the entry is kept in memory only, so the stored history is
// never overwritten by a partial list. A failed write is logged; the entry
// stays in memory.
func (s *JournalService) append(ctx context.Context, entry models.JournalEntry) {
	s.mu.Lock()
	loadErr := s.loadLocked(ctx)
	s.entries = append([]models.JournalEntry{entry}, s.entries...)
	if loadErr != nil {
		s.mu.Unlock()
		log.Printf("Error saving journal entry: journal could not be read, keeping entry in memory: %v", loadErr)
		return
	}
	snapshot := make([]models.JournalEntry, len(s.entries))
	copy(snapshot, s.entries)
	err := s.store.Save(ctx, s.key, snapshot)
	s.mu.Unlock()

	if err != nil {
		log.Printf("Error saving journal entry: %v", err)
		return
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyJournalEntry(ctx, entry); err != nil {
			log.Printf("Warning: failed to notify parent of journal entry: %v", err)
		}
	}
}

// loadLocked reads the stored journal once. A corrupt journal counts as
// empty and may be overwritten. Any other failure leaves the journal
// unloaded so the next call tries again; entries written meanwhile stay in
// front of whatever is eventually read.
func (s *JournalService) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	stored, err := s.store.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, repository.ErrCorruptJournal) {
			log.Printf("Error loading journal entries: %v", err)
			return err
		}
		log.Printf("Warning: discarding corrupt journal: %v", err)
		stored = nil
	}
	s.entries = append(s.entries, stored...)
	s.loaded = true
	return nil
}

func (s *JournalService) reflect(ctx context.Context, answer1, answer2 string) string {
	if s.provider == nil {
		return FallbackReflection
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.provider.Reflection(ctx, answer1, answer2)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err == nil {
			err = errors.New("empty reflection")
		}
		log.Printf("Error generating journal reflection: %v", err)
		return FallbackReflection
	}
	return text
}

// JournalDraft is one pass through the two-question write flow
type JournalDraft struct {
	mu         sync.Mutex
	svc        *JournalService
	step       models.JournalStep
	generation uint64
	answer1    string
	answer2    string
	entry      *models.JournalEntry
}

// Step returns the current position in the flow
func (d *JournalDraft) Step() models.JournalStep {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step
}

// Generation returns the session generation that opened the draft
func (d *JournalDraft) Generation() uint64 {
	return d.generation
}

// Question returns the prompt for the current step
func (d *JournalDraft) Question() string {
	switch d.Step() {
	case models.JournalStepFirst:
		return JournalQuestion1
	case models.JournalStepSecond:
		return JournalQuestion2
	default:
		return ""
	}
}

// Entry returns the saved entry once the flow is done
func (d *JournalDraft) Entry() *models.JournalEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.entry == nil {
		return nil
	}
	e := *d.entry
	return &e
}

// AnswerFirst records the favourite-part answer and moves to the second question
func (d *JournalDraft) AnswerFirst(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.step != models.JournalStepFirst {
		return ErrStepOutOfOrder
	}
	answer, err := cleanAnswer(string(models.JournalStepFirst), text)
	if err != nil {
		return err
	}
	d.answer1 = answer
	d.step = models.JournalStepSecond
	return nil
}

// AnswerSecond records the tricky-part answer
func (d *JournalDraft) AnswerSecond(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.step != models.JournalStepSecond {
		return ErrStepOutOfOrder
	}
	answer, err := cleanAnswer(string(models.JournalStepSecond), text)
	if err != nil {
		return err
	}
	d.answer2 = answer
	return nil
}

// Submit asks for a reflection and saves the entry. The entry is saved even
// when the reflection falls back to the canned text.
func (d *JournalDraft) Submit(ctx context.Context) (*models.JournalEntry, error) {
	d.mu.Lock()
	if d.step != models.JournalStepSecond {
		d.mu.Unlock()
		return nil, ErrStepOutOfOrder
	}
	if d.answer2 == "" {
		d.mu.Unlock()
		return nil, ErrAnswerRequired
	}
	d.step = models.JournalStepReflecting
	answer1, answer2 := d.answer1, d.answer2
	d.mu.Unlock()

	reflection := d.svc.reflect(ctx, answer1, answer2)
	entry := models.JournalEntry{
		Date:       d.svc.now().Format(journalDateLayout),
		Question1:  JournalQuestion1,
		Answer1:    answer1,
		Question2:  JournalQuestion2,
		Answer2:    answer2,
		Reflection: reflection,
	}
	// The entry must outlive a reader closing the page mid-reflection
	d.svc.append(context.WithoutCancel(ctx), entry)

	d.mu.Lock()
	d.entry = &entry
	d.step = models.JournalStepDone
	d.mu.Unlock()

	e := entry
	return &e, nil
}

func cleanAnswer(field, text string) (string, error) {
	answer, err := validation.ValidateAnswer(field, text)
	switch {
	case errors.Is(err, validation.ErrRequired):
		return "", ErrAnswerRequired
	case errors.Is(err, validation.ErrTooLong):
		return "", ErrAnswerTooLong
	case err != nil:
		return "", err
	}
	return answer, nil
}
