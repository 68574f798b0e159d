package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"readingquest/internal/audio"
	"readingquest/internal/models"
)

func TestNewSessionMachineInitialState(t *testing.T) {
	f := newMachineFixture(t, nil)

	got := f.machine.Snapshot()
	want := models.SessionSnapshot{
		ID:        "test-session",
		MaxTokens: 5,
		Message:   InitialMessage,
		Phase:     models.PhaseAwaitingMood,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("initial snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectMood(t *testing.T) {
	tests := []struct {
		name    string
		moods   []models.Mood
		wantErr error
		want    models.Mood
	}{
		{"happy", []models.Mood{models.MoodHappy}, nil, models.MoodHappy},
		{"unset is invalid", []models.Mood{models.MoodUnset}, models.ErrInvalidMood, models.MoodUnset},
		{"second selection rejected", []models.Mood{models.MoodSad, models.MoodHappy}, ErrMoodAlreadySelected, models.MoodSad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMachineFixture(t, nil)
			var err error
			for _, mood := range tt.moods {
				err = f.machine.SelectMood(mood)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SelectMood() error = %v, want %v", err, tt.wantErr)
			}
			if got := f.machine.Snapshot().Mood; got != tt.want {
				t.Errorf("mood = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestCatchWithoutMoodIsIgnored(t *testing.T) {
	f := newMachineFixture(t, nil)

	origin := testOrigin
	for i := 0; i < 3; i++ {
		if f.machine.RequestCatch(&origin) {
			t.Fatal("RequestCatch() accepted without a mood")
		}
	}
	f.sched.Advance(10 * time.Second)
	f.machine.Wait()

	if got := f.machine.Snapshot().EarnedTokens; got != 0 {
		t.Errorf("earned = %d, want 0", got)
	}
	if f.provider.callCount() != 0 {
		t.Errorf("provider called %d times, want 0", f.provider.callCount())
	}
}

func TestRequestCatchTwiceDuringAnimation(t *testing.T) {
	f := newMachineFixture(t, nil)
	f.machine.SelectMood(models.MoodHappy)

	origin := testOrigin
	if !f.machine.RequestCatch(&origin) {
		t.Fatal("first RequestCatch() rejected")
	}
	if f.machine.RequestCatch(&origin) {
		t.Error("second RequestCatch() during animation accepted")
	}

	snap := f.machine.Snapshot()
	if !snap.IsAnimatingToken || snap.Animation == nil {
		t.Fatalf("expected animation in flight, got %+v", snap)
	}
	if snap.Animation.Slot != 0 || snap.Animation.From != testOrigin {
		t.Errorf("animation = %+v", snap.Animation)
	}
	if snap.EarnedTokens != 0 {
		t.Errorf("earned before landing = %d, want 0", snap.EarnedTokens)
	}

	f.sched.Advance(DefaultAnimationDuration)
	f.machine.Wait()

	snap = f.machine.Snapshot()
	if snap.EarnedTokens != 1 {
		t.Errorf("earned = %d, want 1", snap.EarnedTokens)
	}
	if snap.Animation != nil || snap.IsAnimatingToken || snap.IsLoading {
		t.Errorf("earn cycle not finished: %+v", snap)
	}
}

func TestRequestCatchRejectedWhileMessagePending(t *testing.T) {
	provider := &scriptedProvider{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	f := newMachineFixture(t, provider)
	f.machine.SelectMood(models.MoodNeutral)

	origin := testOrigin
	f.machine.RequestCatch(&origin)
	f.sched.Advance(DefaultAnimationDuration)
	<-provider.started

	snap := f.machine.Snapshot()
	if !snap.IsLoading || snap.Phase != models.PhaseEarning {
		t.Fatalf("expected pending message, got %+v", snap)
	}
	for i := 0; i < 5; i++ {
		if f.machine.RequestCatch(&origin) {
			t.Fatal("RequestCatch() accepted while message pending")
		}
	}

	close(provider.gate)
	f.machine.Wait()

	if got := f.machine.Snapshot().EarnedTokens; got != 1 {
		t.Errorf("earned = %d, want 1", got)
	}
}

func TestFullQuestCelebratesOnce(t *testing.T) {
	provider := &scriptedProvider{messages: []string{"One", "Two", "Three", "Four", "Five"}}
	f := newMachineFixture(t, provider)
	f.machine.SelectMood(models.MoodHappy)

	for i := 0; i < 5; i++ {
		f.earn(t)
	}

	snap := f.machine.Snapshot()
	if snap.EarnedTokens != 5 {
		t.Fatalf("earned = %d, want 5", snap.EarnedTokens)
	}
	if !snap.IsCelebrating || snap.Phase != models.PhaseCelebrating {
		t.Errorf("expected celebration, got %+v", snap)
	}
	if snap.Message != VictoryMessage {
		t.Errorf("message = %q, want victory message", snap.Message)
	}

	// Further catches at the boundary must not start a second cycle
	origin := testOrigin
	if f.machine.RequestCatch(&origin) {
		t.Error("RequestCatch() accepted on a full board")
	}

	f.sched.Advance(DefaultCelebrationDuration)
	if f.machine.Snapshot().IsCelebrating {
		t.Error("celebration still active after its duration")
	}
	f.sched.Advance(DefaultJournalPromptDelay - DefaultCelebrationDuration)
	f.sched.Advance(time.Minute)

	kinds := f.machine.Events().Kinds()
	if n := countKind(kinds, EventCelebrationStarted); n != 1 {
		t.Errorf("celebration_started emitted %d times, want 1", n)
	}
	if n := countKind(kinds, EventCelebrationEnded); n != 1 {
		t.Errorf("celebration_ended emitted %d times, want 1", n)
	}
	if n := countKind(kinds, EventJournalPrompt); n != 1 {
		t.Errorf("journal_prompt emitted %d times, want 1", n)
	}
	if f.observer.completions != 1 {
		t.Errorf("quest completions = %d, want 1", f.observer.completions)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, f.observer.tokens); diff != "" {
		t.Errorf("recorded slots mismatch (-want +got):\n%s", diff)
	}
}

func TestJournalPromptTiming(t *testing.T) {
	f := newMachineFixture(t, nil)
	f.machine.SelectMood(models.MoodHappy)
	for i := 0; i < 5; i++ {
		f.earn(t)
	}

	f.sched.Advance(DefaultJournalPromptDelay - time.Millisecond)
	if n := countKind(f.machine.Events().Kinds(), EventJournalPrompt); n != 0 {
		t.Fatalf("journal prompt fired early")
	}
	f.sched.Advance(time.Millisecond)
	if n := countKind(f.machine.Events().Kinds(), EventJournalPrompt); n != 1 {
		t.Errorf("journal prompt count = %d, want 1", n)
	}
}

func TestFinalTokenKeepsVictoryMessage(t *testing.T) {
	f := newMachineFixture(t, &scriptedProvider{messages: []string{"Keep going!"}})
	f.machine.SelectMood(models.MoodHappy)
	for i := 0; i < 5; i++ {
		f.earn(t)
	}

	if got := f.machine.Snapshot().Message; got != VictoryMessage {
		t.Errorf("message = %q, want victory message", got)
	}
	if len(f.observer.shown) != 4 {
		t.Errorf("shown messages = %d, want 4", len(f.observer.shown))
	}
	if len(f.observer.tokens) != 5 {
		t.Errorf("recorded tokens = %d, want 5", len(f.observer.tokens))
	}
}

func TestProviderFailureUsesFallback(t *testing.T) {
	f := newMachineFixture(t, &scriptedProvider{err: errProviderDown})
	f.machine.SelectMood(models.MoodSad)

	f.earn(t)

	snap := f.machine.Snapshot()
	if snap.EarnedTokens != 1 {
		t.Errorf("earned = %d, want 1", snap.EarnedTokens)
	}
	if snap.IsLoading || snap.IsAnimatingToken {
		t.Errorf("flags stuck after failure: %+v", snap)
	}
	if !isFallback(snap.Message) {
		t.Errorf("message %q is not a fallback message", snap.Message)
	}
	if f.observer.fallbacks != 1 {
		t.Errorf("fallbacks recorded = %d, want 1", f.observer.fallbacks)
	}
}

func TestProviderEmptyReplyUsesFallback(t *testing.T) {
	f := newMachineFixture(t, &scriptedProvider{messages: []string{"   "}})
	f.machine.SelectMood(models.MoodHappy)

	f.earn(t)

	if msg := f.machine.Snapshot().Message; !isFallback(msg) {
		t.Errorf("message %q is not a fallback message", msg)
	}
}

func TestProviderReceivesMood(t *testing.T) {
	provider := &scriptedProvider{}
	f := newMachineFixture(t, provider)
	f.machine.SelectMood(models.MoodNeutral)
	f.earn(t)

	if diff := cmp.Diff([]models.Mood{models.MoodNeutral}, provider.moods); diff != "" {
		t.Errorf("moods mismatch (-want +got):\n%s", diff)
	}
}

func TestResetWhileMessagePending(t *testing.T) {
	provider := &scriptedProvider{
		messages: []string{"Late reply"},
		gate:     make(chan struct{}),
		started:  make(chan struct{}, 1),
	}
	f := newMachineFixture(t, provider)
	f.machine.SelectMood(models.MoodHappy)

	origin := testOrigin
	f.machine.RequestCatch(&origin)
	f.sched.Advance(DefaultAnimationDuration)
	<-provider.started

	f.machine.Reset()
	close(provider.gate)
	f.machine.Wait()

	snap := f.machine.Snapshot()
	want := models.SessionSnapshot{
		ID:         "test-session",
		MaxTokens:  5,
		Message:    ResetMessage,
		Phase:      models.PhaseAwaitingMood,
		Generation: 1,
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("post-reset snapshot mismatch (-want +got):\n%s", diff)
	}
	if len(f.observer.shown) != 0 {
		t.Errorf("late reply was shown: %v", f.observer.shown)
	}
}

func TestResetDuringAnimationDropsLanding(t *testing.T) {
	f := newMachineFixture(t, nil)
	f.machine.SelectMood(models.MoodHappy)

	origin := testOrigin
	f.machine.RequestCatch(&origin)
	f.machine.Reset()
	f.sched.Advance(DefaultAnimationDuration)
	f.machine.Wait()

	if got := f.machine.Snapshot().EarnedTokens; got != 0 {
		t.Errorf("earned = %d, want 0", got)
	}
	if f.provider.callCount() != 0 {
		t.Errorf("provider called %d times after reset", f.provider.callCount())
	}
	if f.sched.Pending() != 0 {
		t.Errorf("%d timers still pending after reset", f.sched.Pending())
	}
}

func TestResetDuringCelebrationCancelsPrompt(t *testing.T) {
	f := newMachineFixture(t, nil)
	f.machine.SelectMood(models.MoodHappy)
	for i := 0; i < 5; i++ {
		f.earn(t)
	}

	f.sched.Advance(time.Second)
	f.machine.Reset()
	f.sched.Advance(time.Minute)

	kinds := f.machine.Events().Kinds()
	if n := countKind(kinds, EventJournalPrompt); n != 0 {
		t.Errorf("journal prompt fired after reset")
	}
	snap := f.machine.Snapshot()
	if snap.IsCelebrating || snap.EarnedTokens != 0 || snap.Mood.IsSet() {
		t.Errorf("reset did not clear celebration: %+v", snap)
	}
}

func TestEarnedTokensMonotonicBetweenResets(t *testing.T) {
	f := newMachineFixture(t, &scriptedProvider{err: errProviderDown})
	f.machine.SelectMood(models.MoodHappy)

	origin := testOrigin
	last := 0
	step := func() {
		got := f.machine.Snapshot().EarnedTokens
		if got < last {
			t.Fatalf("earned decreased from %d to %d", last, got)
		}
		last = got
	}

	for i := 0; i < 20; i++ {
		f.machine.RequestCatch(&origin)
		step()
		f.sched.Advance(400 * time.Millisecond)
		f.machine.Wait()
		step()
	}

	f.machine.Reset()
	if got := f.machine.Snapshot().EarnedTokens; got != 0 {
		t.Errorf("earned after reset = %d, want 0", got)
	}
}

func TestDegradedModeWithoutOrigin(t *testing.T) {
	f := newMachineFixture(t, &scriptedProvider{messages: []string{"Nice!"}})
	f.machine.SelectMood(models.MoodHappy)
	before := f.machine.Events().LastSeq()

	if !f.machine.RequestCatch(nil) {
		t.Fatal("RequestCatch(nil) rejected")
	}
	f.machine.Wait()

	snap := f.machine.Snapshot()
	if snap.EarnedTokens != 1 || snap.Message != "Nice!" {
		t.Errorf("degraded earn = %+v", snap)
	}
	for _, e := range f.machine.Events().Since(before) {
		if e.Kind == EventSound && e.Cue == audio.CueToken {
			t.Error("token cue played without animation")
		}
	}
}

func TestDegradedModeWithoutSlotLayout(t *testing.T) {
	f := newMachineFixture(t, nil)
	f.machine.layout = NewBoardLayout(5, 0, 0)
	f.machine.SelectMood(models.MoodHappy)

	origin := testOrigin
	if !f.machine.RequestCatch(&origin) {
		t.Fatal("RequestCatch() rejected")
	}
	f.machine.Wait()

	if snap := f.machine.Snapshot(); snap.EarnedTokens != 1 || snap.Animation != nil {
		t.Errorf("degraded earn = %+v", snap)
	}
}

func TestCueOrdering(t *testing.T) {
	f := newMachineFixture(t, nil)
	f.machine.SelectMood(models.MoodHappy)
	f.earn(t)
	f.machine.Reset()

	var cues []audio.Cue
	for _, e := range f.machine.Events().Since(0) {
		if e.Kind == EventSound {
			cues = append(cues, e.Cue)
		}
	}
	want := []audio.Cue{audio.CueToken, audio.CueMessage, audio.CueReset}
	if diff := cmp.Diff(want, cues); diff != "" {
		t.Errorf("cue order mismatch (-want +got):\n%s", diff)
	}
}

func TestCuesDroppedBeforeAudioInit(t *testing.T) {
	sched := NewManualScheduler()
	m := NewSessionMachine(MachineConfig{
		ID:        "quiet",
		MaxTokens: 5,
		Provider:  &scriptedProvider{},
		Layout:    NewBoardLayout(5, 1000, 800),
		Scheduler: sched,
	})
	defer m.Close()

	m.SelectMood(models.MoodHappy)
	origin := testOrigin
	m.RequestCatch(&origin)
	sched.Advance(DefaultAnimationDuration)
	m.Wait()

	if n := countKind(m.Events().Kinds(), EventSound); n != 0 {
		t.Errorf("%d sound events before audio init", n)
	}

	// Reset counts as the first interaction
	m.Reset()
	if n := countKind(m.Events().Kinds(), EventSound); n != 1 {
		t.Errorf("sound events after reset = %d, want 1", n)
	}
}

func TestCloseCancelsPendingProvider(t *testing.T) {
	provider := &scriptedProvider{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	f := newMachineFixture(t, provider)
	f.machine.SelectMood(models.MoodHappy)

	origin := testOrigin
	f.machine.RequestCatch(&origin)
	f.sched.Advance(DefaultAnimationDuration)
	<-provider.started

	f.machine.Close()

	if err := f.machine.SelectMood(models.MoodSad); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("SelectMood() after Close error = %v", err)
	}
	if f.machine.RequestCatch(&origin) {
		t.Error("RequestCatch() accepted after Close")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newMachineFixture(t, nil)
	f.machine.SelectMood(models.MoodHappy)
	origin := testOrigin
	f.machine.RequestCatch(&origin)

	snap := f.machine.Snapshot()
	snap.Animation.Slot = 99
	if got := f.machine.Snapshot().Animation.Slot; got != 0 {
		t.Errorf("snapshot shares animation state, slot = %d", got)
	}

	f.sched.Advance(DefaultAnimationDuration)
	f.machine.Wait()
	if diff := cmp.Diff(f.machine.Snapshot(), f.machine.Snapshot(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("consecutive snapshots differ:\n%s", diff)
	}
}
