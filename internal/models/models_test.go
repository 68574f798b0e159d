package models

import (
	"errors"
	"testing"
)

func TestParseMood(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Mood
		wantErr bool
	}{
		{name: "happy", input: "happy", want: MoodHappy},
		{name: "neutral with spaces", input: "  neutral ", want: MoodNeutral},
		{name: "upper case sad", input: "SAD", want: MoodSad},
		{name: "empty", input: "", want: MoodUnset, wantErr: true},
		{name: "unknown", input: "grumpy", want: MoodUnset, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMood(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMood(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMood) {
				t.Errorf("ParseMood(%q) error = %v, want ErrInvalidMood", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMood(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoodOptionsCoverEveryMood(t *testing.T) {
	seen := make(map[Mood]bool)
	for _, opt := range MoodOptions {
		if !opt.Mood.IsSet() {
			t.Errorf("mood option %q has unset mood", opt.Label)
		}
		seen[opt.Mood] = true
	}
	for _, m := range []Mood{MoodHappy, MoodNeutral, MoodSad} {
		if !seen[m] {
			t.Errorf("mood %q missing from MoodOptions", m)
		}
	}
}

func TestCenteredRect(t *testing.T) {
	r := CenteredRect(1000, 800, 50, 50)
	want := Rect{X: 475, Y: 375, Width: 50, Height: 50}
	if r != want {
		t.Errorf("CenteredRect() = %+v, want %+v", r, want)
	}
	if r.IsZero() {
		t.Error("CenteredRect() should not be zero")
	}
	if !(Rect{}).IsZero() {
		t.Error("empty Rect should be zero")
	}
}

func TestSessionSnapshotIsBoardFull(t *testing.T) {
	tests := []struct {
		name   string
		earned int
		max    int
		want   bool
	}{
		{name: "empty board", earned: 0, max: 5, want: false},
		{name: "one left", earned: 4, max: 5, want: false},
		{name: "full board", earned: 5, max: 5, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SessionSnapshot{EarnedTokens: tt.earned, MaxTokens: tt.max}
			if got := s.IsBoardFull(); got != tt.want {
				t.Errorf("IsBoardFull() = %v, want %v", got, tt.want)
			}
		})
	}
}
