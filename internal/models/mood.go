package models

import (
	"errors"
	"strings"
)

// Mood is the emotional state a reader picks at the start of a quest
type Mood string

const (
	MoodUnset   Mood = ""
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

// ErrInvalidMood is returned when a mood string is not one of the known moods
var ErrInvalidMood = errors.New("invalid mood")

// MoodOption describes a mood choice shown on the mood selector
type MoodOption struct {
	Mood  Mood   `json:"mood"`
	Glyph string `json:"glyph"`
	Label string `json:"label"`
}

// MoodOptions lists the selectable moods in display order
var MoodOptions = []MoodOption{
	{Mood: MoodHappy, Glyph: "😊", Label: "Happy & Ready!"},
	{Mood: MoodNeutral, Glyph: "😐", Label: "Feeling Okay"},
	{Mood: MoodSad, Glyph: "😢", Label: "A Bit Tired"},
}

// ParseMood converts user input into a Mood
func ParseMood(s string) (Mood, error) {
	switch Mood(strings.ToLower(strings.TrimSpace(s))) {
	case MoodHappy:
		return MoodHappy, nil
	case MoodNeutral:
		return MoodNeutral, nil
	case MoodSad:
		return MoodSad, nil
	}
	return MoodUnset, ErrInvalidMood
}

// IsSet reports whether a mood has been chosen
func (m Mood) IsSet() bool {
	return m != MoodUnset
}
