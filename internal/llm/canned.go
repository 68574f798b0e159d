package llm

import (
	"context"
	"fmt"
	"sync/atomic"

	"readingquest/internal/models"
)

var cannedMessages = map[models.Mood][]string{
	models.MoodHappy: {
		"Wow, you are flying through those pages like a butterfly!",
		"Hooray, another chapter conquered, superstar reader!",
		"Your reading sparkle is shining so bright today!",
	},
	models.MoodNeutral: {
		"Every page you read makes you a stronger reader.",
		"Nice and steady, you are doing a great job.",
		"One more page, one more adventure.",
	},
	models.MoodSad: {
		"It's okay to feel tired, and you are still doing wonderfully.",
		"Take a deep breath, every little page is a big step.",
		"You are brave for reading even when you feel blue.",
	},
}

// CannedProvider answers without any network access.
// It is used for local development and when no API key is configured.
type CannedProvider struct {
	reader ReaderProfile
	next   atomic.Uint64
}

// NewCannedProvider creates an offline provider
func NewCannedProvider() *CannedProvider {
	return &CannedProvider{reader: DefaultReader}
}

// MotivationalMessage rotates through the messages for the mood
func (p *CannedProvider) MotivationalMessage(ctx context.Context, mood models.Mood) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	messages, ok := cannedMessages[mood]
	if !ok {
		messages = cannedMessages[models.MoodNeutral]
	}
	i := p.next.Add(1) - 1
	return messages[i%uint64(len(messages))], nil
}

// Reflection echoes the reader's favorite part back to her
func (p *CannedProvider) Reflection(ctx context.Context, answer1, answer2 string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s, it's wonderful that you enjoyed %q, and it's so smart to notice what was tricky!",
		p.reader.Name, answer1), nil
}
