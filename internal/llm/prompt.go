package llm

import (
	"fmt"
	"strings"

	"readingquest/internal/models"
)

// moodTones tunes the voice of encouragement messages
var moodTones = map[models.Mood]string{
	models.MoodHappy:   "energetic and celebratory, using exclamation points and happy words",
	models.MoodNeutral: "calm, gentle, and steadily encouraging",
	models.MoodSad:     "soft, comforting, and understanding, like a warm hug in words",
}

// ReaderProfile describes the child the prompts are written for
type ReaderProfile struct {
	Name      string
	Age       int
	Interests string
}

// DefaultReader is the reader the quest was built for
var DefaultReader = ReaderProfile{
	Name:      "Celine",
	Age:       7,
	Interests: "She loves princesses and butterflies.",
}

// BuildMessagePrompt asks for a one-sentence encouragement in a mood-appropriate tone
func BuildMessagePrompt(reader ReaderProfile, mood models.Mood) string {
	tone, ok := moodTones[mood]
	if !ok {
		tone = moodTones[models.MoodNeutral]
	}

	feeling := string(mood)
	if mood == models.MoodSad {
		feeling = "sad or tired"
	}

	return fmt.Sprintf(`Generate a very short, positive, and encouraging message for a %d-year-old girl named %s who is learning to read. %s
Her current mood is feeling a bit %s.
The message must be one cheerful sentence, with a %s tone.
Examples: "You're a reading superstar!", "Every page is a new adventure!". Do not use markdown.`,
		reader.Age, reader.Name, reader.Interests, feeling, tone)
}

// BuildReflectionPrompt asks for a one-sentence journal reflection
func BuildReflectionPrompt(reader ReaderProfile, answer1, answer2 string) string {
	return fmt.Sprintf(`A %d-year-old girl named %s is reflecting on her reading.
Her favorite part was: "%s"
The tricky part was: "%s"
Write a very short, positive, and encouraging one-sentence reflection for her, as if you are a magical journal. Address her by name. Example: "%s, it's wonderful that you enjoyed the adventure, and it's so smart to notice the tricky words!". Do not use markdown or quotes.`,
		reader.Age, reader.Name, answer1, answer2, reader.Name)
}

// cleanReply trims whitespace and a single pair of surrounding quotes
func cleanReply(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, `"`)
	text = strings.TrimSuffix(text, `"`)
	return strings.TrimSpace(text)
}
