package models

// JournalEntry is one completed reflection written after a quest
type JournalEntry struct {
	Date       string `json:"date"`
	Question1  string `json:"q1"`
	Answer1    string `json:"a1"`
	Question2  string `json:"q2"`
	Answer2    string `json:"a2"`
	Reflection string `json:"reflection"`
}

// JournalStep is the position of a write-mode draft in the two-question flow
type JournalStep string

const (
	JournalStepFirst      JournalStep = "q1"
	JournalStepSecond     JournalStep = "q2"
	JournalStepReflecting JournalStep = "reflecting"
	JournalStepDone       JournalStep = "done"
)
