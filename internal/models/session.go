package models

import "time"

// Phase is the externally visible state of a quest session
type Phase string

const (
	PhaseAwaitingMood Phase = "awaiting_mood"
	PhasePlaying      Phase = "playing"
	PhaseEarning      Phase = "earning"
	PhaseCelebrating  Phase = "celebrating"
)

// SessionSnapshot is a read-only copy of a quest session's state
type SessionSnapshot struct {
	ID               string           `json:"id"`
	Mood             Mood             `json:"mood"`
	EarnedTokens     int              `json:"earned_tokens"`
	MaxTokens        int              `json:"max_tokens"`
	IsLoading        bool             `json:"is_loading"`
	IsAnimatingToken bool             `json:"is_animating_token"`
	IsCelebrating    bool             `json:"is_celebrating"`
	Message          string           `json:"message"`
	Phase            Phase            `json:"phase"`
	Generation       uint64           `json:"generation"`
	Animation        *AnimationTarget `json:"animation,omitempty"`
}

// IsBoardFull reports whether every stage has been earned
func (s SessionSnapshot) IsBoardFull() bool {
	return s.EarnedTokens >= s.MaxTokens
}

// ProgressRecord is one earned token as stored in the progress log
type ProgressRecord struct {
	ID           int64
	SessionID    string
	Slot         int
	Mood         Mood
	Message      string
	UsedFallback bool
	EarnedAt     time.Time
}

// QuestCompletion records a board that was filled all the way to the castle
type QuestCompletion struct {
	ID          int64
	SessionID   string
	Mood        Mood
	Tokens      int
	CompletedAt time.Time
}

// ProgressStats summarises the progress log
type ProgressStats struct {
	TokensEarned    int `json:"tokens_earned"`
	QuestsCompleted int `json:"quests_completed"`
	FallbackCount   int `json:"fallback_messages"`
}
