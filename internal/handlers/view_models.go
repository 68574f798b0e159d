package handlers

import (
	"readingquest/internal/capture"
	"readingquest/internal/models"
	"readingquest/internal/service"
)

// SlotView is one stage on the progress board
type SlotView struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	Glyph         string `json:"glyph"`
	Tooltip       string `json:"tooltip"`
	Earned        bool   `json:"earned"`
	IsDestination bool   `json:"is_destination"`
	Reached       bool   `json:"reached"`
}

// BoardView is the read-only projection of a session onto its stages
type BoardView struct {
	Slots         []SlotView `json:"slots"`
	PathFilled    []bool     `json:"path_filled"`
	IsBoardFull   bool       `json:"is_board_full"`
	CanCatch      bool       `json:"can_catch"`
	ControlsBusy  bool       `json:"controls_busy"`
	ShowMoodPanel bool       `json:"show_mood_panel"`
}

// SessionView is the response body for session reads and updates
type SessionView struct {
	Session models.SessionSnapshot `json:"session"`
	Board   BoardView              `json:"board"`
	LastSeq int64                  `json:"last_seq"`
}

// CreateSessionView is returned when a new quest starts
type CreateSessionView struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	SessionView
	Moods []models.MoodOption `json:"moods"`
}

// CaptureView describes the open capture surface
type CaptureView struct {
	Targets  []capture.Target `json:"targets"`
	HasCatch bool             `json:"has_catch"`
	FrameMs  int64            `json:"frame_ms"`
}

// JournalDraftView describes the write-mode flow position
type JournalDraftView struct {
	Step     models.JournalStep   `json:"step"`
	Question string               `json:"question,omitempty"`
	Entry    *models.JournalEntry `json:"entry,omitempty"`
}

// JournalListView is the read-mode journal
type JournalListView struct {
	Entries      []models.JournalEntry `json:"entries"`
	EmptyMessage string                `json:"empty_message,omitempty"`
}

// BuildBoardView projects a snapshot onto the stage list
func BuildBoardView(stages []models.Stage, snap models.SessionSnapshot) BoardView {
	last := len(stages) - 1
	view := BoardView{
		Slots:         make([]SlotView, len(stages)),
		PathFilled:    make([]bool, max(last, 0)),
		IsBoardFull:   snap.IsBoardFull(),
		ControlsBusy:  snap.IsLoading || snap.IsAnimatingToken,
		ShowMoodPanel: !snap.Mood.IsSet(),
	}
	view.CanCatch = snap.Mood.IsSet() && !view.IsBoardFull && !view.ControlsBusy

	for i, stage := range stages {
		slot := SlotView{
			Index:         i,
			Name:          stage.Name,
			Glyph:         stage.Glyph,
			Tooltip:       stage.Tooltip,
			Earned:        snap.EarnedTokens > i,
			IsDestination: i == last,
		}
		if slot.IsDestination {
			slot.Reached = snap.EarnedTokens == len(stages)
		}
		view.Slots[i] = slot
	}
	for i := range view.PathFilled {
		view.PathFilled[i] = snap.EarnedTokens > i
	}
	return view
}

func buildSessionView(quests *service.QuestService, qs *service.QuestSession) SessionView {
	snap := qs.Machine.Snapshot()
	return SessionView{
		Session: snap,
		Board:   BuildBoardView(quests.Stages(), snap),
		LastSeq: qs.Machine.Events().LastSeq(),
	}
}

func buildCaptureView(surface *capture.Surface) CaptureView {
	return CaptureView{
		Targets:  surface.Targets(),
		HasCatch: surface.HasCatch(),
		FrameMs:  capture.FrameInterval.Milliseconds(),
	}
}

func buildDraftView(draft *service.JournalDraft) JournalDraftView {
	return JournalDraftView{
		Step:     draft.Step(),
		Question: draft.Question(),
		Entry:    draft.Entry(),
	}
}
