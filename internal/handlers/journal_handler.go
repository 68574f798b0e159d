package handlers

import (
	"errors"
	"net/http"

	"readingquest/internal/models"
	"readingquest/internal/service"
)

// JournalHandler serves the reading journal
type JournalHandler struct {
	quests *service.QuestService
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(quests *service.QuestService) *JournalHandler {
	return &JournalHandler{quests: quests}
}

// List shows the journal, newest entry first
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.quests.Journal().List(r.Context())
	view := JournalListView{Entries: entries}
	if len(entries) == 0 {
		view.Entries = []models.JournalEntry{}
		view.EmptyMessage = service.EmptyJournalText
	}
	respondWithJSON(w, http.StatusOK, view)
}

// OpenDraft starts the write-mode questions
func (h *JournalHandler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())
	draft, err := h.quests.OpenDraft(qs.Machine.ID())
	if err != nil {
		h.respondJournalError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, buildDraftView(draft))
}

// Answer records the answer to one question
func (h *JournalHandler) Answer(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())

	var req struct {
		Step string `json:"step"`
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "Invalid journal answer", err)
		return
	}

	draft := qs.Draft()
	if draft == nil {
		respondWithError(w, http.StatusConflict, ErrJournalOutOfOrder, "", nil)
		return
	}

	var err error
	switch models.JournalStep(req.Step) {
	case models.JournalStepFirst:
		err = draft.AnswerFirst(req.Text)
	case models.JournalStepSecond:
		err = draft.AnswerSecond(req.Text)
	default:
		err = service.ErrStepOutOfOrder
	}
	if err != nil {
		h.respondJournalError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, buildDraftView(draft))
}

// Submit asks for the reflection and saves the entry
func (h *JournalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())
	entry, err := h.quests.SubmitDraft(r.Context(), qs.Machine.ID())
	if err != nil {
		h.respondJournalError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, JournalDraftView{Step: models.JournalStepDone, Entry: entry})
}

func (h *JournalHandler) respondJournalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAnswerRequired):
		respondWithError(w, http.StatusBadRequest, ErrAnswerRequired, "", nil)
	case errors.Is(err, service.ErrAnswerTooLong):
		respondWithError(w, http.StatusBadRequest, ErrAnswerTooLong, "", nil)
	case errors.Is(err, service.ErrStepOutOfOrder):
		respondWithError(w, http.StatusConflict, ErrJournalOutOfOrder, "", nil)
	case errors.Is(err, service.ErrSessionNotFound):
		respondWithError(w, http.StatusNotFound, ErrSessionNotFound, "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Journal error", err)
	}
}
