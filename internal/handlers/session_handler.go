package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"readingquest/internal/audio"
	"readingquest/internal/models"
	"readingquest/internal/security"
	"readingquest/internal/service"
)

// SessionHandler drives the quest session state machine
type SessionHandler struct {
	quests *service.QuestService
	tokens *security.SessionTokens
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(quests *service.QuestService, tokens *security.SessionTokens) *SessionHandler {
	return &SessionHandler{quests: quests, tokens: tokens}
}

// Create starts a new quest and hands back its bearer token
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	qs, err := h.quests.Create()
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, ErrInternalServerError, "Error creating session", err)
		return
	}

	token, err := h.tokens.Issue(qs.Machine.ID())
	if err != nil {
		h.quests.Remove(qs.Machine.ID())
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing session token", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, CreateSessionView{
		ID:          qs.Machine.ID(),
		Token:       token,
		SessionView: buildSessionView(h.quests, qs),
		Moods:       models.MoodOptions,
	})
}

// Get returns the session snapshot and board
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())
	respondWithJSON(w, http.StatusOK, buildSessionView(h.quests, qs))
}

// SelectMood records the reader's mood
func (h *SessionHandler) SelectMood(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())

	var req struct {
		Mood string `json:"mood"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "Invalid mood request", err)
		return
	}

	mood, err := models.ParseMood(req.Mood)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidMood, "", nil)
		return
	}

	if err := qs.Machine.SelectMood(mood); err != nil {
		switch {
		case errors.Is(err, service.ErrMoodAlreadySelected):
			respondWithError(w, http.StatusConflict, ErrMoodAlreadyChosen, "", nil)
		case errors.Is(err, service.ErrSessionClosed):
			respondWithError(w, http.StatusNotFound, ErrSessionNotFound, "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error selecting mood", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, buildSessionView(h.quests, qs))
}

// Catch asks for the next token. A busy or full board is not an error; the
// response just reports that nothing happened.
func (h *SessionHandler) Catch(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())

	var req struct {
		Origin *models.Rect `json:"origin"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "Invalid catch request", err)
		return
	}

	accepted := qs.Machine.RequestCatch(req.Origin)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"accepted": accepted,
		"state":    buildSessionView(h.quests, qs),
	})
}

// Reset starts the quest over
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())
	qs.Bridge.Close()
	qs.Machine.Reset()
	respondWithJSON(w, http.StatusOK, buildSessionView(h.quests, qs))
}

// InitAudio records the first user interaction so sound cues can play
func (h *SessionHandler) InitAudio(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())
	qs.Machine.InitAudio()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"initialized": true,
		"cues": map[audio.Cue][]audio.Note{
			audio.CueToken:     audio.Notes(audio.CueToken),
			audio.CueMessage:   audio.Notes(audio.CueMessage),
			audio.CueMilestone: audio.Notes(audio.CueMilestone),
			audio.CueReset:     audio.Notes(audio.CueReset),
		},
	})
}

// Events returns the session events after the given sequence number
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())

	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", nil)
			return
		}
		after = n
	}

	events := qs.Machine.Events().Since(after)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events":   events,
		"last_seq": qs.Machine.Events().LastSeq(),
	})
}

// SetLayout stores the slot positions measured by the client
func (h *SessionHandler) SetLayout(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())

	var req struct {
		Slots []models.Rect `json:"slots"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "Invalid layout request", err)
		return
	}

	qs.Layout.SetSlots(req.Slots)
	w.WriteHeader(http.StatusNoContent)
}

// Delete ends the quest session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	qs := GetQuestSession(r.Context())
	if err := h.quests.Remove(qs.Machine.ID()); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error ending session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stages lists the board stages
func (h *SessionHandler) Stages(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stages": h.quests.Stages(),
		"moods":  models.MoodOptions,
	})
}

// Progress returns the progress log totals
func (h *SessionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	stats, err := h.quests.Stats()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading progress", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
