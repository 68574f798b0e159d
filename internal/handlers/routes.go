package handlers

import (
	"net/http"

	"readingquest/internal/security"
	"readingquest/internal/service"
)

// NewRouter registers every API route on a new mux
func NewRouter(quests *service.QuestService, tokens *security.SessionTokens, limiter *security.RateLimiter) *http.ServeMux {
	middleware := NewMiddleware(quests, tokens, limiter)
	sessionHandler := NewSessionHandler(quests, tokens)
	captureHandler := NewCaptureHandler()
	journalHandler := NewJournalHandler(quests)

	mux := http.NewServeMux()
	RegisterRoutes(mux, middleware, sessionHandler, captureHandler, journalHandler)
	return mux
}

// RegisterRoutes wires the handlers onto mux
func RegisterRoutes(mux *http.ServeMux, m *Middleware, sessions *SessionHandler, captures *CaptureHandler, journal *JournalHandler) {
	session := func(h http.HandlerFunc) http.HandlerFunc {
		return m.RequireSession(h)
	}

	// Catalogue and progress
	mux.HandleFunc("GET /api/stages", sessions.Stages)
	mux.HandleFunc("GET /api/progress", sessions.Progress)
	mux.HandleFunc("GET /api/journal", journal.List)

	// Quest sessions
	mux.HandleFunc("POST /api/sessions", m.RateLimit(sessions.Create))
	mux.HandleFunc("GET /api/sessions/{id}", session(sessions.Get))
	mux.HandleFunc("DELETE /api/sessions/{id}", session(sessions.Delete))
	mux.HandleFunc("POST /api/sessions/{id}/mood", session(sessions.SelectMood))
	mux.HandleFunc("POST /api/sessions/{id}/catch", m.RateLimit(session(sessions.Catch)))
	mux.HandleFunc("POST /api/sessions/{id}/reset", session(sessions.Reset))
	mux.HandleFunc("POST /api/sessions/{id}/audio", session(sessions.InitAudio))
	mux.HandleFunc("GET /api/sessions/{id}/events", session(sessions.Events))
	mux.HandleFunc("PUT /api/sessions/{id}/layout", session(sessions.SetLayout))

	// Capture surface
	mux.HandleFunc("POST /api/sessions/{id}/capture", session(captures.Open))
	mux.HandleFunc("GET /api/sessions/{id}/capture", session(captures.Get))
	mux.HandleFunc("POST /api/sessions/{id}/capture/step", session(captures.Step))
	mux.HandleFunc("POST /api/sessions/{id}/capture/catch", m.RateLimit(session(captures.Catch)))
	mux.HandleFunc("DELETE /api/sessions/{id}/capture", session(captures.Close))

	// Journal write mode
	mux.HandleFunc("POST /api/sessions/{id}/journal", session(journal.OpenDraft))
	mux.HandleFunc("POST /api/sessions/{id}/journal/answer", session(journal.Answer))
	mux.HandleFunc("POST /api/sessions/{id}/journal/submit", m.RateLimit(session(journal.Submit)))
}
