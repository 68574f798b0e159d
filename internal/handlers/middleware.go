package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"readingquest/internal/security"
	"readingquest/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const QuestSessionContextKey ContextKey = "quest_session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	quests  *service.QuestService
	tokens  *security.SessionTokens
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(quests *service.QuestService, tokens *security.SessionTokens, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		quests:  quests,
		tokens:  tokens,
		limiter: limiter,
	}
}

// RequireSession is middleware that requires a bearer token issued for the
// session named in the path
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := security.BearerToken(r)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		sessionID, err := m.tokens.Verify(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "Rejected session token", err)
			return
		}
		if sessionID != r.PathValue("id") {
			respondWithError(w, http.StatusForbidden, ErrUnauthorized, "", nil)
			return
		}

		qs, err := m.quests.Get(sessionID)
		if err != nil {
			if errors.Is(err, service.ErrSessionNotFound) {
				respondWithError(w, http.StatusNotFound, ErrSessionNotFound, "", nil)
				return
			}
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading session", err)
			return
		}
		qs.Touch()

		ctx := context.WithValue(r.Context(), QuestSessionContextKey, qs)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// GetQuestSession retrieves the quest session from the request context
func GetQuestSession(ctx context.Context) *service.QuestSession {
	qs, ok := ctx.Value(QuestSessionContextKey).(*service.QuestSession)
	if !ok {
		return nil
	}
	return qs
}
