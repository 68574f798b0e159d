package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"readingquest/internal/database"
	"readingquest/internal/llm"
	"readingquest/internal/repository"
	"readingquest/internal/security"
	"readingquest/internal/service"
)

type testServer struct {
	quests *service.QuestService
	sched  *service.ManualScheduler
	tokens *security.SessionTokens
	mux    *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(""); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	provider := llm.NewCannedProvider()
	sched := service.NewManualScheduler()
	journal := service.NewJournalService(repository.NewSQLJournalStore(db), "journal", provider, nil)
	quests := service.NewQuestService(service.QuestOptions{
		Provider:       provider,
		Progress:       repository.NewProgressRepository(db),
		Scheduler:      sched,
		Seed:           7,
		ViewportWidth:  1000,
		ViewportHeight: 800,
	}, journal)
	t.Cleanup(quests.Close)

	tokens := security.NewSessionTokens("test-secret", time.Hour)
	return &testServer{
		quests: quests,
		sched:  sched,
		tokens: tokens,
		mux:    NewRouter(quests, tokens, nil),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// createSession starts a quest and returns its ID and token
func (s *testServer) createSession(t *testing.T) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/sessions", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var view CreateSessionView
	decodeBody(t, rec, &view)
	if view.ID == "" || view.Token == "" {
		t.Fatalf("create session: missing id or token in %s", rec.Body.String())
	}
	return view.ID, view.Token
}

// earn catches with an explicit origin and lets the animation and provider finish
func (s *testServer) earn(t *testing.T, id, token string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/sessions/"+id+"/catch", token, map[string]interface{}{
		"origin": map[string]float64{"x": 475, "y": 375, "width": 50, "height": 50},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("catch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Accepted bool `json:"accepted"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Accepted {
		t.Fatalf("catch: expected request to be accepted")
	}
	s.settle(t, id, service.DefaultAnimationDuration)
}

// settle advances the clock and waits for provider work on the session
func (s *testServer) settle(t *testing.T, id string, d time.Duration) {
	t.Helper()
	s.sched.Advance(d)
	qs, err := s.quests.Get(id)
	if err != nil {
		t.Fatalf("session %s not found: %v", id, err)
	}
	qs.Machine.Wait()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func errorText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}
