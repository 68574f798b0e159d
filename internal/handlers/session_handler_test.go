package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"readingquest/internal/models"
	"readingquest/internal/service"
)

func TestCreateSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/sessions", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var view CreateSessionView
	decodeBody(t, rec, &view)

	if view.Session.Phase != models.PhaseAwaitingMood {
		t.Errorf("expected phase %s, got %s", models.PhaseAwaitingMood, view.Session.Phase)
	}
	if view.Session.Message != service.InitialMessage {
		t.Errorf("expected initial message, got %q", view.Session.Message)
	}
	if !view.Board.ShowMoodPanel {
		t.Error("expected mood panel to be shown")
	}
	if view.Board.CanCatch {
		t.Error("expected catching to be disabled before a mood is chosen")
	}
	if len(view.Moods) != len(models.MoodOptions) {
		t.Errorf("expected %d moods, got %d", len(models.MoodOptions), len(view.Moods))
	}
	if s.quests.Count() != 1 {
		t.Errorf("expected 1 live session, got %d", s.quests.Count())
	}
}

func TestSessionRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	id, token := s.createSession(t)
	otherID, _ := s.createSession(t)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{name: "no token", path: "/api/sessions/" + id, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", path: "/api/sessions/" + id, token: "not-a-token", wantStatus: http.StatusUnauthorized},
		{name: "token for another session", path: "/api/sessions/" + otherID, token: token, wantStatus: http.StatusForbidden},
		{name: "own session", path: "/api/sessions/" + id, token: token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, tt.path, tt.token, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDeletedSessionIsGone(t *testing.T) {
	s := newTestServer(t)
	id, token := s.createSession(t)

	if rec := s.do(t, http.MethodDelete, "/api/sessions/"+id, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/sessions/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := errorText(t, rec); got != ErrSessionNotFound {
		t.Errorf("expected %q, got %q", ErrSessionNotFound, got)
	}
}

func TestSelectMood(t *testing.T) {
	s := newTestServer(t)
	id, token := s.createSession(t)
	path := "/api/sessions/" + id + "/mood"

	rec := s.do(t, http.MethodPost, path, token, map[string]string{"mood": "grumpy"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid mood: expected 400, got %d", rec.Code)
	}
	if got := errorText(t, rec); got != ErrInvalidMood {
		t.Errorf("invalid mood: expected %q, got %q", ErrInvalidMood, got)
	}

	rec = s.do(t, http.MethodPost, path, token, map[string]string{"mood": "happy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view SessionView
	decodeBody(t, rec, &view)
	if view.Session.Mood != models.MoodHappy {
		t.Errorf("expected mood happy, got %q", view.Session.Mood)
	}
	if view.Board.ShowMoodPanel {
		t.Error("expected mood panel to be hidden")
	}
	if !view.Board.CanCatch {
		t.Error("expected catching to be enabled")
	}

	rec = s.do(t, http.MethodPost, path, token, map[string]string{"mood": "sad"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second mood: expected 409, got %d", rec.Code)
	}
}

func TestCatchBeforeMoodIsNotAccepted(t *testing.T) {
	s := newTestServer(t)
	id, token := s.createSession(t)

	rec := s.do(t, http.MethodPost, "/api/sessions/"+id+"/catch", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Accepted bool        `json:"accepted"`
		State    SessionView `json:"state"`
	}
	decodeBody(t, rec, &resp)
	if resp.Accepted {
		t.Error("expected catch to be ignored without a mood")
	}
	if resp.State.Session.EarnedTokens != 0 {
		t.Errorf("expected no tokens, got %d", resp.State.Session.EarnedTokens)
	}
}

func TestQuestReachesCastle(t *testing.T) {
	s := newTestServer(t)
	id, token := s.createSession(t)
	s.do(t, http.MethodPost, "/api/sessions/"+id+"/audio", token, nil)
	s.do(t, http.MethodPost, "/api/sessions/"+id+"/mood", token, map[string]string{"mood": "happy"})

	for i := 0; i < 5; i++ {
		s.earn(t, id, token)
	}

	rec := s.do(t, http.MethodGet, "/api/sessions/"+id, token, nil)
	var view SessionView
	decodeBody(t, rec, &view)

	if view.Session.EarnedTokens != 5 {
		t.Fatalf("expected 5 tokens, got %d", view.Session.EarnedTokens)
	}
	if !view.Board.IsBoardFull {
		t.Error("expected board to be full")
	}
	if !view.Board.Slots[4].Reached {
		t.Error("expected the castle to be reached")
	}
	if view.Board.CanCatch {
		t.Error("expected catching to be disabled on a full board")
	}
	if view.Session.Message != service.VictoryMessage {
		t.Errorf("expected victory message, got %q", view.Session.Message)
	}
	if !view.Session.IsCelebrating {
		t.Error("expected celebration to be running")
	}

	rec = s.do(t, http.MethodGet, "/api/progress", "", nil)
	var stats models.ProgressStats
	decodeBody(t, rec, &stats)
	if stats.TokensEarned != 5 || stats.QuestsCompleted != 1 {
		t.Errorf("expected 5 tokens and 1 quest, got %+v", stats)
	}
}

func TestEventsPolling(t *testing.T) {
	s := newTestServer(t)
	id, token := s.createSession(t)
	s.do(t, http.MethodPost, "/api/sessions/"+id+"/audio", token, nil)
	s.do(t, http.MethodPost, "/api/sessions/"+id+"/mood", token, map[string]string{"mood": "neutral"})
	s.earn(t, id, token)

	type eventsResponse struct {
		Events  []service.Event `json:"events"`
		LastSeq int64           `json:"last_seq"`
	}

	rec := s.do(t, http.MethodGet, "/api/sessions/"+id+"/events", token, nil)
	var all eventsResponse
	decodeBody(t, rec, &all)

	var kinds []service.EventKind
	for _, e := range all.Events {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) < 3 {
		t.Fatalf("expected token cue, message cue and message events, got %v", kinds)
	}

	rec = s.do(t, http.MethodGet, "/api/sessions/"+id+"/events?after="+strconv.FormatInt(all.LastSeq, 10), token, nil)
	var none eventsResponse
	decodeBody(t, rec, &none)
	if len(none.Events) != 0 {
		t.Errorf("expected no events after last seq, got %d", len(none.Events))
	}

	rec = s.do(t, http.MethodGet, "/api/sessions/"+id+"/events?after=abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad cursor, got %d", rec.Code)
	}
}

func TestResetClearsBoard(t *testing.T) {
	s := newTestServer(t)
	id, token := s.createSession(t)
	s.do(t, http.MethodPost, "/api/sessions/"+id+"/mood", token, map[string]string{"mood": "happy"})
	s.earn(t, id, token)
	s.earn(t, id, token)

	rec := s.do(t, http.MethodPost, "/api/sessions/"+id+"/reset", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view SessionView
	decodeBody(t, rec, &view)

	if view.Session.EarnedTokens != 0 {
		t.Errorf("expected 0 tokens, got %d", view.Session.EarnedTokens)
	}
	if view.Session.Mood.IsSet() {
		t.Errorf("expected mood to be cleared, got %q", view.Session.Mood)
	}
	if view.Session.Message != service.ResetMessage {
		t.Errorf("expected reset message, got %q", view.Session.Message)
	}
}

func TestSetLayoutEnablesAnimation(t *testing.T) {
	s := newTestServer(t)
	id, token := s.createSession(t)
	s.do(t, http.MethodPost, "/api/sessions/"+id+"/mood", token, map[string]string{"mood": "happy"})

	slots := make([]models.Rect, 5)
	for i := range slots {
		slots[i] = models.Rect{X: float64(100 * i), Y: 40, Width: 64, Height: 64}
	}
	rec := s.do(t, http.MethodPut, "/api/sessions/"+id+"/layout", token, map[string]interface{}{"slots": slots})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/sessions/"+id+"/catch", token, map[string]interface{}{
		"origin": map[string]float64{"x": 10, "y": 10, "width": 50, "height": 50},
	})
	var resp struct {
		State SessionView `json:"state"`
	}
	decodeBody(t, rec, &resp)

	anim := resp.State.Session.Animation
	if anim == nil {
		t.Fatal("expected an animation in flight")
	}
	if anim.To != slots[0] {
		t.Errorf("expected animation to fly to %+v, got %+v", slots[0], anim.To)
	}
	s.settle(t, id, service.DefaultAnimationDuration)
}

func TestStagesRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/stages", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Stages []models.Stage      `json:"stages"`
		Moods  []models.MoodOption `json:"moods"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Stages) != 5 {
		t.Errorf("expected 5 stages, got %d", len(resp.Stages))
	}
	if resp.Stages[4].Name != "Princess Castle" {
		t.Errorf("expected castle last, got %q", resp.Stages[4].Name)
	}
}
