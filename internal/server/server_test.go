package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/logger"
	"github.com/kbenzar/stovewatch/internal/storage"
)

func testServer() (*Server, *gin.Engine) {
	log := logger.New(logger.LevelOff, io.Discard)
	s := New(log, storage.NewMemoryStore(log), nil)
	return s, s.Router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestDetectEndpoint(t *testing.T) {
	_, r := testServer()

	w := doJSON(t, r, http.MethodPost, "/api/detect", map[string]any{
		"steps": []string{"Simmer for 20 minutes.", "Let cool."},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Timers []domain.TimerDescriptor `json:"timers"`
	}
	decode(t, w, &resp)
	if len(resp.Timers) != 1 {
		t.Fatalf("expected 1 timer, got %d", len(resp.Timers))
	}
	if resp.Timers[0].DurationMinutes != 20 {
		t.Errorf("duration: got %d", resp.Timers[0].DurationMinutes)
	}
}

func TestDetectEndpointEmptyResult(t *testing.T) {
	_, r := testServer()

	w := doJSON(t, r, http.MethodPost, "/api/detect", map[string]any{
		"steps": []string{"Season to taste."},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Timers []domain.TimerDescriptor `json:"timers"`
	}
	decode(t, w, &resp)
	if resp.Timers == nil || len(resp.Timers) != 0 {
		t.Fatalf("expected empty array, got %v", resp.Timers)
	}
}

func TestDetectEndpointRejectsBadBody(t *testing.T) {
	_, r := testServer()
	if w := doJSON(t, r, http.MethodPost, "/api/detect", map[string]any{"nope": 1}); w.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func registerTestRecipe(t *testing.T, r *gin.Engine) (recipeID string, timers []domain.TimerDescriptor) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/recipes", map[string]any{
		"title": "Chili",
		"steps": []string{"Brown the beef.", "Simmer for 45 minutes."},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		RecipeID string                   `json:"recipeId"`
		Timers   []domain.TimerDescriptor `json:"timers"`
	}
	decode(t, w, &resp)
	if resp.RecipeID == "" {
		t.Fatal("no recipe id assigned")
	}
	return resp.RecipeID, resp.Timers
}

func TestRegisterAndListTimers(t *testing.T) {
	_, r := testServer()
	id, timers := registerTestRecipe(t, r)
	if len(timers) != 1 {
		t.Fatalf("expected 1 timer, got %d", len(timers))
	}

	w := doJSON(t, r, http.MethodGet, "/api/recipes/"+id+"/timers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Timers         []domain.StateChange `json:"timers"`
		RunningCount   int                  `json:"runningCount"`
		CompletedCount int                  `json:"completedCount"`
	}
	decode(t, w, &resp)
	if len(resp.Timers) != 1 || resp.Timers[0].Phase != domain.PhaseIdle {
		t.Fatalf("unexpected timers: %+v", resp.Timers)
	}
}

func TestRegisterRejectsEmptyRecipe(t *testing.T) {
	_, r := testServer()
	if w := doJSON(t, r, http.MethodPost, "/api/recipes", map[string]any{"title": "Empty"}); w.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestTimerLifecycleOverHTTP(t *testing.T) {
	_, r := testServer()
	id, timers := registerTestRecipe(t, r)
	base := "/api/recipes/" + id + "/timers/" + timers[0].ID

	w := doJSON(t, r, http.MethodPost, base+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start status %d: %s", w.Code, w.Body.String())
	}
	var snap struct {
		Phase     string `json:"phase"`
		IsRunning bool   `json:"isRunning"`
	}
	decode(t, w, &snap)
	if !snap.IsRunning || snap.Phase != "running" {
		t.Fatalf("after start: %+v", snap)
	}

	// Starting a running timer is a state-machine violation.
	if w = doJSON(t, r, http.MethodPost, base+"/start", nil); w.Code != http.StatusConflict {
		t.Fatalf("double start status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, base+"/pause", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pause status %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &snap)
	if snap.IsRunning || snap.Phase != "paused" {
		t.Fatalf("after pause: %+v", snap)
	}

	w = doJSON(t, r, http.MethodPost, base+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &snap)
	if snap.Phase != "idle" {
		t.Fatalf("after reset: %+v", snap)
	}
}

func TestTimerOpNotFound(t *testing.T) {
	_, r := testServer()
	id, _ := registerTestRecipe(t, r)

	if w := doJSON(t, r, http.MethodPost, "/api/recipes/nope/timers/t1/start", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown recipe status %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/recipes/"+id+"/timers/nope/start", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown timer status %d", w.Code)
	}
}
