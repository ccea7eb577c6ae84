package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vida/internal/auth"
	"vida/internal/cache"
	"vida/internal/services"
	"vida/internal/storage"
)

const (
	testEmail    = "user@example.com"
	testPassword = "senha-muito-secreta"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	jwt := auth.NewJWT("test-secret", time.Hour)
	authn := auth.NewAuthenticator(jwt, "user-1", testEmail, hash)

	store := storage.NewMemoryStore()
	caches := &services.ViewCaches{
		TaskStats:        cache.NewLRUCache[services.TaskStats](10, time.Minute),
		TransactionStats: cache.NewLRUCache[services.TransactionStats](10, time.Minute),
		Timeline:         cache.NewLRUCache[[]services.TimelineGroup](10, time.Minute),
	}

	items := services.NewItemService(store, caches, nil)
	stats := services.NewStatsService(store, caches, time.UTC)

	s := NewServer(":0", authn, items, stats)
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) string {
	t.Helper()

	rec := doRequest(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Data.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Data.Token
}

func createTask(t *testing.T, s *Server, token, title string) string {
	t.Helper()

	rec := doRequest(t, s, http.MethodPost, "/api/items", token, map[string]any{
		"kind":        "task",
		"title":       title,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
		"properties":  map[string]any{"is_checked": false, "priority": "medium"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.Data.ID
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	t.Run("valid credentials", func(t *testing.T) {
		login(t, s)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/login", "", map[string]string{
			"email":    testEmail,
			"password": "wrong",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	s := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/items"},
		{http.MethodGet, "/api/timeline"},
		{http.MethodGet, "/api/stats/tasks"},
		{http.MethodGet, "/api/stats/transactions"},
	}
	for _, p := range paths {
		rec := doRequest(t, s, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/items", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestItemLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	id := createTask(t, s, token, "comprar leite")

	rec := doRequest(t, s, http.MethodGet, "/api/items", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Data []struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != id || list.Data[0].Status != "pending" {
		t.Fatalf("unexpected list: %+v", list.Data)
	}

	// Rename via PATCH.
	rec = doRequest(t, s, http.MethodPatch, "/api/items/"+id, token, map[string]any{
		"title": "comprar pão",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Toggle to completed and back.
	rec = doRequest(t, s, http.MethodPost, "/api/items/"+id+"/toggle", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var toggled struct {
		Data struct {
			Status     string `json:"status"`
			Properties struct {
				IsChecked bool `json:"is_checked"`
			} `json:"properties"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &toggled); err != nil {
		t.Fatalf("decode toggle: %v", err)
	}
	if toggled.Data.Status != "completed" || !toggled.Data.Properties.IsChecked {
		t.Fatalf("toggle result: %+v", toggled.Data)
	}

	// Delete, then the item is gone.
	rec = doRequest(t, s, http.MethodDelete, "/api/items/"+id, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodDelete, "/api/items/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateItemValidation(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	t.Run("unknown kind", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/items", token, map[string]any{
			"kind":        "habit",
			"title":       "x",
			"occurred_at": time.Now().UTC().Format(time.RFC3339),
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("properties shape mismatch", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/items", token, map[string]any{
			"kind":        "transaction",
			"title":       "salário",
			"occurred_at": time.Now().UTC().Format(time.RFC3339),
			"properties":  map[string]any{"amount_cents": 100, "currency": "BRL", "direction": "sideways", "category": "x"},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing title", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/items", token, map[string]any{
			"kind":        "note",
			"occurred_at": time.Now().UTC().Format(time.RFC3339),
			"properties":  map[string]any{},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestToggleRejectsNonTask(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	rec := doRequest(t, s, http.MethodPost, "/api/items", token, map[string]any{
		"kind":        "note",
		"title":       "uma nota",
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
		"properties":  map[string]any{"body_content": "texto"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/items/"+resp.Data.ID+"/toggle", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("toggle note status = %d, want 404", rec.Code)
	}
}

func TestTimelineAndStatsEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	createTask(t, s, token, "tarefa de hoje")

	rec := doRequest(t, s, http.MethodGet, "/api/timeline", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("timeline status = %d", rec.Code)
	}
	var timeline struct {
		Data []struct {
			Label string `json:"label"`
			Items []struct {
				Title string `json:"title"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &timeline); err != nil {
		t.Fatalf("decode timeline: %v", err)
	}
	if len(timeline.Data) != 1 || timeline.Data[0].Label != "Today" {
		t.Fatalf("unexpected timeline: %+v", timeline.Data)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/stats/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("task stats status = %d", rec.Code)
	}
	var taskStats struct {
		Data struct {
			Total    int `json:"total"`
			Pending  int `json:"pending"`
			DueToday int `json:"dueToday"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &taskStats); err != nil {
		t.Fatalf("decode task stats: %v", err)
	}
	if taskStats.Data.Total != 1 || taskStats.Data.Pending != 1 || taskStats.Data.DueToday != 1 {
		t.Fatalf("unexpected task stats: %+v", taskStats.Data)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/stats/transactions", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("transaction stats status = %d", rec.Code)
	}
	var txStats struct {
		Data struct {
			MonthlyBalance   int64   `json:"monthlyBalance"`
			PercentageChange float64 `json:"percentageChange"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &txStats); err != nil {
		t.Fatalf("decode transaction stats: %v", err)
	}
	if txStats.Data.MonthlyBalance != 0 || txStats.Data.PercentageChange != 0 {
		t.Fatalf("unexpected transaction stats: %+v", txStats.Data)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestUnknownItemIDIsNotFound(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPatch, "/api/items/not-a-uuid"},
		{http.MethodDelete, "/api/items/not-a-uuid"},
		{http.MethodPost, "/api/items/not-a-uuid/toggle"},
	} {
		body := map[string]any{}
		rec := doRequest(t, s, tc.method, tc.path, token, body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}

	rec := doRequest(t, s, http.MethodPatch, fmt.Sprintf("/api/items/%s", "00000000-0000-0000-0000-000000000001"), token, map[string]any{"title": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown uuid: status = %d, want 404", rec.Code)
	}
}
