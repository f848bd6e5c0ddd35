package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type memStore struct {
	users map[string]User
	fail  bool
}

func newMemStore() *memStore { return &memStore{users: make(map[string]User)} }

func (m *memStore) Top(ctx context.Context, n int) ([]User, error) {
	if m.fail {
		return nil, errors.New("db down")
	}
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HighScore > out[j].HighScore })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memStore) Submit(ctx context.Context, username string, score int64, figure string) (User, error) {
	if m.fail {
		return User{}, errors.New("db down")
	}
	var cur *User
	if u, ok := m.users[username]; ok {
		cur = &u
	}
	u, changed := applyScore(cur, username, score, figure)
	if changed {
		if cur == nil {
			u.ID = uint(len(m.users) + 1)
		}
		m.users[username] = u
	}
	return u, nil
}

func TestApplyScore(t *testing.T) {
	fig := "hr-1"
	existing := &User{ID: 3, Username: "alice", HighScore: 50, FigureString: &fig}

	u, changed := applyScore(nil, "bob", 10, "")
	if !changed || u.Username != "bob" || u.HighScore != 10 || u.FigureString != nil {
		t.Fatalf("unexpected new row %+v changed=%v", u, changed)
	}

	u, changed = applyScore(existing, "alice", 50, "hr-2")
	if changed || u.HighScore != 50 || *u.FigureString != "hr-1" {
		t.Fatalf("expected equal score to leave the row alone, got %+v", u)
	}

	u, changed = applyScore(existing, "alice", 80, "")
	if !changed || u.HighScore != 80 || *u.FigureString != "hr-1" || u.ID != 3 {
		t.Fatalf("expected higher score to keep figure, got %+v", u)
	}

	u, changed = applyScore(existing, "alice", 90, "hr-9")
	if !changed || *u.FigureString != "hr-9" {
		t.Fatalf("expected new figure to replace the old one, got %+v", u)
	}
	if existing.HighScore != 50 {
		t.Fatalf("expected existing row not to be mutated")
	}
}

// racyRows behaves like a table where another writer inserts username
// between the first lookup and our insert.
type racyRows struct {
	rival  User
	row    *User
	saved  []User
	locked int
}

func (r *racyRows) lock(username string) (*User, error) {
	r.locked++
	if r.row == nil {
		return nil, nil
	}
	u := *r.row
	return &u, nil
}

func (r *racyRows) insertIfAbsent(u *User) (bool, error) {
	rival := r.rival
	r.row = &rival
	return false, nil
}

func (r *racyRows) save(u *User) error {
	r.saved = append(r.saved, *u)
	r.row = u
	return nil
}

func TestSubmitAfterConcurrentInsert(t *testing.T) {
	rows := &racyRows{rival: User{ID: 7, Username: "alice", HighScore: 70}}
	u, err := submit(rows, "alice", 90, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if u.ID != 7 || u.HighScore != 90 || len(rows.saved) != 1 || rows.locked != 2 {
		t.Fatalf("expected the rival row to be raised to 90, got %+v saved=%d locks=%d", u, len(rows.saved), rows.locked)
	}

	rows = &racyRows{rival: User{ID: 7, Username: "alice", HighScore: 70}}
	u, err = submit(rows, "alice", 50, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if u.HighScore != 70 || len(rows.saved) != 0 {
		t.Fatalf("expected the rival's higher score to stand, got %+v saved=%d", u, len(rows.saved))
	}
}

type emptyRows struct{ inserted []User }

func (r *emptyRows) lock(string) (*User, error) { return nil, nil }

func (r *emptyRows) insertIfAbsent(u *User) (bool, error) {
	r.inserted = append(r.inserted, *u)
	return true, nil
}

func (r *emptyRows) save(*User) error { return errors.New("unexpected save") }

func TestSubmitInsertsNewPlayer(t *testing.T) {
	rows := &emptyRows{}
	u, err := submit(rows, "bob", 40, "hr-2")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(rows.inserted) != 1 || u.HighScore != 40 || u.FigureString == nil || *u.FigureString != "hr-2" {
		t.Fatalf("unexpected insert %+v rows=%+v", u, rows.inserted)
	}
}

func newApp(store Store) *fiber.App {
	app := fiber.New()
	NewHandler(store, zerolog.Nop()).Register(app.Group("/api"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestSubmitScore(t *testing.T) {
	store := newMemStore()
	app := newApp(store)

	status, body := do(t, app, http.MethodPost, "/api/scores", `{"username":"alice","score":120,"figureString":"hr-1"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", status, body)
	}
	var u User
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Username != "alice" || u.HighScore != 120 {
		t.Fatalf("unexpected user %+v", u)
	}

	status, body = do(t, app, http.MethodPost, "/api/scores", `{"username":"alice","score":30}`)
	if status != http.StatusCreated || !strings.Contains(body, `"highScore":120`) {
		t.Fatalf("expected lower score to return the stored record, got %d %s", status, body)
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	app := newApp(newMemStore())

	tests := []struct {
		body  string
		field string
	}{
		{`{"score":10}`, "username"},
		{`{"username":"","score":10}`, "username"},
		{`{"username":"alice"}`, "score"},
		{`{"username":"alice","score":"lots"}`, ""},
		{`not json`, ""},
	}
	for _, tt := range tests {
		status, body := do(t, app, http.MethodPost, "/api/scores", tt.body)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tt.body, status)
		}
		var resp struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		}
		if err := json.Unmarshal([]byte(body), &resp); err != nil {
			t.Fatalf("%s: decode: %v", tt.body, err)
		}
		if resp.Message == "" || resp.Field != tt.field {
			t.Fatalf("%s: unexpected error body %s", tt.body, body)
		}
	}
}

func TestListTopScores(t *testing.T) {
	store := newMemStore()
	app := newApp(store)
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		store.Submit(context.Background(), name, int64(i*10), "")
	}

	status, body := do(t, app, http.MethodGet, "/api/scores", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var users []User
	if err := json.Unmarshal([]byte(body), &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users) != TopN {
		t.Fatalf("expected %d entries, got %d", TopN, len(users))
	}
	if users[0].Username != "l" || users[0].HighScore != 110 {
		t.Fatalf("expected highest score first, got %+v", users[0])
	}
}

func TestListEmpty(t *testing.T) {
	status, body := do(t, newApp(newMemStore()), http.MethodGet, "/api/scores", "")
	if status != http.StatusOK || body != "[]" {
		t.Fatalf("expected empty array, got %d %s", status, body)
	}
}

func TestStoreFailure(t *testing.T) {
	store := newMemStore()
	store.fail = true
	app := newApp(store)

	if status, _ := do(t, app, http.MethodGet, "/api/scores", ""); status != http.StatusInternalServerError {
		t.Fatalf("expected 500 from list, got %d", status)
	}
	if status, _ := do(t, app, http.MethodPost, "/api/scores", `{"username":"a","score":1}`); status != http.StatusInternalServerError {
		t.Fatalf("expected 500 from submit, got %d", status)
	}
}
