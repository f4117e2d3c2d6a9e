package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/budgetwise/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// fakeService imitates the Identity Toolkit and Secure Token endpoints.
type fakeService struct {
	t *testing.T

	mu       sync.Mutex
	users    map[string]*fakeUser // by email
	refresh  map[string]string    // refresh token -> email
	seq      int
	down     bool
	rejectRT bool

	refreshCalls atomic.Int32
	srv          *httptest.Server
}

type fakeUser struct {
	uid, email, password, name string
}

func newFakeService(t *testing.T) *fakeService {
	f := &fakeService{t: t, users: map[string]*fakeUser{}, refresh: map[string]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) client(t *testing.T, cfg Config) *Client {
	t.Helper()
	cfg.APIKey = "test-key"
	cfg.BaseURL = f.srv.URL
	cfg.TokenURL = f.srv.URL
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func (f *fakeService) addUser(email, password, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.users[email] = &fakeUser{uid: "uid-" + strings.Split(email, "@")[0], email: email, password: password, name: name}
}

func (f *fakeService) idToken(u *fakeUser) string {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.uid,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        strconv.Itoa(f.seq),
		},
		UserID: u.uid,
		Email:  u.email,
		Name:   u.name,
	}).SignedString([]byte("fake"))
	require.NoError(f.t, err)
	return raw
}

func (f *fakeService) grant(u *fakeUser) map[string]any {
	f.seq++
	rt := "rt-" + u.uid + "-" + strings.Repeat("r", f.seq)
	f.refresh[rt] = u.email
	return map[string]any{
		"localId":      u.uid,
		"email":        u.email,
		"displayName":  u.name,
		"idToken":      f.idToken(u),
		"refreshToken": rt,
		"expiresIn":    "3600",
	}
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

func writeOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeService) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		writeErr(w, http.StatusServiceUnavailable, "BACKEND_ERROR")
		return
	}
	if r.URL.Query().Get("key") != "test-key" {
		writeErr(w, http.StatusBadRequest, "API key not valid. Please pass a valid API key.")
		return
	}

	if r.URL.Path == "/v1/token" {
		f.refreshCalls.Add(1)
		require.NoError(f.t, r.ParseForm())
		require.Equal(f.t, "refresh_token", r.PostForm.Get("grant_type"))

		email, ok := f.refresh[r.PostForm.Get("refresh_token")]
		if !ok || f.rejectRT {
			writeErr(w, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
			return
		}
		g := f.grant(f.users[email])
		writeOK(w, map[string]any{
			"user_id":       g["localId"],
			"id_token":      g["idToken"],
			"refresh_token": g["refreshToken"],
			"expires_in":    "3600",
			"token_type":    "Bearer",
		})
		return
	}

	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		IDToken     string `json:"idToken"`
		DisplayName string `json:"displayName"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))

	switch r.URL.Path {
	case "/v1/accounts:signUp":
		if _, exists := f.users[body.Email]; exists {
			writeErr(w, http.StatusBadRequest, "EMAIL_EXISTS")
			return
		}
		if len(body.Password) < 6 {
			writeErr(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
			return
		}
		u := &fakeUser{uid: "uid-" + strings.Split(body.Email, "@")[0], email: body.Email, password: body.Password}
		f.users[body.Email] = u
		writeOK(w, f.grant(u))

	case "/v1/accounts:signInWithPassword":
		u, ok := f.users[body.Email]
		if !ok || u.password != body.Password {
			writeErr(w, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
			return
		}
		writeOK(w, f.grant(u))

	case "/v1/accounts:update":
		claims, err := jwtx.Peek(body.IDToken)
		require.NoError(f.t, err)
		u := f.users[claims.Email]
		u.name = body.DisplayName
		writeOK(w, f.grant(u))

	default:
		writeErr(w, http.StatusNotFound, "NOT_FOUND")
	}
}

// recorder collects identity events.
type recorder struct {
	ch chan *Identity
}

func newRecorder() *recorder { return &recorder{ch: make(chan *Identity, 32)} }

func (r *recorder) listen(id *Identity) { r.ch <- id }

func (r *recorder) next(t *testing.T) *Identity {
	t.Helper()
	select {
	case id := <-r.ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for identity event")
		return nil
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case id := <-r.ch:
		t.Fatalf("unexpected identity event: %+v", id)
	case <-time.After(50 * time.Millisecond):
	}
}
