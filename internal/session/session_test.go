package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// newLMS fakes the handful of LMS endpoints the session package touches.
// Cookie "good" is the only authenticated session; instructor/secret the
// only accepted login.
func newLMS(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/index.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			require.NoError(t, r.ParseForm())
			if r.PostForm.Get("username") == "instructor" && r.PostForm.Get("password") == "secret" {
				http.SetCookie(w, &http.Cookie{Name: "MoodleSession", Value: "good", Path: "/"})
				w.Header().Set("Location", "/my/")
				w.WriteHeader(http.StatusSeeOther)
				return
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write([]byte("<html>login page</html>"))
	})
	mux.HandleFunc("/my/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("MoodleSession"); err != nil || c.Value != "good" {
			http.Redirect(w, r, "/login/index.php", http.StatusFound)
			return
		}
		w.Write([]byte(`<script>M.cfg = {"sesskey":"KeyFromMy"};</script>`))
	})
	mux.HandleFunc("/course/view.php", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("MoodleSession"); err != nil || c.Value != "good" {
			http.Redirect(w, r, "/login/index.php", http.StatusFound)
			return
		}
		w.Write([]byte(`<a href="/login/logout.php?sesskey=KeyFromCourse">Log out</a>`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLogin(t *testing.T) {
	server := newLMS(t)
	auth := NewAuthenticator(server.URL, testLogger())

	cookie, err := auth.Login(context.Background(), "instructor", "secret")
	require.NoError(t, err)
	require.Equal(t, "good", cookie)
}

func TestLoginRejected(t *testing.T) {
	server := newLMS(t)
	auth := NewAuthenticator(server.URL, testLogger())

	_, err := auth.Login(context.Background(), "instructor", "wrong")
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestValidate(t *testing.T) {
	server := newLMS(t)
	auth := NewAuthenticator(server.URL, testLogger())

	require.True(t, auth.Validate(context.Background(), "good"))
	require.False(t, auth.Validate(context.Background(), "stale"))
}

func TestSesskey(t *testing.T) {
	server := newLMS(t)
	auth := NewAuthenticator(server.URL, testLogger())
	client := NewClient(server.URL, "good")

	key, err := auth.Sesskey(context.Background(), client, 345)
	require.NoError(t, err)
	require.Equal(t, "KeyFromCourse", key)

	key, err = auth.Sesskey(context.Background(), client, 0)
	require.NoError(t, err)
	require.Equal(t, "KeyFromMy", key)
}

func TestClientSendsCookieAndUserAgent(t *testing.T) {
	var gotCookie, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("MoodleSession"); err == nil {
			gotCookie = c.Value
		}
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := NewClient(server.URL, "abc123")
	resp, err := client.Get(server.URL + "/any")
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "abc123", gotCookie)
	require.Equal(t, "Mozilla/5.0", gotAgent)
}

type storeStub struct {
	creds models.Credentials
	saved string
}

func (s *storeStub) Load() (models.Credentials, error) { return s.creds, nil }
func (s *storeStub) SaveCookie(cookie string) error    { s.saved = cookie; return nil }

func TestManagerRestoresStoredCookie(t *testing.T) {
	server := newLMS(t)
	auth := NewAuthenticator(server.URL, testLogger())
	store := &storeStub{creds: models.Credentials{Cookie: "good"}}
	mgr := NewManager(auth, store, testLogger())

	cookie, err := mgr.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "good", cookie)
	require.Equal(t, SourceCookie, mgr.Source())
}

func TestManagerFallsBackToCredentials(t *testing.T) {
	server := newLMS(t)
	auth := NewAuthenticator(server.URL, testLogger())
	store := &storeStub{creds: models.Credentials{
		Cookie:   "stale",
		Username: "instructor",
		Password: "secret",
	}}
	mgr := NewManager(auth, store, testLogger())

	cookie, err := mgr.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "good", cookie)
	require.Equal(t, SourceCredentials, mgr.Source())
	require.Equal(t, "good", store.saved)
}

func TestManagerWithoutMaterial(t *testing.T) {
	server := newLMS(t)
	auth := NewAuthenticator(server.URL, testLogger())
	mgr := NewManager(auth, &storeStub{}, testLogger())

	_, err := mgr.Get(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestManagerGetFreshReplacesStaleCookie(t *testing.T) {
	server := newLMS(t)
	auth := NewAuthenticator(server.URL, testLogger())
	store := &storeStub{creds: models.Credentials{Username: "instructor", Password: "secret"}}
	mgr := NewManager(auth, store, testLogger())

	mgr.Adopt("stale")
	require.Equal(t, SourceManual, mgr.Source())

	cookie, err := mgr.GetFresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "good", cookie)
	require.Equal(t, SourceCredentials, mgr.Source())
}
