package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/foundation-app/foundation/internal/domain"
)

// fakeGoogle serves the events.list endpoint and the OAuth token endpoint.
func fakeGoogle(t *testing.T, eventsBody string, status int) (*httptest.Server, *url.Values) {
	t.Helper()
	var seen url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(eventsBody))
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "code-1" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func testOAuth(srv *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Scopes:       []string{gcal.CalendarReadonlyScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func newTestGateway(t *testing.T, srv *httptest.Server) *Gateway {
	t.Helper()
	return New(testOAuth(srv), t.TempDir(), zerolog.Nop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
}

const eventsJSON = `{
  "items": [
    {"id": "e1", "summary": "Verifica di matematica", "start": {"dateTime": "2026-03-02T08:00:00+01:00"}},
    {"id": "e2", "summary": "Gita", "start": {"date": "2026-03-05"}},
    {"id": "e3", "summary": "broken", "start": {}}
  ]
}`

func TestListUpcoming_MapsEvents(t *testing.T) {
	srv, seen := fakeGoogle(t, eventsJSON, http.StatusOK)
	g := newTestGateway(t, srv)

	events, err := g.ListUpcoming(context.Background(), &oauth2.Token{AccessToken: "x"}, 5)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "Verifica di matematica", events[0].Summary)
	assert.False(t, events[0].AllDay)
	assert.True(t, events[0].Start.Equal(time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)))

	assert.True(t, events[1].AllDay)
	y, m, d := events[1].Start.Date()
	assert.Equal(t, []int{2026, 3, 5}, []int{y, int(m), d})
	assert.Zero(t, events[1].Start.Hour())

	assert.Equal(t, "true", seen.Get("singleEvents"))
	assert.Equal(t, "startTime", seen.Get("orderBy"))
	assert.Equal(t, "5", seen.Get("maxResults"))
	assert.NotEmpty(t, seen.Get("timeMin"))
}

func TestListUpcoming_APIError(t *testing.T) {
	srv, _ := fakeGoogle(t, `{"error":{"code":404,"message":"calendar not found"}}`, http.StatusNotFound)
	g := newTestGateway(t, srv)

	_, err := g.ListUpcoming(context.Background(), &oauth2.Token{AccessToken: "x"}, 5)
	require.Error(t, err)
}

func TestUpcoming_NotLoggedIn(t *testing.T) {
	srv, _ := fakeGoogle(t, eventsJSON, http.StatusOK)
	g := newTestGateway(t, srv)

	_, err := g.Upcoming(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestTokenCache(t *testing.T) {
	dir := t.TempDir()
	path := TokenPath(dir)

	_, err := loadToken(path)
	require.Error(t, err)

	tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer"}
	require.NoError(t, saveToken(path, tok))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)

	g := New(&oauth2.Config{}, dir, zerolog.Nop())
	require.NoError(t, g.Logout())
	_, err = g.CachedToken()
	require.Error(t, err)
	require.NoError(t, g.Logout())
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		status   int
		wantCode string
		wantErr  error
		delivers bool
	}{
		{"success", "state=s1&code=abc", http.StatusOK, "abc", nil, true},
		{"denied", "state=s1&error=access_denied", http.StatusBadRequest, "", ErrAuthDenied, true},
		{"foreign state", "state=other&code=abc", http.StatusBadRequest, "", nil, false},
		{"no code", "state=s1", http.StatusBadRequest, "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make(chan callbackResult, 1)
			rec := httptest.NewRecorder()
			callbackHandler("s1", out).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			if !tt.delivers {
				assert.Empty(t, out)
				return
			}
			res := <-out
			assert.Equal(t, tt.wantCode, res.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticate_LoopbackFlow(t *testing.T) {
	srv, _ := fakeGoogle(t, eventsJSON, http.StatusOK)
	g := newTestGateway(t, srv)

	prompt := func(authURL string) {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "client", q.Get("client_id"))
		go func() {
			resp, err := http.Get(q.Get("redirect_uri") + "?code=code-1&state=" + q.Get("state"))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tok, err := g.Authenticate(ctx, prompt)
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)

	cached, err := g.CachedToken()
	require.NoError(t, err)
	assert.Equal(t, "rt-1", cached.RefreshToken)

	// second call is served from the cache without prompting
	tok, err = g.Authenticate(ctx, func(string) { t.Error("prompted despite cached token") })
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)
}

func TestAuthenticate_Denied(t *testing.T) {
	srv, _ := fakeGoogle(t, eventsJSON, http.StatusOK)
	g := newTestGateway(t, srv)

	prompt := func(authURL string) {
		u, _ := url.Parse(authURL)
		q := u.Query()
		go func() {
			resp, err := http.Get(q.Get("redirect_uri") + "?error=access_denied&state=" + q.Get("state"))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := g.Authenticate(ctx, prompt)
	assert.ErrorIs(t, err, ErrAuthDenied)
	_, err = g.CachedToken()
	assert.Error(t, err)
}

// ─── Feed ───────────────────────────────────────────────────────────────────

type stubSource struct {
	events []domain.Event
	err    error
	block  bool
}

func (s *stubSource) Upcoming(ctx context.Context, _ int) ([]domain.Event, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.events, s.err
}

func TestFeed_Refresh(t *testing.T) {
	src := &stubSource{events: []domain.Event{{ID: "a", Summary: "Interrogazione"}}}
	f := NewFeed(src, 10, time.Minute, time.Second, zerolog.Nop())

	assert.Empty(t, f.Events())
	f.Refresh(context.Background())
	require.Len(t, f.Events(), 1)
	assert.False(t, f.FetchedAt().IsZero())

	src.err = errors.New("network down")
	f.Refresh(context.Background())
	assert.NotNil(t, f.Events())
	assert.Empty(t, f.Events())
}

func TestFeed_TimeoutYieldsEmpty(t *testing.T) {
	f := NewFeed(&stubSource{block: true}, 10, time.Minute, 20*time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		f.Refresh(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Refresh did not honour its timeout")
	}
	assert.Empty(t, f.Events())
}

func TestFeed_Disabled(t *testing.T) {
	f := NewFeed(nil, 10, time.Minute, time.Second, zerolog.Nop())
	assert.False(t, f.Enabled())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Run(ctx)
	assert.Empty(t, f.Events())
}

func TestFeed_EventsIsCopy(t *testing.T) {
	f := NewFeed(&stubSource{events: []domain.Event{{ID: "a"}}}, 10, time.Minute, time.Second, zerolog.Nop())
	f.Refresh(context.Background())

	evs := f.Events()
	evs[0].ID = "mutated"
	assert.Equal(t, "a", f.Events()[0].ID)
}

func TestEventJSON(t *testing.T) {
	b, err := json.Marshal(domain.Event{ID: "x", Summary: "s", Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), AllDay: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","summary":"s","start":"2026-01-01T00:00:00Z","all_day":true}`, string(b))
}
