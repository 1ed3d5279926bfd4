// Package calendar reads upcoming events from the user's primary Google
// Calendar. It is read-only and isolated from the ledger: every failure here
// degrades to an empty event list upstream.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/foundation-app/foundation/internal/domain"
)

var (
	ErrAuthDenied       = errors.New("calendar: access denied by user")
	ErrCalendarDisabled = errors.New("calendar: disabled in config")
	ErrNotLoggedIn      = errors.New("calendar: no cached token, run `foundation calendar login`")
)

// Gateway authenticates with Google and lists events.
type Gateway struct {
	oauth     *oauth2.Config
	tokenPath string
	log       zerolog.Logger
	opts      []option.ClientOption
	now       func() time.Time
}

// New builds a gateway around an OAuth client config. The token is cached
// in dataDir. opts are passed to the Calendar client (endpoint overrides).
func New(cfg *oauth2.Config, dataDir string, log zerolog.Logger, opts ...option.ClientOption) *Gateway {
	return &Gateway{
		oauth:     cfg,
		tokenPath: TokenPath(dataDir),
		log:       log.With().Str("component", "calendar").Logger(),
		opts:      opts,
		now:       time.Now,
	}
}

// FromCredentialsFile reads a Google "installed app" client secret JSON.
func FromCredentialsFile(path, dataDir string, log zerolog.Logger) (*Gateway, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return New(cfg, dataDir, log), nil
}

// ─── Authentication ─────────────────────────────────────────────────────────

// Authenticate returns the cached token, or runs the loopback consent flow:
// prompt receives the URL the user must open, and the call blocks until the
// browser redirects back or ctx ends.
func (g *Gateway) Authenticate(ctx context.Context, prompt func(url string)) (*oauth2.Token, error) {
	if tok, err := g.CachedToken(); err == nil {
		return tok, nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for redirect: %w", err)
	}
	cfg := *g.oauth
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr())

	state := uuid.NewString()
	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go srv.Serve(ln)
	defer srv.Close()

	prompt(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := cfg.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if err := saveToken(g.tokenPath, tok); err != nil {
		g.log.Warn().Err(err).Msg("token not cached")
	}
	g.log.Info().Msg("calendar authorised")
	return tok, nil
}

type callbackResult struct {
	code string
	err  error
}

// callbackHandler serves the OAuth redirect. Requests with a foreign state
// are rejected without ending the flow.
func callbackHandler(state string, out chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		var res callbackResult
		switch {
		case q.Get("error") == "access_denied":
			res.err = ErrAuthDenied
		case q.Get("error") != "":
			res.err = fmt.Errorf("calendar: authorization failed: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("calendar: redirect carried no code")
		default:
			res.code = q.Get("code")
		}

		select {
		case out <- res:
		default:
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Foundation can now read your calendar. You may close this tab.")
	})
	return mux
}

// ─── Events ─────────────────────────────────────────────────────────────────

// Upcoming lists events with the cached token. It satisfies
// domain.EventSource.
func (g *Gateway) Upcoming(ctx context.Context, maxResults int) ([]domain.Event, error) {
	tok, err := g.CachedToken()
	if err != nil {
		return nil, ErrNotLoggedIn
	}
	return g.ListUpcoming(ctx, tok, maxResults)
}

// ListUpcoming returns future events of the primary calendar ordered by
// start time.
func (g *Gateway) ListUpcoming(ctx context.Context, tok *oauth2.Token, maxResults int) ([]domain.Event, error) {
	opts := append([]option.ClientOption{
		option.WithTokenSource(g.oauth.TokenSource(ctx, tok)),
	}, g.opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar client: %w", err)
	}

	resp, err := svc.Events.List("primary").
		TimeMin(g.now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]domain.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if e, ok := toEvent(item, time.Local); ok {
			events = append(events, e)
		}
	}
	return events, nil
}

// toEvent maps an API event. All-day events start at local midnight of
// their date.
func toEvent(item *gcal.Event, loc *time.Location) (domain.Event, bool) {
	if item == nil || item.Start == nil {
		return domain.Event{}, false
	}
	e := domain.Event{ID: item.Id, Summary: item.Summary}

	switch {
	case item.Start.DateTime != "":
		t, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return domain.Event{}, false
		}
		e.Start = t
	case item.Start.Date != "":
		t, err := time.ParseInLocation(time.DateOnly, item.Start.Date, loc)
		if err != nil {
			return domain.Event{}, false
		}
		e.Start = t
		e.AllDay = true
	default:
		return domain.Event{}, false
	}
	return e, true
}
