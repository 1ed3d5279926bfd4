package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foundation-app/foundation/internal/api"
	"github.com/foundation-app/foundation/internal/domain"
	"github.com/foundation-app/foundation/internal/infra/calendar"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the localhost API",
	Long: `Serve the tracker as a JSON API on localhost (default 127.0.0.1:7717)
for a local UI. When the calendar is enabled, upcoming events are refreshed
in the background.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	var src domain.EventSource
	if a.cfg.Calendar.Enabled {
		gw, err := calendar.FromCredentialsFile(a.cfg.Calendar.CredentialsFile, a.home, a.log)
		if err != nil {
			a.log.Warn().Err(err).Msg("calendar disabled for this run")
		} else {
			src = gw
		}
	}
	feed := calendar.NewFeed(src, a.cfg.Calendar.MaxResults, a.cfg.Calendar.Interval(), a.cfg.Calendar.FetchTimeout(), a.log)
	go feed.Run(ctx)

	srv := api.NewServer(a.tracker, feed, a.log)
	if a.cfg.Metrics.Enabled {
		srv.EnableMetrics()
	}
	srv.SetAllowedOrigins(a.cfg.API.AllowedOrigins)

	httpSrv := &http.Server{
		Addr:              a.cfg.API.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	a.log.Info().Str("addr", httpSrv.Addr).Str("home", a.home).Str("storage", a.cfg.Storage.Driver).Msg("foundation listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.log.Info().Msg("shut down")
	return nil
}
