package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/foundation-app/foundation/internal/daemon"
	"github.com/foundation-app/foundation/internal/infra/calendar"
)

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarLoginCmd)
	calendarCmd.AddCommand(calendarEventsCmd)
	calendarCmd.AddCommand(calendarLogoutCmd)

	calendarLoginCmd.Flags().Duration("timeout", 5*time.Minute, "How long to wait for the browser consent")
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Connect Google Calendar and list upcoming events",
	Long: `The calendar panel is read-only and opt-in. Set [calendar].enabled and
[calendar].credentials_file in config.toml, then run 'foundation calendar login'.`,
}

// calendarGateway builds the gateway from config, or reports it disabled.
func calendarGateway() (*calendar.Gateway, daemon.Config, error) {
	home := homeDir()
	cfg, err := daemon.Load(home)
	if err != nil {
		return nil, cfg, err
	}
	if !cfg.Calendar.Enabled {
		return nil, cfg, calendar.ErrCalendarDisabled
	}
	gw, err := calendar.FromCredentialsFile(cfg.Calendar.CredentialsFile, home, setupLogger(cfg, true))
	return gw, cfg, err
}

var calendarLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize read-only access to your primary calendar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, _, err := calendarGateway()
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		out := cmd.OutOrStdout()
		_, err = gw.Authenticate(ctx, func(url string) {
			fmt.Fprintf(out, "Open this link to grant access:\n\n  %s\n\nWaiting for the browser...\n", url)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Calendar connected.")
		return nil
	},
}

var calendarEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List upcoming events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, cfg, err := calendarGateway()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Calendar.FetchTimeout())
		defer cancel()

		events, err := gw.Upcoming(ctx, cfg.Calendar.MaxResults)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No upcoming events.")
			return nil
		}
		for _, e := range events {
			when := e.Start.Local().Format("Mon 02 Jan 15:04")
			if e.AllDay {
				when = e.Start.Format("Mon 02 Jan") + "      "
			}
			fmt.Fprintf(out, "%s  %s\n", when, e.Summary)
		}
		return nil
	},
}

var calendarLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached calendar token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, _, err := calendarGateway()
		if err != nil {
			return err
		}
		return gw.Logout()
	},
}
