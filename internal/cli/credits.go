package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foundation-app/foundation/internal/domain"
)

func init() {
	rootCmd.AddCommand(creditsCmd)
	creditsCmd.AddCommand(creditsSessionCmd)
	creditsCmd.AddCommand(creditsCorrectCmd)
	creditsCmd.AddCommand(creditsHistoryCmd)

	creditsCorrectCmd.Flags().Bool("half", false, "Take back 0.5 instead of 1 credit")
	creditsHistoryCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
}

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show and adjust the credit balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s\n", a.tracker.Balance().StringFixed(2))
			return nil
		})
	},
}

var creditsSessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Log a completed study session (+1 credit)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			bal := a.tracker.LogSession(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "+1 credit, balance %s\n", bal.StringFixed(2))
			return nil
		})
	},
}

var creditsCorrectCmd = &cobra.Command{
	Use:   "correct",
	Short: "Take back a session credit (never below zero)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount := domain.FullCorrection
		if half, _ := cmd.Flags().GetBool("half"); half {
			amount = domain.HalfCorrection
		}
		return withApp(cmd, func(a *app) error {
			bal, err := a.tracker.CorrectSession(cmd.Context(), amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "-%s credit, balance %s\n", amount.String(), bal.StringFixed(2))
			return nil
		})
	},
}

var creditsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent balance changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, func(a *app) error {
			entries, err := a.tracker.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history yet.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tTYPE\tDELTA\tBALANCE\tNOTE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04"), e.Type,
					signed(e.Delta.StringFixed(2)), e.Balance.StringFixed(2), e.Description)
			}
			return w.Flush()
		})
	},
}

func signed(s string) string {
	if len(s) > 0 && s[0] != '-' {
		return "+" + s
	}
	return s
}
