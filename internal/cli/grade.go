package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/foundation-app/foundation/internal/domain"
)

func init() {
	rootCmd.AddCommand(gradeCmd)
	gradeCmd.AddCommand(gradeAddCmd)
	gradeCmd.AddCommand(gradeListCmd)
	gradeCmd.AddCommand(gradeRmCmd)
	gradeCmd.AddCommand(gradeOptionsCmd)
}

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Record, list and delete grades",
}

// ─── grade add ──────────────────────────────────────────────────────────────

var gradeAddCmd = &cobra.Command{
	Use:   "add SUBJECT VALUE",
	Short: "Record a grade (1.00 to 10.00 in steps of 0.25)",
	Long: `Record a grade for a subject. Grades of 8.00 and above earn credits:

  10.00        10 credits
  9.50-9.75     5 credits
  9.00-9.25     3 credits
  8.00-8.75     2 credits`,
	Args: cobra.ExactArgs(2),
	RunE: runGradeAdd,
}

func runGradeAdd(cmd *cobra.Command, args []string) error {
	value, err := decimal.NewFromString(args[1])
	if err != nil {
		return domain.ErrInvalidGrade
	}
	return withApp(cmd, func(a *app) error {
		g, err := a.tracker.RecordGrade(cmd.Context(), args[0], value)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Recorded %s in %s (id %d)\n", g.Value.StringFixed(2), g.SubjectID, g.ID)
		if g.CreditsEarned.IsPositive() {
			fmt.Fprintf(out, "+%s credits, balance %s\n", g.CreditsEarned.String(), a.tracker.Balance().StringFixed(2))
		}
		return nil
	})
}

// ─── grade list ─────────────────────────────────────────────────────────────

var gradeListCmd = &cobra.Command{
	Use:   "list SUBJECT",
	Short: "List a subject's grades, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE:  runGradeList,
}

func runGradeList(cmd *cobra.Command, args []string) error {
	subj, err := domain.FindSubject(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app) error {
		grades := a.tracker.GradesFor(subj.ID)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  average %s\n", subj.DisplayName, a.tracker.AverageFor(subj.ID).StringFixed(2))
		if len(grades) == 0 {
			fmt.Fprintln(out, "No grades yet.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tGRADE\tCREDITS\tRECORDED")
		for _, g := range grades {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", g.ID, g.Value.StringFixed(2), g.CreditsEarned.String(),
				g.RecordedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	})
}

// ─── grade rm ───────────────────────────────────────────────────────────────

var gradeRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a grade and take back its credits",
	Args:  cobra.ExactArgs(1),
	RunE:  runGradeRm,
}

func runGradeRm(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app) error {
		if !a.tracker.DeleteGrade(cmd.Context(), id) {
			fmt.Fprintf(cmd.OutOrStdout(), "No grade with id %d.\n", id)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted grade %d, balance %s\n", id, a.tracker.Balance().StringFixed(2))
		return nil
	})
}

// ─── grade options ──────────────────────────────────────────────────────────

var gradeOptionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print every accepted grade value",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		opts := domain.GradeOptions()
		vals := make([]string, len(opts))
		for i, v := range opts {
			vals[i] = v.StringFixed(2)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(vals, " "))
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
