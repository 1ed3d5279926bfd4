package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foundation-app/foundation/internal/app/tracker"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(subjectsCmd)
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show balance, averages and the pinned reward",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			d := a.tracker.Dashboard()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Balance:          %s credits\n", d.Balance.StringFixed(2))
			fmt.Fprintf(out, "Overall average:  %s (%d grades)\n", d.OverallAverage.StringFixed(2), d.GradeCount)
			if d.Pinned != nil {
				fmt.Fprintf(out, "Goal:             %s, %s/%s (%s%%)\n",
					d.Pinned.Reward.Name, d.Balance.StringFixed(2), d.Pinned.Reward.Cost.String(), d.Pinned.Percent.String())
			}
			fmt.Fprintln(out)
			return printSubjects(out, d.Subjects, false)
		})
	},
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List subjects with their averages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			return printSubjects(cmd.OutOrStdout(), a.tracker.Subjects(), true)
		})
	},
}

// printSubjects renders the subject table. Subjects without grades are
// skipped unless all is set.
func printSubjects(out io.Writer, subs []tracker.SubjectSummary, all bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUBJECT\tAVERAGE\tGRADES")
	for _, s := range subs {
		if s.Count == 0 && !all {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.DisplayName, s.Average.StringFixed(2), s.Count)
	}
	return w.Flush()
}
