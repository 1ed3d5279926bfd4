package cli

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/foundation-app/foundation/internal/domain"
)

// maxImageBytes caps reward pictures; they are stored inline.
const maxImageBytes = 2 << 20

func init() {
	rootCmd.AddCommand(rewardCmd)
	rewardCmd.AddCommand(rewardAddCmd)
	rewardCmd.AddCommand(rewardListCmd)
	rewardCmd.AddCommand(rewardRmCmd)
	rewardCmd.AddCommand(rewardPinCmd)
	rewardCmd.AddCommand(rewardRedeemCmd)

	rewardAddCmd.Flags().String("image", "", "Picture for the reward (png, jpeg, gif or webp)")
}

var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Manage the reward shop",
}

// ─── reward add ─────────────────────────────────────────────────────────────

var rewardAddCmd = &cobra.Command{
	Use:   "add NAME COST",
	Short: "Add a reward to the shop",
	Args:  cobra.ExactArgs(2),
	RunE:  runRewardAdd,
}

func runRewardAdd(cmd *cobra.Command, args []string) error {
	cost, err := decimal.NewFromString(args[1])
	if err != nil {
		return domain.ErrInvalidCost
	}
	var image string
	if path, _ := cmd.Flags().GetString("image"); path != "" {
		if image, err = imageDataURI(path); err != nil {
			return err
		}
	}
	return withApp(cmd, func(a *app) error {
		r, err := a.tracker.AddReward(cmd.Context(), args[0], cost, image)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q for %s credits (id %d)\n", r.Name, r.Cost.String(), r.ID)
		return nil
	})
}

// imageDataURI reads an image file into a base64 data URI.
func imageDataURI(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(b) > maxImageBytes {
		return "", fmt.Errorf("image %s is larger than %d KiB", path, maxImageBytes>>10)
	}
	mime := http.DetectContentType(b)
	if !strings.HasPrefix(mime, "image/") {
		return "", domain.ErrInvalidImage
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// ─── reward list ────────────────────────────────────────────────────────────

var rewardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rewards with progress toward each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			rewards := a.tracker.Rewards()
			bal := a.tracker.Balance()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Balance: %s\n", bal.StringFixed(2))
			if len(rewards) == 0 {
				fmt.Fprintln(out, "The shop is empty. Add one with `foundation reward add NAME COST`.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOST\tPROGRESS\t")
			for _, r := range rewards {
				pin := ""
				if r.Pinned {
					pin = "*"
				}
				p := domain.ProgressToward(r, bal)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s%%\t%s\n", r.ID, r.Name, r.Cost.String(), p.Percent.String(), pin)
			}
			return w.Flush()
		})
	},
}

// ─── reward rm / pin / redeem ───────────────────────────────────────────────

var rewardRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove a reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			if a.tracker.RemoveReward(cmd.Context(), id) {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed reward %d\n", id)
			}
			return nil
		})
	},
}

var rewardPinCmd = &cobra.Command{
	Use:   "pin ID",
	Short: "Feature a reward on the dashboard (again to unpin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			if !a.tracker.SetPinned(cmd.Context(), id) {
				return nil
			}
			if p, ok := a.tracker.PinnedReward(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Pinned %q\n", p.Name)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No reward pinned")
			}
			return nil
		})
	},
}

var rewardRedeemCmd = &cobra.Command{
	Use:   "redeem ID",
	Short: "Spend credits on a reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			bal, err := a.tracker.Redeem(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enjoy! Balance %s\n", bal.StringFixed(2))
			return nil
		})
	},
}
