package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/foundation-app/foundation/internal/domain"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump every grade, reward and the balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path, _ := cmd.Flags().GetString("output")
		if format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format %q (json or yaml)", format)
		}

		return withApp(cmd, func(a *app) error {
			doc := exportDoc{ExportedAt: time.Now().UTC(), Snapshot: a.tracker.Snapshot()}

			out := cmd.OutOrStdout()
			if path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return writeExport(out, doc, format)
		})
	},
}

type exportDoc struct {
	ExportedAt time.Time `json:"exported_at"`
	domain.Snapshot
}

// writeExport encodes doc as indented JSON, or as YAML with the same keys
// in the same order.
func writeExport(w io.Writer, doc exportDoc, format string) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if format == "json" {
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return fmt.Errorf("convert to yaml: %w", err)
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles inherited from JSON; the
// encoder re-quotes only scalars that need it.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
