package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/doomsat/internal/export"
	"github.com/ppiankov/doomsat/internal/tlog"
)

var (
	exportLog    string
	exportFormat string
	exportOut    string
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportLog, "log", "l", "t0.jsonl", "Path to the Tier-0 log")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Export format (csv|sqlite)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (csv defaults to stdout, required for sqlite)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded ticks for analysis",
	Long:  "Converts a Tier-0 log into CSV rows or a SQLite database of ticks and summaries.",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ticks, sums, err := tlog.ReadTicks(exportLog)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "csv":
		if exportOut == "" {
			return export.CSV(cmd.OutOrStdout(), ticks)
		}
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		if err := export.CSV(f, ticks); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "sqlite":
		if exportOut == "" {
			return fmt.Errorf("--out is required for sqlite export")
		}
		if err := export.SQLite(cmd.Context(), exportOut, ticks, sums); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d ticks and %d summaries to %s\n", len(ticks), len(sums), exportOut)
		return nil
	default:
		return fmt.Errorf("unknown export format %q", exportFormat)
	}
}
