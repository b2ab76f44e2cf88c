package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/doomsat/internal/sink"
)

var framesFormat string

func init() {
	rootCmd.AddCommand(framesCmd)
	framesCmd.Flags().StringVarP(&framesFormat, "format", "f", "text", "Output format (text|json)")
}

var framesCmd = &cobra.Command{
	Use:   "frames <path>",
	Short: "Decode a binary frame stream",
	Long: "Reads DSF0 frames from a stream, resyncing on the magic after corruption,\n" +
		"and reports how many bytes had to be skipped.",
	Args: cobra.ExactArgs(1),
	RunE: runFrames,
}

func runFrames(cmd *cobra.Command, args []string) error {
	scan, err := sink.ReadFrames(args[0])
	if err != nil {
		return err
	}

	if framesFormat == "json" {
		data, err := json.MarshalIndent(scan, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal frames: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-20s %6s %6s %6s\n", "OFFSET", "TIME", "HP", "AR", "KILLS")
	for i, f := range scan.Frames {
		fmt.Fprintf(&b, "%-10d %-20s %6d %6d %6d\n", scan.Offsets[i],
			time.Unix(int64(f.Timestamp), 0).UTC().Format("2006-01-02 15:04:05"), f.Health, f.Armor, f.Kills)
	}
	fmt.Fprintf(&b, "Frames: %d | skipped %d bytes in %d resyncs", len(scan.Frames), scan.Skipped, scan.Resyncs)
	if scan.Partial {
		b.WriteString(" | truncated tail")
	}
	b.WriteString("\n")
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
