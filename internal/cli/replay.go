package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/doomsat/internal/tlog"
)

var (
	replayLog      string
	replayFormat   string
	replayFromStep int
	replayToStep   int
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayLog, "log", "l", "t0.jsonl", "Path to the Tier-0 log")
	replayCmd.Flags().StringVarP(&replayFormat, "format", "f", "timeline", "Output format (timeline|json)")
	replayCmd.Flags().IntVar(&replayFromStep, "from-step", 0, "First step to include")
	replayCmd.Flags().IntVar(&replayToStep, "to-step", 0, "Last step to include (0 = no limit)")
}

var replayCmd = &cobra.Command{
	Use:   "replay [episode-id]",
	Short: "Replay recorded ticks as a timeline",
	Long: "Reads the Tier-0 log and renders the recorded ticks of one episode (or all\n" +
		"episodes when no id is given) with health statistics.",
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	filter := tlog.Filter{FromStep: replayFromStep, ToStep: replayToStep}
	if len(args) == 1 {
		filter.EpisodeID = args[0]
	}

	result, err := tlog.Replay(replayLog, filter)
	if err != nil {
		return err
	}

	switch replayFormat {
	case "json":
		out, err := tlog.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	default:
		fmt.Fprint(cmd.OutOrStdout(), tlog.FormatTimeline(result))
	}
	return nil
}
