package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/doomsat/internal/tlog"
)

var (
	tailLines  int
	tailFollow bool
)

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logVerifyCmd)
	logCmd.AddCommand(logTailCmd)
	logTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent records to show")
	logTailCmd.Flags().BoolVar(&tailFollow, "follow", false, "Keep streaming records as they are appended")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Tier-0 log operations",
	Long:  "Commands for verifying and inspecting the checksummed Tier-0 JSON-lines log.",
}

var logVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify per-line checksums of a Tier-0 log",
	Long:  "Recomputes the crc32c of every line over its canonical form.\nExits 0 if valid, 1 at the first corrupt line.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogVerify,
}

var logTailCmd = &cobra.Command{
	Use:   "tail <path>",
	Short: "Show recent Tier-0 records",
	Long:  "Prints the last N records of the log as indented JSON, optionally following new ones.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogTail,
}

func runLogVerify(cmd *cobra.Command, args []string) error {
	result := tlog.Verify(args[0])
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d records, %d summaries verified\n", result.Records, result.Summaries)
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	return errFailed
}

func runLogTail(cmd *cobra.Command, args []string) error {
	lines, offset, err := tlog.Tail(args[0], tailLines)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, line := range lines {
		printPretty(out, []byte(line))
	}
	if !tailFollow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tlog.Follow(ctx, args[0], offset, func(line []byte) error {
		printPretty(out, line)
		return nil
	})
}

func printPretty(w io.Writer, line []byte) {
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		fmt.Fprintln(w, string(line))
		return
	}
	out, _ := json.MarshalIndent(entry, "", "  ")
	fmt.Fprintln(w, string(out))
}
