package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/doomsat/internal/schema"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a Tier-0 log against the record schemas",
	Long: "Checks every line of the log against the embedded tier0_telemetry and\n" +
		"episode_summary JSON Schemas. Reports all failures, exits 1 if any.",
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	v, err := schema.New()
	if err != nil {
		return err
	}
	rep, err := v.ValidateFile(args[0])
	if err != nil {
		return err
	}
	if rep.Valid() {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d lines conform\n", rep.Lines)
		return nil
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %s\n", f.Line, f.Error)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "FAILED: %d of %d lines invalid\n", len(rep.Failures), rep.Lines)
	return errFailed
}
