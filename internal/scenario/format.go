package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders a list of run results as human-readable text.
func FormatText(results []*RunResult) string {
	var b strings.Builder

	totalFiles := len(results)
	fmt.Fprintf(&b, "Checking %d scenario file", totalFiles)
	if totalFiles != 1 {
		b.WriteString("s")
	}
	b.WriteString("...\n\n")

	totalChecks := 0
	totalPassed := 0
	failedScenarios := 0

	for _, r := range results {
		totalChecks += r.Total
		totalPassed += r.Passed

		if r.Failed == 0 {
			fmt.Fprintf(&b, "  PASS  %s (%d/%d)\n", r.Name, r.Passed, r.Total)
			continue
		}
		failedScenarios++
		fmt.Fprintf(&b, "  FAIL  %s (%d/%d)\n", r.Name, r.Passed, r.Total)
		if r.Error != "" {
			fmt.Fprintf(&b, "    ERROR %s\n", r.Error)
		}
		for _, c := range r.Checks {
			if !c.Passed {
				fmt.Fprintf(&b, "    FAIL  check %d: %-22s expected %s, got %s\n",
					c.Index, c.Name, c.Expected, c.Actual)
			}
		}
	}

	fmt.Fprintf(&b, "\n%d of %d checks passed.", totalPassed, totalChecks)
	if failedScenarios > 0 {
		fmt.Fprintf(&b, " %d of %d scenarios failed.", failedScenarios, totalFiles)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders run results as JSON.
func FormatJSON(results []*RunResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}
