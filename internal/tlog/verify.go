// Package tlog reads Tier-0 logs: checksum verification, filtered replay
// with summary statistics, text and JSON rendering, and tail/follow.
package tlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/doomsat/internal/checksum"
	"github.com/ppiankov/doomsat/internal/record"
)

// maxLine bounds a single log line.
const maxLine = 1 << 20

// VerifyResult holds the outcome of a checksum verification.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Records   int    `json:"records"`
	Summaries int    `json:"summaries"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify reads a Tier-0 log and checks every line's checksum. It stops at
// the first line that fails to parse or does not match.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()
	return VerifyReader(f)
}

// VerifyReader is Verify over an arbitrary stream.
func VerifyReader(r io.Reader) VerifyResult {
	var res VerifyResult
	lineNum := 0
	err := scanLines(r, func(line []byte) error {
		lineNum++
		if len(bytes.TrimSpace(line)) == 0 {
			return nil
		}
		v, err := checksum.VerifyLine(line)
		if err != nil {
			res.Error = fmt.Sprintf("parse error: %v", err)
			res.ErrorLine = lineNum
			return errStop
		}
		if !v.Valid {
			if v.Actual == "" {
				res.Error = "missing crc32c"
			} else {
				res.Error = fmt.Sprintf("checksum mismatch: expected %s, got %s", v.Expected, v.Actual)
			}
			res.ErrorLine = lineNum
			return errStop
		}
		switch recordType(line) {
		case record.TypeTick:
			res.Records++
		case record.TypeSummary:
			res.Summaries++
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}
	res.Lines = lineNum
	res.Valid = res.Error == ""
	return res
}

// ReadTicks reads every parseable tick and summary record from path.
// Malformed lines are skipped.
func ReadTicks(path string) ([]record.Tick, []record.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("tlog: open: %w", err)
	}
	defer f.Close()

	var ticks []record.Tick
	var sums []record.Summary
	err = scanLines(f, func(line []byte) error {
		switch recordType(line) {
		case record.TypeTick:
			var t record.Tick
			if json.Unmarshal(line, &t) == nil {
				ticks = append(ticks, t)
			}
		case record.TypeSummary:
			var s record.Summary
			if json.Unmarshal(line, &s) == nil {
				sums = append(sums, s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("tlog: read: %w", err)
	}
	return ticks, sums, nil
}

// errStop ends a scan early without reporting an error.
var errStop = errors.New("stop")

func scanLines(r io.Reader, fn func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func recordType(line []byte) string {
	var head struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(line, &head) != nil {
		return ""
	}
	return head.Type
}
