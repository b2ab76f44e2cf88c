package scenario

import (
	"github.com/ppiankov/doomsat/internal/config"
	"github.com/ppiankov/doomsat/internal/engine"
)

// SummaryExpect pins fields of one episode summary. Nil fields are not
// checked.
type SummaryExpect struct {
	Result     string   `yaml:"result,omitempty"`
	TakenTotal *int     `yaml:"taken_total,omitempty"`
	DealtTotal *int     `yaml:"dealt_total,omitempty"`
	Kills      *int     `yaml:"kills,omitempty"`
	Deaths     *int     `yaml:"deaths,omitempty"`
	PathLenM   *float64 `yaml:"path_len_m,omitempty"`
}

// Expect lists the assertions made against a scenario's output. Empty
// lists and nil counts are not checked.
type Expect struct {
	Records    *int            `yaml:"records,omitempty"`
	Frames     *int            `yaml:"frames,omitempty"`
	Steps      []int           `yaml:"steps,omitempty"`
	DmgIn      []int           `yaml:"dmg_in,omitempty"`
	DmgOut     []int           `yaml:"dmg_out,omitempty"`
	KillsDelta []int           `yaml:"kills_delta,omitempty"`
	Summaries  []SummaryExpect `yaml:"summaries,omitempty"`
}

// Scenario is a scripted session plus the output it must produce. The
// session, recording and run sections use the config file layout and
// start from the built-in defaults.
type Scenario struct {
	Name          string                 `yaml:"name"`
	Buttons       []string               `yaml:"buttons"`
	config.Config `yaml:",inline"`
	Episodes      []engine.ScriptEpisode `yaml:"episodes"`
	Expect        Expect                 `yaml:"expect"`
}

// CheckResult is the outcome of one assertion.
type CheckResult struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// RunResult is the outcome of running one scenario file.
type RunResult struct {
	File   string        `json:"file"`
	Name   string        `json:"name"`
	Total  int           `json:"total"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
	Error  string        `json:"error,omitempty"`
	Checks []CheckResult `json:"checks"`
}
