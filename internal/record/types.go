// Package record defines the Tier-0 tick record and the episode summary,
// and builds both deterministically from session state.
//
// All record fields are structs or string-keyed maps so that the shape of
// every record is fixed regardless of what the engine supports. Placeholder
// sections are always present and zero-filled.
package record

// Record type tags and schema version.
const (
	TypeTick    = "tier0_telemetry"
	TypeSummary = "episode_summary"
	SchemaV1    = "v1"
)

// Tick outcome.
const OutcomeAlive = "ALIVE"

// Episode results.
const (
	ResultUnknown     = "UNKNOWN"
	ResultDied        = "DIED"
	ResultTimeout     = "TIMEOUT"
	ResultStepLimit   = "STEP_LIMIT"
	ResultInterrupted = "INTERRUPTED"
)

// DefaultLevel is used when the session does not name a starting level.
const DefaultLevel = "E1M1"

// SummaryTickRate is the nominal tick rate used only to report duration.
const SummaryTickRate = 300.0

// Meta is the immutable per-session metadata embedded in every record.
type Meta struct {
	RunID      string `json:"run_id"`
	EpisodeID  string `json:"episode_id"`
	AlgoID     string `json:"algo_id"`
	Git        string `json:"git"`
	RNGSeed    int64  `json:"rng_seed"`
	LevelStart string `json:"level_start"`
}

// Pose is position and orientation in engine units.
type Pose struct {
	X      Float `json:"x"`
	Y      Float `json:"y"`
	YawDeg Float `json:"yaw_deg"`
}

// Keys flags which key cards are held.
type Keys struct {
	Red    int `json:"red"`
	Blue   int `json:"blue"`
	Yellow int `json:"yellow"`
}

// Resources counts consumables.
type Resources struct {
	AmmoUsed    map[string]int `json:"ammo_used"`
	MedkitsUsed int            `json:"medkits_used"`
	ArmorPicked int            `json:"armor_picked"`
}

// Combat holds the per-record combat deltas.
type Combat struct {
	DmgInDelta  int `json:"dmg_in_delta"`
	DmgOutDelta int `json:"dmg_out_delta"`
	KillsDelta  int `json:"kills_delta"`
}

// Performance counters measured over an episode.
type Performance struct {
	AvgFPS     Float `json:"avg_fps"`
	AvgFrameMs Float `json:"avg_frame_ms"`
	CPUPct     int   `json:"cpu_pct"`
	RSSMB      int   `json:"rss_mb"`
	GCEvents   int   `json:"gc_events"`
}

// TickPerformance is the performance placeholder carried by tick records.
// Ticks are not timed, so every counter serializes as integer 0.
type TickPerformance struct {
	AvgFPS     int `json:"avg_fps"`
	AvgFrameMs int `json:"avg_frame_ms"`
	CPUPct     int `json:"cpu_pct"`
	RSSMB      int `json:"rss_mb"`
	GCEvents   int `json:"gc_events"`
}

// Faults counts error-correction and watchdog events.
type Faults struct {
	ECCCorrected     int `json:"ecc_corrected"`
	BitflipsInjected int `json:"bitflips_injected"`
	WatchdogResets   int `json:"watchdog_resets"`
}

// Tick is one Tier-0 telemetry record.
type Tick struct {
	Type       string `json:"type"`
	Schema     string `json:"schema"`
	UnixTime   int64  `json:"unix_time"`
	UnixTimeMs int64  `json:"unix_time_ms"`
	Step       int    `json:"step"`
	Meta
	Level          string          `json:"level"`
	Health         int             `json:"health"`
	Armor          int             `json:"armor"`
	SelectedWeapon int             `json:"selected_weapon"`
	Pose           Pose            `json:"pose"`
	Keys           Keys            `json:"keys"`
	SecretsFound   int             `json:"secrets_found"`
	Resources      Resources       `json:"resources"`
	Combat         Combat          `json:"combat"`
	Performance    TickPerformance `json:"performance"`
	Faults         Faults          `json:"faults"`
	Outcome        string          `json:"outcome"`
	CRC32C         string          `json:"crc32c,omitempty"`
}

// Damage totals for an episode.
type Damage struct {
	TakenTotal   int            `json:"taken_total"`
	DealtTotal   int            `json:"dealt_total"`
	DealtByEnemy map[string]int `json:"dealt_by_enemy"`
}

// Efficiency metrics. Not yet populated.
type Efficiency struct {
	DmgPerAmmo         map[string]Float `json:"dmg_per_ammo"`
	StrongTargetingPct Float            `json:"strong_targeting_pct"`
	OverkillPct        Float            `json:"overkill_pct"`
}

// Nav metrics. Only PathLenM is measured.
type Nav struct {
	PathLenM     Float `json:"path_len_m"`
	BacktrackPct Float `json:"backtrack_pct"`
	StuckEvents  int   `json:"stuck_events"`
}

// Summary is the end-of-episode record.
type Summary struct {
	Type     string `json:"type"`
	Schema   string `json:"schema"`
	UnixTime int64  `json:"unix_time"`
	Meta
	LevelsCompleted int         `json:"levels_completed"`
	Result          string      `json:"result"`
	DurationS       Float       `json:"duration_s"`
	Deaths          int         `json:"deaths"`
	Damage          Damage      `json:"damage"`
	Resources       Resources   `json:"resources"`
	Efficiency      Efficiency  `json:"efficiency"`
	Performance     Performance `json:"performance"`
	Faults          Faults      `json:"faults"`
	Nav             Nav         `json:"nav"`
	Kills           int         `json:"kills"`
	CRC32C          string      `json:"crc32c,omitempty"`
}
