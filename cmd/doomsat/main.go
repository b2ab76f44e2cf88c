// doomsat drives an agent through a scripted engine session and records
// Tier-0 telemetry, binary frames and episode summaries.
package main

import "github.com/ppiankov/doomsat/internal/cli"

func main() {
	cli.Execute()
}
