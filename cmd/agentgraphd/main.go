// Command agentgraphd is a minimal composition-root binary wiring the
// engine to a filesystem session and an HTTP (or mock) subagent pool.
package main

import (
	"os"

	"github.com/flowforge/agentgraph/cmd/agentgraphd/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
