package valve

import "os"

// DebugEnabled controls whether or not debug-level logging is enabled. It is
// set automatically based on the VALVE_DEBUG environment variable.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("VALVE_DEBUG") == "1"
}
