package persona

// Event is a single persona match, ready to be appended to a chronicle.
type Event struct {
	// Persona is the name of the persona that matched.
	Persona string `json:"persona"`
	// Repo is the absolute path to the codebase the change occurred in.
	Repo string `json:"repo"`
	// File is the path of the changed file, relative to Repo.
	File string `json:"file"`
	// Reason is "glob" if the persona has no triggers (or the match is
	// determined by filters alone), or "glob+trigger" if a trigger also
	// matched the file's content.
	Reason string `json:"reason"`
	// Timestamp is the event time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

const (
	// ReasonGlob indicates a persona matched on path filters alone.
	ReasonGlob = "glob"
	// ReasonGlobTrigger indicates a persona matched on path filters and a
	// content trigger.
	ReasonGlobTrigger = "glob+trigger"
)
