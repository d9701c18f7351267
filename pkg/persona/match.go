package persona

// Match evaluates every persona against a single (path, content?) change.
// now is the event timestamp in Unix milliseconds.
//
// For each persona, in the order provided:
//  1. If the persona has a non-empty globset and rel doesn't match any
//     pattern in it, the persona is skipped. An empty globset matches every
//     path.
//  2. If the persona has a non-empty trigger list: when content is nil, the
//     persona is skipped; otherwise, if none of its triggers match content,
//     the persona is skipped.
//  3. An Event is emitted with reason "glob" if no trigger was evaluated,
//     or "glob+trigger" if a trigger matched.
func Match(personas []*Compiled, repo, rel string, content *string, now int64) []Event {
	var events []Event

	for _, p := range personas {
		if !p.matchesGlobs(rel) {
			continue
		}

		reason := ReasonGlob
		if len(p.Triggers) > 0 {
			if content == nil {
				continue
			}
			if !p.matchesTrigger(*content) {
				continue
			}
			reason = ReasonGlobTrigger
		}

		events = append(events, Event{
			Persona:   p.Name,
			Repo:      repo,
			File:      rel,
			Reason:    reason,
			Timestamp: now,
		})
	}

	return events
}
