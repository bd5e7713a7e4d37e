package topic

import "strings"

// Match reports whether a concrete topic matches a filter pattern using
// MQTT wildcard semantics. `+` matches exactly one topic level, `#`
// matches the remainder of the topic (including zero levels) and
// terminates matching. All other pattern segments must equal the topic
// segment exactly, case-sensitively. A pattern of exactly "#" matches
// everything, including the empty topic.
func Match(pattern, topic string) bool {
	if pattern == "#" {
		return true
	}

	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	pi, ti := 0, 0
	for pi < len(patternParts) && ti < len(topicParts) {
		switch patternParts[pi] {
		case "#":
			return true
		case "+":
			pi++
			ti++
		case topicParts[ti]:
			pi++
			ti++
		default:
			return false
		}
	}

	// A trailing "#" matches zero remaining levels
	if pi < len(patternParts) && patternParts[pi] == "#" {
		return true
	}

	return pi == len(patternParts) && ti == len(topicParts)
}
