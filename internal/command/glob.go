package command

import "strings"

// MatchGlob matches a string against a simple glob pattern.
// Supports * as a wildcard matching any run of characters.
// Examples:
//   - "user:*" matches "user:1001"
//   - "*:count" matches "page:count"
//   - "user:*:session" matches "user:1001:session"
func MatchGlob(pattern, s string) bool {
	if pattern == "*" {
		return true
	}
	if pattern == "" {
		return s == ""
	}

	// Simple case: no wildcards
	if !strings.Contains(pattern, "*") {
		return pattern == s
	}

	// Single trailing wildcard (prefix match): "prefix*"
	if strings.HasSuffix(pattern, "*") && !strings.Contains(pattern[:len(pattern)-1], "*") {
		return strings.HasPrefix(s, pattern[:len(pattern)-1])
	}

	// Single leading wildcard (suffix match): "*suffix"
	if strings.HasPrefix(pattern, "*") && !strings.Contains(pattern[1:], "*") {
		return strings.HasSuffix(s, pattern[1:])
	}

	// General case: multiple wildcards
	parts := strings.Split(pattern, "*")

	// First part must be a prefix (if not empty)
	if parts[0] != "" && !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	// Middle parts must appear in order
	for i := 1; i < len(parts)-1; i++ {
		if parts[i] == "" {
			continue
		}
		idx := strings.Index(s, parts[i])
		if idx < 0 {
			return false
		}
		s = s[idx+len(parts[i]):]
	}

	// Last part must be a suffix (if not empty)
	if last := parts[len(parts)-1]; last != "" {
		return strings.HasSuffix(s, last)
	}

	return true
}
