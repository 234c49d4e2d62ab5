package scapeid

import "strings"

// Normalize canonicalizes environment names and their aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized) {
		if canonical, ok := canonicalName(candidate); ok {
			return canonical
		}
	}
	return normalized
}

func aliasCandidates(normalized string) []string {
	candidates := []string{normalized}
	trimmed := strings.Trim(strings.TrimPrefix(normalized, "env-"), "-")
	if trimmed != "" && trimmed != normalized {
		candidates = append(candidates, trimmed)
	}
	if suffixless := strings.TrimSuffix(trimmed, "-env"); suffixless != "" && suffixless != trimmed {
		candidates = append(candidates, suffixless)
	}
	return candidates
}

func canonicalName(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "simplescreen", "screen":
		return "simple-screen", true
	case "null", "none", "noop":
		return "null", true
	default:
		return "", false
	}
}
