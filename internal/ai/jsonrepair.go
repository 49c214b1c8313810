package ai

import (
	"regexp"
	"strings"
)

var trailingCommaPattern = regexp.MustCompile(`,\s*([\]}])`)

// repairJSON applies best-effort recovery to model output that should
// be a JSON array but often is not quite: markdown code fences around
// it, prose before or after, trailing commas. Recovery is heuristic and
// lossy, so callers only invoke it after the raw content has already
// failed to parse; if the result still fails the response is a total
// failure.
func repairJSON(content string) string {
	s := stripCodeFences(content)
	s = extractJSON(s)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// repairJSONObject is repairJSON for responses expected to be a single
// object, so extraction prefers the outermost {...} span. Without the
// preference an object whose string fields contain brackets would be
// reduced to the bracketed fragment.
func repairJSONObject(content string) string {
	s := stripCodeFences(content)
	s = extractJSONObject(s)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// stripCodeFences removes a ```json ... ``` (or plain ```) wrapper.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}

	start := strings.Index(s, "```")
	rest := s[start+3:]
	// Drop a language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || isFenceTag(firstLine) {
			rest = rest[nl+1:]
		}
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// extractJSON cuts the first JSON array out of surrounding prose,
// falling back to the first object. Input is returned unchanged when
// neither bracket pair is present.
func extractJSON(s string) string {
	if span := extractSpan(s, '[', ']'); span != "" {
		return span
	}
	if span := extractSpan(s, '{', '}'); span != "" {
		return span
	}
	return s
}

// extractJSONObject is extractJSON with the preference reversed:
// object first, array as the fallback.
func extractJSONObject(s string) string {
	if span := extractSpan(s, '{', '}'); span != "" {
		return span
	}
	if span := extractSpan(s, '[', ']'); span != "" {
		return span
	}
	return s
}

func extractSpan(s string, opener, closer byte) string {
	start := strings.IndexByte(s, opener)
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

// clampConfidence forces a confidence into [0,1].
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// matchCandidate resolves a model-supplied category name against the
// candidate list, case-insensitively, returning the canonical name or
// "" when the model invented a category.
func matchCandidate(name string, candidates []string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, c := range candidates {
		if strings.EqualFold(name, c) {
			return c
		}
	}
	return ""
}
