package planner

import (
	"fmt"
	"strings"
)

// ExtractJSON recovers a single JSON object from free-form model output.
// It strips markdown code fences and any prose before or after the object,
// returning the substring from the first '{' to its balanced closing '}'.
func ExtractJSON(raw string) (string, error) {
	text := stripFences(raw)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in output")
}

// stripFences removes markdown code fences, keeping only fenced content when
// a fence is present.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	open := strings.Index(trimmed, "```")
	if open < 0 {
		return trimmed
	}
	rest := trimmed[open+3:]
	// Drop the optional language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || isLanguageTag(firstLine) {
			rest = rest[nl+1:]
		}
	}
	if closing := strings.Index(rest, "```"); closing >= 0 {
		rest = rest[:closing]
	}
	return strings.TrimSpace(rest)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
