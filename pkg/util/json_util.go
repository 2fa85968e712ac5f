package util

import (
	"regexp"
	"strings"
)

var markdownJSONRe = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ExtractJSONFromText tries to find the largest JSON object/array in the text.
// LLM responses tend to wrap JSON in markdown fences or prose.
func ExtractJSONFromText(text string) string {
	// 1. Try to find markdown code block first
	matches := markdownJSONRe.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// 2. Fallback: Find first '{' or '[' and last '}' or ']'
	start := earliestIndex(strings.Index(text, "{"), strings.Index(text, "["))
	if start == -1 {
		return text // No JSON found, return raw text
	}

	end := latestIndex(strings.LastIndex(text, "}"), strings.LastIndex(text, "]"))
	if end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

func earliestIndex(a, b int) int {
	if a == -1 {
		return b
	}
	if b == -1 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func latestIndex(a, b int) int {
	if a > b {
		return a
	}
	return b
}
