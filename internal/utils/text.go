// Package utils has small shared helpers: text matching, TOML parsing
// with partial recovery, and filesystem checks for the config layer.
package utils

import (
	"strings"
	"unicode"
)

// ContainsFold reports whether s contains substr under simple case folding.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// HasPrefixFold reports whether s starts with prefix under simple case folding.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

// NormalizeWord lowercases a vocabulary word and strips surrounding space.
func NormalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// IsRepetitive reports whether s is a single character repeated three or
// more times ("aaa", "wwww"). Such prefixes produce noise suggestions.
func IsRepetitive(s string) bool {
	if len(s) <= 2 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// IsValidInput reports whether a prefix is worth completing: not empty,
// not purely numeric, no special characters, not repetitive.
func IsValidInput(s string) bool {
	if len(s) == 0 || IsRepetitive(s) {
		return false
	}
	onlyDigits := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			onlyDigits = false
		case unicode.IsDigit(r):
		case r == ' ' || r == '-' || r == '_' || r == '\'':
			onlyDigits = false
		default:
			return false
		}
	}
	return !onlyDigits
}
