package http

import (
	"strings"
	"unicode/utf8"

	"zapagent/internal/entities"
)

// Input validation constants
const (
	MaxNameLength   = 255
	MaxPhoneLength  = 32
	MaxPromptLength = 50000 // For AI prompts
)

// ValidProvider checks the provider name against the closed set.
func ValidProvider(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case entities.ProviderMeta, entities.ProviderZAPI:
		return true
	}
	return false
}

// SanitizeString removes null bytes and invalid UTF-8
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// ValidateLength checks if string is within bounds
func ValidateLength(s string, min, max int) bool {
	l := len(s)
	return l >= min && l <= max
}
