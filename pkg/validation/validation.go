package validation

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the form layout of the DateTaken field.
const DateLayout = "2006-01-02"

// MinPasswordLength matches the relaxed password policy of the demo accounts.
const MinPasswordLength = 4

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	return emailRegex.MatchString(email)
}

// ValidatePassword only enforces a minimum length.
func ValidatePassword(password string) bool {
	return len(password) >= MinPasswordLength
}

// ParseDate parses a DateTaken form value.
func ParseDate(value string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SanitizeString removes potentially harmful characters
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
