package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail checks a basic email shape. Not a full RFC check, but
// enough to catch typos before the address is used for report delivery.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// IsValidHour accepts an integer hour between 0 and 23
func IsValidHour(s string) bool {
	hour, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return hour >= 0 && hour < 24
}

// CleanCNPJ strips the usual CNPJ formatting characters (dots, slashes,
// dashes and spaces), leaving only digits
func CleanCNPJ(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
