package service

import (
	"strings"
	"unicode"
)

const minPasswordLength = 8

// passwordPolicyViolations returns one message per unmet password rule, in a
// stable order, so the caller can surface all of them at once.
func passwordPolicyViolations(password string) []string {
	var details []string
	if len(password) < minPasswordLength {
		details = append(details, "password must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper {
		details = append(details, "password must contain an uppercase letter")
	}
	if !hasLower {
		details = append(details, "password must contain a lowercase letter")
	}
	if !hasDigit {
		details = append(details, "password must contain a digit")
	}
	if !hasSpecial {
		details = append(details, "password must contain a special character")
	}
	return details
}

// normalizeAnswer canonicalizes a security answer before hashing or
// verification so trivial formatting differences do not lock users out.
func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
