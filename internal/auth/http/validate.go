package http

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

// check inspects one field value and returns a problem description, or ""
// when the value passes.
type check func(value string) string

// field pairs a named value with its checks. Checks run in order and stop at
// the first problem, so "required" belongs in front.
type field struct {
	name   string
	value  string
	checks []check
}

// validate runs every field's checks and collects the problems keyed by
// field name. An empty map means the request is well-formed.
func validate(fields ...field) map[string]string {
	problems := make(map[string]string)
	for _, f := range fields {
		for _, c := range f.checks {
			if p := c(f.value); p != "" {
				problems[f.name] = p
				break
			}
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

func required(v string) string {
	if strings.TrimSpace(v) == "" {
		return "is required"
	}
	return ""
}

func email(v string) string {
	addr, err := mail.ParseAddress(strings.TrimSpace(v))
	if err != nil || addr.Address != strings.TrimSpace(v) {
		return "must be a valid email address"
	}
	return ""
}

// username accepts 3 to 32 lowercase letters, digits, underscores and
// hyphens. Uppercase is rejected rather than folded so the stored handle is
// exactly what the user typed.
func username(v string) string {
	if len(v) < 3 || len(v) > 32 {
		return "must be between 3 and 32 characters"
	}
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return "may only contain lowercase letters, digits, underscores and hyphens"
		}
	}
	return ""
}

// password requires at least 8 characters with an upper-case letter, a
// lower-case letter and a digit. Length is counted in runes, not bytes.
func password(v string) string {
	if utf8.RuneCountInString(v) < 8 {
		return "must be at least 8 characters"
	}
	if utf8.RuneCountInString(v) > 128 {
		return "must be at most 128 characters"
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range v {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return "must contain an upper-case letter, a lower-case letter and a digit"
	}
	return ""
}

func maxLen(n int) check {
	return func(v string) string {
		if utf8.RuneCountInString(v) > n {
			return "is too long"
		}
		return ""
	}
}
