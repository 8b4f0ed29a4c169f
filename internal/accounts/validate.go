package accounts

import "regexp"

var usernameRe = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// ValidUsername enforces Ubuntu-style username requirements:
// lowercase letters/digits/underscore/dash, starting with a letter or underscore.
// A valid name can never be mistaken for a command-line option.
func ValidUsername(u string) bool {
	return usernameRe.MatchString(u)
}
