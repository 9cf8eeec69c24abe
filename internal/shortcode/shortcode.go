// Package shortcode generates and validates the short codes links are
// reachable under.
package shortcode

import (
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the set of characters codes are drawn from.
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultLength = 6
	MinLength     = 6
	MaxLength     = 8
)

var codeRegexp = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

// reserved holds well-formed codes that are shadowed by fixed top-level routes.
var reserved = map[string]struct{}{
	"healthz": {},
	"metrics": {},
	"swagger": {},
}

// Generate returns a random code of exactly length characters, each drawn
// uniformly from Alphabet. Uniqueness is left to the store.
func Generate(length int) (string, error) {
	const op = "shortcode.Generate"

	code, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate code: %w", op, err)
	}

	return code, nil
}

// Valid reports whether code is 6 to 8 alphanumeric characters.
func Valid(code string) bool {
	return codeRegexp.MatchString(code)
}

// Reserved reports whether code is taken by a fixed route and must not be
// handed out for a link.
func Reserved(code string) bool {
	_, ok := reserved[code]
	return ok
}
