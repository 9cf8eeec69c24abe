package shortcode

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("invalid length", func(t *testing.T) {
		code, err := Generate(-1)

		assert.Error(t, err)
		assert.Empty(t, code)
	})

	t.Run("default length", func(t *testing.T) {
		re := regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

		for i := 0; i < 1000; i++ {
			code, err := Generate(DefaultLength)

			require.NoError(t, err)
			assert.Regexp(t, re, code)
			assert.True(t, Valid(code))
		}
	})

	t.Run("max length", func(t *testing.T) {
		code, err := Generate(MaxLength)

		assert.NoError(t, err)
		assert.Len(t, code, MaxLength)
		assert.True(t, Valid(code))
	})

	t.Run("covers alphabet", func(t *testing.T) {
		seen := make(map[rune]bool, len(Alphabet))

		for i := 0; i < 2000; i++ {
			code, err := Generate(DefaultLength)
			require.NoError(t, err)

			for _, c := range code {
				seen[c] = true
			}
		}

		for _, c := range Alphabet {
			assert.Truef(t, seen[c], "character %q never generated", c)
		}
	})
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "six chars", code: "aB3xY9", want: true},
		{name: "eight chars", code: "abcDEF12", want: true},
		{name: "digits only", code: "1234567", want: true},
		{name: "empty", code: "", want: false},
		{name: "too short", code: "abc12", want: false},
		{name: "too long", code: "abcdefghi", want: false},
		{name: "dash", code: "abc-123", want: false},
		{name: "underscore", code: "abc_123", want: false},
		{name: "non ascii", code: "abcdeé", want: false},
		{name: "trailing newline", code: "abc123\n", want: false},
		{name: "path traversal", code: "../etc", want: false},
		{name: "reserved route", code: strings.Repeat("a", 3) + "/b", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.code))
		})
	}
}

func TestReserved(t *testing.T) {
	for _, code := range []string{"healthz", "metrics", "swagger"} {
		t.Run(code, func(t *testing.T) {
			assert.True(t, Valid(code))
			assert.True(t, Reserved(code))
		})
	}

	t.Run("regular code", func(t *testing.T) {
		assert.False(t, Reserved("abc1234"))
	})

	t.Run("case sensitive", func(t *testing.T) {
		assert.False(t, Reserved("Metrics"))
	})
}
