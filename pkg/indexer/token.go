package indexer

import (
	"regexp"
	"strings"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
)

// DefaultPattern splits on runs of whitespace.
const DefaultPattern = `\s+`

var defaultRegexp = regexp.MustCompile(DefaultPattern)

// Token is the delimiter rule that defines word boundaries.
// The zero value behaves like DefaultToken.
type Token struct {
	pattern string
	re      *regexp.Regexp
}

// NewToken compiles a delimiter pattern.
// A blank or non-compiling pattern is invalid input.
func NewToken(pattern string) (Token, error) {
	if strings.TrimSpace(pattern) == "" {
		return Token{}, ierrors.New(ierrors.ErrCodeInvalidToken, "token pattern must not be blank", nil)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Token{}, ierrors.New(ierrors.ErrCodeInvalidToken, "invalid token pattern "+pattern, err).
			WithDetail("pattern", pattern)
	}
	return Token{pattern: pattern, re: re}, nil
}

// DefaultToken returns the whitespace-run token.
func DefaultToken() Token {
	return Token{pattern: DefaultPattern, re: defaultRegexp}
}

// Pattern returns the delimiter pattern.
func (t Token) Pattern() string {
	if t.re == nil {
		return DefaultPattern
	}
	return t.pattern
}

// Split breaks line into lowercase words.
// Empty pieces from leading, trailing or consecutive delimiters are dropped.
func (t Token) Split(line string) []string {
	re := t.re
	if re == nil {
		re = defaultRegexp
	}

	parts := re.Split(line, -1)
	words := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		words = append(words, strings.ToLower(p))
	}
	return words
}

// String implements fmt.Stringer.
func (t Token) String() string {
	return t.Pattern()
}
