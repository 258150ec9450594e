package pptx

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidToken reports a placeholder key that does not match the
// {UPPER_SNAKE} shape.
var ErrInvalidToken = errors.New("pptx: invalid placeholder token")

// Token is a validated placeholder token including its brace delimiters,
// e.g. "{NAME}" or "{DATE_OF_BIRTH}". Tokens are case-sensitive and must
// match the {UPPER_SNAKE} shape.
type Token string

var tokenRe = regexp.MustCompile(`^\{[A-Z][A-Z0-9_]*\}$`)

// scanRe matches candidate tokens inside document text.
var scanRe = regexp.MustCompile(`\{[A-Z][A-Z0-9_]*\}`)

// ParseToken validates s as a placeholder token.
func ParseToken(s string) (Token, error) {
	if !tokenRe.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidToken, s)
	}
	return Token(s), nil
}

// Values maps placeholder tokens to their replacement text.
type Values map[Token]string

// NewValues validates every key of m as a token. Free-form keys from request
// payloads are rejected here rather than trusted downstream.
func NewValues(m map[string]string) (Values, error) {
	vals := make(Values, len(m))
	for k, v := range m {
		tok, err := ParseToken(k)
		if err != nil {
			return nil, err
		}
		vals[tok] = v
	}
	return vals, nil
}
