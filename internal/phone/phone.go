// Package phone canonicalizes customer phone numbers into the single wire
// format stored with queue entries: "+98" followed by a ten digit mobile
// number that starts with 9.
package phone

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// CountryPrefix is the international prefix every canonical number carries.
const CountryPrefix = "+98"

const localLength = 10

// ErrInvalid is returned for any input that cannot be canonicalized.
var ErrInvalid = errors.New("phone: invalid number")

// Normalize maps Eastern Arabic and Persian digit glyphs to ASCII, strips
// separators and rewrites the supported national and international forms to
// the canonical "+98XXXXXXXXXX" representation.
func Normalize(raw string) (string, error) {
	cleaned, err := clean(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if cleaned == "" {
		return "", fmt.Errorf("%w: number is empty", ErrInvalid)
	}

	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}

	var local string
	switch {
	case strings.HasPrefix(cleaned, CountryPrefix):
		local = cleaned[len(CountryPrefix):]
	case strings.HasPrefix(cleaned, "+"):
		return "", fmt.Errorf("%w: unsupported country code", ErrInvalid)
	case len(cleaned) == localLength+1 && cleaned[0] == '0' && cleaned[1] == '9':
		local = cleaned[1:]
	case len(cleaned) == localLength && cleaned[0] == '9':
		local = cleaned
	default:
		return "", fmt.Errorf("%w: unrecognized format", ErrInvalid)
	}

	if len(local) != localLength {
		return "", fmt.Errorf("%w: local number must have %d digits", ErrInvalid, localLength)
	}
	if !isASCIIDigits(local) {
		return "", fmt.Errorf("%w: local number must be numeric", ErrInvalid)
	}
	if local[0] != '9' {
		return "", fmt.Errorf("%w: local number must start with 9", ErrInvalid)
	}

	return CountryPrefix + local, nil
}

// clean folds digit glyphs and removes whitespace, hyphens and parentheses.
// The chain is built per call because transform.Chain keeps internal buffers.
func clean(raw string) (string, error) {
	t := transform.Chain(runes.Map(foldDigit), runes.Remove(runes.Predicate(isSeparator)))
	out, _, err := transform.String(t, raw)
	return out, err
}

func foldDigit(r rune) rune {
	switch {
	case r >= '٠' && r <= '٩': // Arabic-Indic
		return '0' + (r - '٠')
	case r >= '۰' && r <= '۹': // Extended Arabic-Indic (Persian)
		return '0' + (r - '۰')
	}
	return r
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '(' || r == ')'
}

func isASCIIDigits(value string) bool {
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return value != ""
}
