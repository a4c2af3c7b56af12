// Package serial derives serial-number prefixes and numbers new assets.
//
// A serial has the form PREFIX-NNNNNN where NNNNNN is a zero-padded counter
// per prefix. Counters grow past six digits without wrapping.
package serial

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FallbackPrefix is used when neither the configured prefix nor the type name
// yield any alphanumeric characters.
const FallbackPrefix = "AS"

// prefixLen is the maximum number of characters kept from a prefix.
const prefixLen = 3

// Prefix returns the serial prefix for an asset type. The configured prefix
// wins when it is non-empty; otherwise the type name is used.
func Prefix(configured, typeName string) string {
	src := configured
	if strings.TrimSpace(src) == "" {
		src = typeName
	}

	var b strings.Builder
	for _, r := range src {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if b.Len() == prefixLen {
			break
		}
	}

	if b.Len() == 0 {
		return FallbackPrefix
	}
	return b.String()
}

// Format builds the serial for counter n.
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

// Suffix extracts the counter from a serial carrying the given prefix. It
// reports false for serials with another prefix or a non-numeric suffix.
func Suffix(prefix, serial string) (int, bool) {
	rest, ok := strings.CutPrefix(serial, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Max returns the highest counter among serials that carry prefix, or zero.
func Max(prefix string, serials []string) int {
	highest := 0
	for _, s := range serials {
		if n, ok := Suffix(prefix, s); ok && n > highest {
			highest = n
		}
	}
	return highest
}

// Batch returns k consecutive serials following currentMax.
func Batch(prefix string, currentMax, k int) []string {
	out := make([]string, 0, k)
	for i := 1; i <= k; i++ {
		out = append(out, Format(prefix, currentMax+i))
	}
	return out
}
