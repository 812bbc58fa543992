// Package jfmt renders primitive values the way the managed runtime's
// canonical string conversion does. Every routine appends to a caller
// supplied slice and is total over its input domain.
package jfmt

import (
	"strconv"
	"unicode/utf8"
)

// Canonical literals.
const (
	True        = "true"
	False       = "false"
	Null        = "null"
	NaN         = "NaN"
	Infinity    = "Infinity"
	NegInfinity = "-Infinity"
)

// AppendBool appends true or false.
func AppendBool(dst []byte, b bool) []byte {
	if b {
		return append(dst, True...)
	}
	return append(dst, False...)
}

// AppendInt appends the minimal decimal form of n. Narrower widths are
// sign-extended by the caller; the magnitude is taken as uint64 so the
// most negative value of every width needs no special case.
func AppendInt(dst []byte, n int64) []byte {
	u := uint64(n)
	if n < 0 {
		dst = append(dst, '-')
		u = -u
	}
	return strconv.AppendUint(dst, u, 10)
}

// AppendChar appends the UTF-8 encoding of c. Surrogates and out of range
// values encode as U+FFFD.
func AppendChar(dst []byte, c rune) []byte {
	return utf8.AppendRune(dst, c)
}

// FormatBool returns the canonical text of b.
func FormatBool(b bool) string {
	if b {
		return True
	}
	return False
}

// FormatInt returns the canonical text of n.
func FormatInt(n int64) string {
	var buf [24]byte
	return string(AppendInt(buf[:0], n))
}

// FormatChar returns the canonical text of c.
func FormatChar(c rune) string {
	var buf [utf8.UTFMax]byte
	return string(AppendChar(buf[:0], c))
}
