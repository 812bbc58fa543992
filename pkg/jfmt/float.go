package jfmt

import (
	"math"
	"strconv"
)

// Plain notation is used for 1e-3 <= |x| < 1e7. Expressed on the decimal
// point position of 0.d1d2d3... x 10^decpt: 1e-3 is 0.1e-2 and 1e7 is 0.1e8.
const (
	plainMinDecpt = -2
	plainMaxDecpt = 7
)

// AppendFloat64 appends the shortest round-trip decimal form of f.
func AppendFloat64(dst []byte, f float64) []byte {
	return appendFloat(dst, f, 64)
}

// AppendFloat32 appends the shortest decimal form that parses back to the
// same float32. Digits are chosen for the 32-bit value, not its widening.
func AppendFloat32(dst []byte, f float32) []byte {
	return appendFloat(dst, float64(f), 32)
}

// FormatFloat64 returns the canonical text of f.
func FormatFloat64(f float64) string {
	var buf [32]byte
	return string(AppendFloat64(buf[:0], f))
}

// FormatFloat32 returns the canonical text of f.
func FormatFloat32(f float32) string {
	var buf [32]byte
	return string(AppendFloat32(buf[:0], f))
}

func appendFloat(dst []byte, f float64, bitSize int) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, NaN...)
	case math.IsInf(f, 1):
		return append(dst, Infinity...)
	case math.IsInf(f, -1):
		return append(dst, NegInfinity...)
	}
	if math.Signbit(f) {
		dst = append(dst, '-')
		f = -f
	}
	if f == 0 {
		return append(dst, '0', '.', '0')
	}

	var buf, alt [32]byte
	digits, decpt := decimal(strconv.AppendFloat(buf[:0], f, 'e', -1, bitSize))
	if len(digits) == 1 {
		// A single digit would print as d.0 anyway, so the closest two-digit
		// decimal is preferred when it still identifies f.
		two := strconv.AppendFloat(alt[:0], f, 'e', 1, bitSize)
		if roundTrips(two, f, bitSize) {
			digits, decpt = decimal(two)
		}
	}
	return layout(dst, digits, decpt)
}

// decimal rewrites strconv's "d.ddde±xx" in place into its significant
// digits, without trailing zeros, and returns the decimal point position
// relative to the first digit.
func decimal(s []byte) ([]byte, int) {
	e := len(s) - 1
	for e > 0 && s[e] != 'e' {
		e--
	}
	exp := 0
	neg := false
	for _, c := range s[e+1:] {
		switch {
		case c == '-':
			neg = true
		case c >= '0' && c <= '9':
			exp = exp*10 + int(c-'0')
		}
	}
	if neg {
		exp = -exp
	}

	n := 0
	for _, c := range s[:e] {
		if c == '.' {
			continue
		}
		s[n] = c
		n++
	}
	for n > 1 && s[n-1] == '0' {
		n--
	}
	return s[:n], exp + 1
}

func roundTrips(s []byte, f float64, bitSize int) bool {
	g, err := strconv.ParseFloat(string(s), bitSize)
	if err != nil {
		return false
	}
	if bitSize == 32 {
		return math.Float32bits(float32(g)) == math.Float32bits(float32(f))
	}
	return math.Float64bits(g) == math.Float64bits(f)
}

func layout(dst, digits []byte, decpt int) []byte {
	if decpt < plainMinDecpt || decpt > plainMaxDecpt {
		dst = append(dst, digits[0], '.')
		if len(digits) == 1 {
			dst = append(dst, '0')
		} else {
			dst = append(dst, digits[1:]...)
		}
		dst = append(dst, 'E')
		return strconv.AppendInt(dst, int64(decpt-1), 10)
	}

	if decpt <= 0 {
		dst = append(dst, '0', '.')
		for i := decpt; i < 0; i++ {
			dst = append(dst, '0')
		}
		return append(dst, digits...)
	}
	if len(digits) <= decpt {
		dst = append(dst, digits...)
		for i := len(digits); i < decpt; i++ {
			dst = append(dst, '0')
		}
		return append(dst, '.', '0')
	}
	dst = append(dst, digits[:decpt]...)
	dst = append(dst, '.')
	return append(dst, digits[decpt:]...)
}
