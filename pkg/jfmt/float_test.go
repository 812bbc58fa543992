package jfmt

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"
)

func TestFormatFloat64(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{1, "1.0"},
		{-1, "-1.0"},
		{0.1, "0.1"},
		{0.5, "0.5"},
		{100, "100.0"},
		{123.456, "123.456"},
		{0.1 + 0.2, "0.30000000000000004"},
		{math.Pi, "3.141592653589793"},
		{0.001, "0.001"},
		{0.0001, "1.0E-4"},
		{0.00123, "0.00123"},
		{1234567, "1234567.0"},
		{9999999, "9999999.0"},
		{1e7, "1.0E7"},
		{12345678, "1.2345678E7"},
		{123456789, "1.23456789E8"},
		{1e21, "1.0E21"},
		{1e23, "1.0E23"},
		{2e23, "2.0E23"},
		{-1.5e-10, "-1.5E-10"},
		{math.MaxFloat64, "1.7976931348623157E308"},
		{math.SmallestNonzeroFloat64, "4.9E-324"},
		{2.2250738585072014e-308, "2.2250738585072014E-308"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, test := range tests {
		if got := FormatFloat64(test.in); got != test.want {
			t.Fatalf("FormatFloat64(%v) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestFormatFloat32(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{0, "0.0"},
		{float32(math.Copysign(0, -1)), "-0.0"},
		{37.2, "37.2"},
		{math.Float32frombits(0x4214cccd), "37.2"},
		{0.1, "0.1"},
		{1.0 / 3.0, "0.33333334"},
		{100, "100.0"},
		{1e10, "1.0E10"},
		{16777216, "1.6777216E7"},
		{0.001, "0.001"},
		{math.MaxFloat32, "3.4028235E38"},
		{math.SmallestNonzeroFloat32, "1.4E-45"},
		{1.17549435e-38, "1.1754944E-38"},
		{float32(math.Inf(1)), "Infinity"},
		{float32(math.Inf(-1)), "-Infinity"},
	}
	for _, test := range tests {
		if got := FormatFloat32(test.in); got != test.want {
			t.Fatalf("FormatFloat32(%v) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestNaNPayloadsShareLiteral(t *testing.T) {
	for _, bits := range []uint64{0x7ff8000000000000, 0x7ff0000000000001, 0xfff8000000000000, 0x7fffffffffffffff} {
		if got := FormatFloat64(math.Float64frombits(bits)); got != NaN {
			t.Fatalf("bits %#x rendered %q", bits, got)
		}
	}
	for _, bits := range []uint32{0x7fc00000, 0x7f800001, 0xffc00000, 0x7fffffff} {
		if got := FormatFloat32(math.Float32frombits(bits)); got != NaN {
			t.Fatalf("bits %#x rendered %q", bits, got)
		}
	}
}

func TestAppendFloatKeepsPrefix(t *testing.T) {
	got := string(AppendFloat64([]byte("x="), 2.5))
	if got != "x=2.5" {
		t.Fatalf("got %q", got)
	}
}

func TestFloat64RoundTripSample(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20000; i++ {
		checkFloat64(t, math.Float64frombits(rng.Uint64()))
	}
	for exp := -1074; exp <= 1023; exp++ {
		x := math.Ldexp(1, exp)
		checkFloat64(t, x)
		checkFloat64(t, math.Nextafter(x, 0))
		checkFloat64(t, math.Nextafter(x, math.Inf(1)))
	}
}

func TestFloat32RoundTripSample(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 20000; i++ {
		checkFloat32(t, math.Float32frombits(rng.Uint32()))
	}
	for bits := uint32(0); bits < 4096; bits++ {
		checkFloat32(t, math.Float32frombits(bits))
		checkFloat32(t, math.Float32frombits(0x7f7fffff-bits))
	}
	for exp := -149; exp <= 127; exp++ {
		x := float32(math.Ldexp(1, exp))
		checkFloat32(t, x)
		checkFloat32(t, math.Nextafter32(x, 0))
		checkFloat32(t, math.Nextafter32(x, float32(math.Inf(1))))
	}
}

func FuzzFloat64RoundTrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(math.Float64bits(0.1))
	f.Add(math.Float64bits(math.MaxFloat64))
	f.Add(uint64(1))

	f.Fuzz(func(t *testing.T, bits uint64) {
		checkFloat64(t, math.Float64frombits(bits))
	})
}

func FuzzFloat32RoundTrip(f *testing.F) {
	f.Add(uint32(0))
	f.Add(uint32(0x4214cccd))
	f.Add(uint32(1))

	f.Fuzz(func(t *testing.T, bits uint32) {
		checkFloat32(t, math.Float32frombits(bits))
	})
}

func checkFloat64(t *testing.T, x float64) {
	t.Helper()
	s := FormatFloat64(x)
	if math.IsNaN(x) {
		if s != NaN {
			t.Fatalf("NaN rendered %q", s)
		}
		return
	}
	g, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	if math.Float64bits(g) != math.Float64bits(x) {
		t.Fatalf("%q does not round-trip to %#x", s, math.Float64bits(x))
	}
	checkShape(t, s)
	if n := significantDigits(s); n >= 3 && shorterRoundTrips(math.Abs(x), 64, n) {
		t.Fatalf("%q is not minimal", s)
	}
}

func checkFloat32(t *testing.T, x float32) {
	t.Helper()
	s := FormatFloat32(x)
	if x != x {
		if s != NaN {
			t.Fatalf("NaN rendered %q", s)
		}
		return
	}
	g, err := strconv.ParseFloat(s, 32)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	if math.Float32bits(float32(g)) != math.Float32bits(x) {
		t.Fatalf("%q does not round-trip to %#x", s, math.Float32bits(x))
	}
	checkShape(t, s)
	if n := significantDigits(s); n >= 3 && shorterRoundTrips(math.Abs(float64(x)), 32, n) {
		t.Fatalf("%q is not minimal", s)
	}
}

// checkShape verifies a digit on both sides of the point and the notation
// switchover.
func checkShape(t *testing.T, s string) {
	t.Helper()
	if s == Infinity || s == NegInfinity {
		return
	}
	mant, exp, sci := strings.Cut(strings.TrimPrefix(s, "-"), "E")
	whole, frac, ok := strings.Cut(mant, ".")
	if !ok || whole == "" || frac == "" {
		t.Fatalf("%q lacks digits around the point", s)
	}
	if sci {
		if len(whole) != 1 || whole == "0" {
			t.Fatalf("%q has a malformed mantissa", s)
		}
		e, err := strconv.Atoi(exp)
		if err != nil {
			t.Fatalf("%q has a malformed exponent", s)
		}
		if e >= -3 && e < 7 {
			t.Fatalf("%q should use plain notation", s)
		}
		return
	}
	if len(whole) > 7 {
		t.Fatalf("%q should use scientific notation", s)
	}
	if whole == "0" && strings.HasPrefix(frac, "000") && strings.Trim(frac, "0") != "" {
		t.Fatalf("%q should use scientific notation", s)
	}
}

func significantDigits(s string) int {
	mant, _, _ := strings.Cut(strings.TrimPrefix(s, "-"), "E")
	digits := strings.Replace(mant, ".", "", 1)
	digits = strings.TrimLeft(digits, "0")
	digits = strings.TrimRight(digits, "0")
	return len(digits)
}

// shorterRoundTrips reports whether any decimal with n-1 significant digits
// parses back to x. Only the correctly rounded candidate and its two
// neighbours can lie inside the rounding interval if any does.
func shorterRoundTrips(x float64, bitSize int, n int) bool {
	s := strconv.FormatFloat(x, 'e', n-2, bitSize)
	mant, exp, _ := strings.Cut(s, "e")
	d, err := strconv.ParseInt(strings.Replace(mant, ".", "", 1), 10, 64)
	if err != nil {
		return false
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return false
	}
	for _, c := range []int64{d - 1, d, d + 1} {
		if c <= 0 {
			continue
		}
		cand := strconv.FormatInt(c, 10) + "e" + strconv.Itoa(e-(n-2))
		g, err := strconv.ParseFloat(cand, bitSize)
		if err != nil {
			continue
		}
		if bitSize == 32 {
			if math.Float32bits(float32(g)) == math.Float32bits(float32(x)) {
				return true
			}
			continue
		}
		if math.Float64bits(g) == math.Float64bits(x) {
			return true
		}
	}
	return false
}
