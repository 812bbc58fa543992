package jfmt

import (
	"math"
	"testing"
)

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-7, "-7"},
		{100, "100"},
		{math.MinInt8, "-128"},
		{math.MaxInt8, "127"},
		{math.MinInt16, "-32768"},
		{math.MaxInt16, "32767"},
		{math.MinInt32, "-2147483648"},
		{math.MaxInt32, "2147483647"},
		{math.MinInt64, "-9223372036854775808"},
		{math.MaxInt64, "9223372036854775807"},
	}
	for _, test := range tests {
		if got := FormatInt(test.in); got != test.want {
			t.Fatalf("FormatInt(%d) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestFormatBool(t *testing.T) {
	if FormatBool(true) != "true" || FormatBool(false) != "false" {
		t.Fatalf("unexpected bool literals")
	}
	if got := string(AppendBool([]byte("x="), true)); got != "x=true" {
		t.Fatalf("append bool: %q", got)
	}
}

func TestFormatChar(t *testing.T) {
	tests := []struct {
		in   rune
		want string
	}{
		{'a', "a"},
		{'\n', "\n"},
		{'é', "é"},
		{'€', "€"},
		{0xD800, "�"},
		{-1, "�"},
	}
	for _, test := range tests {
		if got := FormatChar(test.in); got != test.want {
			t.Fatalf("FormatChar(%U) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestAppendIntKeepsPrefix(t *testing.T) {
	got := string(AppendInt([]byte("n="), -42))
	if got != "n=-42" {
		t.Fatalf("got %q", got)
	}
}
