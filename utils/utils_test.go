package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
)

// ============================================================================
// ZERO-ALLOCATION TYPE CONVERSION TESTS
// ============================================================================

func TestB2s(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "Empty slice", input: []byte{}, expected: ""},
		{name: "Nil slice", input: nil, expected: ""},
		{name: "ASCII", input: []byte("fifo"), expected: "fifo"},
		{name: "Unicode", input: []byte("測試"), expected: "測試"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := B2s(tt.input); got != tt.expected {
				t.Errorf("B2s(%v) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestB2s_ZeroAllocation(t *testing.T) {
	input := []byte("zero-copy")
	allocs := testing.AllocsPerRun(1000, func() {
		_ = B2s(input)
	})
	if allocs > 0 {
		t.Errorf("B2s() allocated memory: %f allocs/op", allocs)
	}
}

// ============================================================================
// NUMBER FORMATTING TESTS
// ============================================================================

func TestItoa(t *testing.T) {
	cases := []int{0, 5, 42, 123, 987654321, 2147483647, -1, -9000, math.MaxInt64}
	for _, n := range cases {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			if got, want := Itoa(n), strconv.Itoa(n); got != want {
				t.Errorf("Itoa(%d) = %q, strconv.Itoa = %q", n, got, want)
			}
		})
	}
}

func TestUtoa_EdgeCases(t *testing.T) {
	cases := []uint64{1, 9, 10, 99, 100, 999, 1000, math.MaxUint64}
	for _, n := range cases {
		t.Run(fmt.Sprintf("boundary_%d", n), func(t *testing.T) {
			if got, want := Utoa(n), strconv.FormatUint(n, 10); got != want {
				t.Errorf("Utoa(%d) = %q, expected %q", n, got, want)
			}
		})
	}
}

func TestItoa_ZeroAllocation(t *testing.T) {
	allocs := testing.AllocsPerRun(1000, func() {
		_ = Itoa(12345)
	})
	if allocs > 1 { // one allocation for the string itself
		t.Errorf("Itoa() should minimize allocations: %f allocs/op", allocs)
	}
}

func TestBtoa(t *testing.T) {
	tests := []struct {
		n        uint64
		width    int
		expected string
	}{
		{0, 4, "0000"},
		{5, 4, "0101"},
		{0b11000, 5, "11000"},
		{0xff, 3, "111"},
		{1, 0, ""},
		{math.MaxUint64, 70, strings.Repeat("1", 64)},
	}
	for _, tt := range tests {
		if got := Btoa(tt.n, tt.width); got != tt.expected {
			t.Errorf("Btoa(%d, %d) = %q, expected %q", tt.n, tt.width, got, tt.expected)
		}
	}
}

// ============================================================================
// RAW OUTPUT TESTS
// ============================================================================

func TestPrintWarning(t *testing.T) {
	// stderr is not captured; the call must simply not panic.
	for _, msg := range []string{"", "warning: test\n", strings.Repeat("long ", 100) + "\n"} {
		PrintWarning(msg)
	}
}

func TestPrintWarning_ZeroAllocation(t *testing.T) {
	msg := ""
	allocs := testing.AllocsPerRun(100, func() {
		PrintWarning(msg)
	})
	if allocs > 0 {
		t.Errorf("PrintWarning() allocated memory: %f allocs/op", allocs)
	}
}

func BenchmarkItoa(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Itoa(i)
	}
}
