package utils

import (
	"os"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities - Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

///////////////////////////////////////////////////////////////////////////////
// Number Formatting - For Log Lines Without fmt
///////////////////////////////////////////////////////////////////////////////

// Itoa formats n in base 10 with a single allocation for the result.
func Itoa(n int) string {
	if n < 0 {
		return "-" + Utoa(uint64(-n))
	}
	return Utoa(uint64(n))
}

// Utoa formats n in base 10.
func Utoa(n uint64) string {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return string(buf[i:])
}

// Btoa renders the low width bits of n as a binary string, MSB first.  Used
// to show Gray-coded counters in diagnostics.
func Btoa(n uint64, width int) string {
	if width <= 0 {
		return ""
	}
	if width > 64 {
		width = 64
	}
	buf := make([]byte, width)
	for i := 0; i < width; i++ {
		buf[width-1-i] = byte('0' + (n>>uint(i))&1)
	}
	return B2s(buf)
}

///////////////////////////////////////////////////////////////////////////////
// Raw Output - Direct Writes To The Standard Streams
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg to stderr without formatting or allocation.
//
//go:nosplit
func PrintWarning(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}
