package ring

import "testing"

// TestNewPanicsOnBadSize verifies that the constructor rejects sizes that are
// either non-power-of-two or <= 0.  Each call is wrapped in a closure so the
// panic can be recovered and inspected.
func TestNewPanicsOnBadSize(t *testing.T) {
	bad := []int{-4, 0, 3, 1000}
	for _, sz := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d) should panic", sz)
				}
			}()
			_ = New[int](sz)
		}()
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[int]bool{-2: false, 0: false, 1: true, 2: true, 6: false, 16: true, 1 << 20: true}
	for n, want := range cases {
		if got := IsPowerOfTwo(n); got != want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestWriteRead(t *testing.T) {
	r := New[[32]byte](8)
	val := [32]byte{1, 2, 3}
	r.Write(5, val)
	if got := r.Read(5); got != val {
		t.Fatalf("got %v, want %v", got, val)
	}
	if r.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", r.Len())
	}
}

// TestIndexMasking writes through extended counters that carry a lap bit and
// checks they alias the same slot as their low bits.
func TestIndexMasking(t *testing.T) {
	const size = 4
	r := New[int](size)
	for i := uint64(0); i < 4*size; i++ {
		r.Write(i, int(i))
		if got := r.Read(i & (size - 1)); got != int(i) {
			t.Fatalf("index %d: slot %d holds %d", i, i&(size-1), got)
		}
	}
}
