package addr_test

import (
	"testing"

	"github.com/tinyrange/vpager/internal/addr"
)

func testSpace() addr.Space {
	return addr.Space{Base: 0x0000600000, Max: 0x0000600000 + 4096*64 - 1, PageSize: 4096}
}

func TestIndexVAddrRoundTrip(t *testing.T) {
	s := testSpace()

	for i := uint64(0); i < 10; i++ {
		v := s.VAddr(i)
		if got := s.Index(v); got != i {
			t.Fatalf("Index(VAddr(%d)) = %d, want %d", i, got, i)
		}
	}
}

func TestNormalize(t *testing.T) {
	s := testSpace()

	base := s.VAddr(3)
	for off := uint64(0); off < s.PageSize; off++ {
		if got := s.Normalize(base + off); got != base {
			t.Fatalf("Normalize(%#x) = %#x, want %#x", base+off, got, base)
		}
	}
}

func TestContainsBoundaries(t *testing.T) {
	s := testSpace()

	if !s.Contains(s.Base) {
		t.Errorf("Contains(Base) = false, want true")
	}
	if !s.Contains(s.Max) {
		t.Errorf("Contains(Max) = false, want true")
	}
	if s.Contains(s.Base - 1) {
		t.Errorf("Contains(Base-1) = true, want false")
	}
	if s.Contains(s.Max + 1) {
		t.Errorf("Contains(Max+1) = true, want false")
	}
}

func TestNumPages(t *testing.T) {
	s := testSpace()
	if got, want := s.NumPages(), uint64(64); got != want {
		t.Errorf("NumPages() = %d, want %d", got, want)
	}
}

func TestOffset(t *testing.T) {
	s := testSpace()
	v := s.VAddr(2) + 17
	if got := s.Offset(v); got != 17 {
		t.Errorf("Offset(%#x) = %d, want 17", v, got)
	}
}
