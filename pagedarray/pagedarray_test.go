package pagedarray

import "testing"

func TestAppendAndGet(t *testing.T) {
	p := New[int](4)
	var indices []int
	for i := 0; i < 17; i++ {
		indices = append(indices, p.Append(i*10))
	}
	if p.Len() != 17 {
		t.Fatalf("Len() = %d, want 17", p.Len())
	}
	for i, idx := range indices {
		got := p.Get(idx)
		if got == nil || *got != i*10 {
			t.Fatalf("Get(%d) = %v, want %d", idx, got, i*10)
		}
	}
}

func TestStableAddressAcrossGrowth(t *testing.T) {
	p := New[string](2)
	idx := p.Append("first")
	ptr := p.Get(idx)
	for i := 0; i < 50; i++ {
		p.Append("filler")
	}
	if p.Get(idx) != ptr {
		t.Fatalf("address of element %d changed after growth", idx)
	}
	if *ptr != "first" {
		t.Fatalf("value at stable address changed: got %q", *ptr)
	}
}

func TestGetOutOfRange(t *testing.T) {
	p := New[int](4)
	p.Append(1)
	if p.Get(-1) != nil {
		t.Errorf("Get(-1) should be nil")
	}
	if p.Get(5) != nil {
		t.Errorf("Get(5) should be nil")
	}
}
