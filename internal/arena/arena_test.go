package arena

import "testing"

func TestAllocReturnsStableIndex(t *testing.T) {
	a := New[string]()
	i1 := a.Alloc("first")
	i2 := a.Alloc("second")

	if got := *a.Get(i1); got != "first" {
		t.Errorf("Get(i1) = %q, want %q", got, "first")
	}
	if got := *a.Get(i2); got != "second" {
		t.Errorf("Get(i2) = %q, want %q", got, "second")
	}
	if i1 == i2 {
		t.Errorf("expected distinct indices, got %d == %d", i1, i2)
	}
}

func TestGetNoneIsNil(t *testing.T) {
	a := New[int]()
	if a.Get(None) != nil {
		t.Errorf("Get(None) should be nil")
	}
}

func TestMutationThroughPointerPersists(t *testing.T) {
	type rec struct{ n int }
	a := New[rec]()
	i := a.Alloc(rec{n: 1})
	a.Get(i).n = 42
	if got := a.Get(i).n; got != 42 {
		t.Errorf("after mutation, n = %d, want 42", got)
	}
}

func TestAllReflectsGrowth(t *testing.T) {
	a := New[int]()
	a.Alloc(1)
	a.Alloc(2)
	a.Alloc(3)
	if got := len(a.All()); got != 3 {
		t.Errorf("All() len = %d, want 3", got)
	}
	if got := a.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}
