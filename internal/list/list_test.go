package list

import "testing"

func TestAddPreservesInsertionOrder(t *testing.T) {
	l := New[string]()
	l.Add("a")
	l.Add("b")
	l.Add("c")

	if got := l.ToSlice(); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("ToSlice() = %v, want [a b c]", got)
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
}

func TestNextWrapsToHeadAfterExhaustion(t *testing.T) {
	l := New[int]()
	l.Add(1)
	l.Add(2)

	var seen []int
	for i := 0; i < 2; i++ {
		n, ok := l.Next()
		if !ok {
			t.Fatalf("Next() #%d: ok = false, want true", i)
		}
		seen = append(seen, n.Data())
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("seen = %v, want [1 2]", seen)
	}

	// One-past-last: exhausted, distinguishable via ok=false.
	if n, ok := l.Next(); ok || n != nil {
		t.Fatalf("Next() after exhaustion: got (%v, %v), want (nil, false)", n, ok)
	}

	// Wraps back to head on the next call.
	n, ok := l.Next()
	if !ok || n.Data() != 1 {
		t.Fatalf("Next() after wrap: got (%v, %v), want (1, true)", n, ok)
	}
}

func TestResetRewindsCursorWithoutMutatingContents(t *testing.T) {
	l := New[int]()
	l.Add(10)
	l.Add(20)
	l.Next()
	l.Next()
	l.Reset()

	n, ok := l.Next()
	if !ok || n.Data() != 10 {
		t.Fatalf("Next() after Reset() = (%v, %v), want (10, true)", n, ok)
	}
	if l.Len() != 2 {
		t.Fatalf("Len() after Reset() = %d, want 2 (unmodified)", l.Len())
	}
}

func TestRemoveMiddleNodeRelinksNeighbors(t *testing.T) {
	l := New[string]()
	l.Add("a")
	mid := l.Add("b")
	l.Add("c")

	l.Remove(mid)

	if got := l.ToSlice(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("ToSlice() after removing middle = %v, want [a c]", got)
	}
}

func TestRemoveOnlyNodeEmptiesList(t *testing.T) {
	l := New[int]()
	n := l.Add(42)
	l.Remove(n)

	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}
	if _, ok := l.Next(); ok {
		t.Fatal("Next() on empty list returned ok=true")
	}
}

func TestRemoveWithContentInvokesDestroy(t *testing.T) {
	l := New[*int]()
	v := 7
	n := l.Add(&v)

	var destroyed *int
	l.RemoveWithContent(n, func(p *int) { destroyed = p })

	if destroyed != &v {
		t.Fatal("destroy callback was not invoked with the removed node's data")
	}
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}
}

func TestExistDoesNotDisturbIterationCursor(t *testing.T) {
	l := New[string]()
	l.Add("x")
	l.Add("y")
	l.Add("z")

	// Advance the cursor partway through.
	l.Next()

	found, ok := Exist(l, "y", func(data string, target any) bool { return data == target.(string) })
	if !ok || found != "y" {
		t.Fatalf("Exist() = (%v, %v), want (y, true)", found, ok)
	}

	// Cursor should resume exactly where it left off.
	n, ok := l.Next()
	if !ok || n.Data() != "y" {
		t.Fatalf("Next() after Exist() = (%v, %v), want (y, true)", n, ok)
	}
}

func TestDestroyWithContentClearsAllNodes(t *testing.T) {
	l := New[int]()
	l.Add(1)
	l.Add(2)
	l.Add(3)

	var destroyed []int
	l.DestroyWithContent(func(v int) { destroyed = append(destroyed, v) })

	if len(destroyed) != 3 {
		t.Fatalf("destroyed = %v, want 3 elements", destroyed)
	}
	if l.Len() != 0 {
		t.Fatalf("Len() after Destroy = %d, want 0", l.Len())
	}
}
