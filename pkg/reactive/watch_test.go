package reactive

import "testing"

func TestCallbackFiresPerNotification(t *testing.T) {
	count := NewSignal(0)
	fired := 0

	cb := NewCallback(func() { fired++ })
	WithListener(cb, func() {
		_ = count.Get()
	})

	count.Set(1)
	count.Set(2)
	if fired != 2 {
		t.Errorf("expected 2 callback invocations, got %d", fired)
	}
}

func TestCallbackOncePerBatch(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)
	fired := 0

	cb := NewCallback(func() { fired++ })
	WithListener(cb, func() {
		_ = a.Get()
		_ = b.Get()
	})

	Batch(func() {
		a.Set(1)
		b.Set(2)
	})

	if fired != 1 {
		t.Errorf("expected 1 callback invocation per batch, got %d", fired)
	}
}

func TestWatchRunsImmediately(t *testing.T) {
	count := NewSignal(10)
	var seen []int

	Watch(func() {
		seen = append(seen, count.Get())
	})

	if len(seen) != 1 || seen[0] != 10 {
		t.Errorf("expected initial run with value 10, got %v", seen)
	}
}

func TestWatchRerunsOnChange(t *testing.T) {
	count := NewSignal(0)
	var seen []int

	Watch(func() {
		seen = append(seen, count.Get())
	})

	count.Set(1)
	count.Set(2)

	want := []int{0, 1, 2}
	if len(seen) != len(want) {
		t.Fatalf("expected %d runs, got %d (%v)", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %d, got %d", i, want[i], seen[i])
		}
	}
}

func TestWatchRetracksConditionalReads(t *testing.T) {
	useFirst := NewSignal(true)
	first := NewSignal("a")
	second := NewSignal("b")
	runs := 0

	Watch(func() {
		runs++
		if useFirst.Get() {
			_ = first.Get()
		} else {
			_ = second.Get()
		}
	})

	// Initially watching useFirst + first; second is untracked
	second.Set("bb")
	if runs != 1 {
		t.Errorf("change to untracked signal should not re-run, got %d runs", runs)
	}

	// Switch the branch; now second is tracked and first is not
	useFirst.Set(false)
	if runs != 2 {
		t.Fatalf("expected re-run after branch switch, got %d runs", runs)
	}

	first.Set("aa")
	if runs != 2 {
		t.Errorf("change to stale dependency should not re-run, got %d runs", runs)
	}

	second.Set("bbb")
	if runs != 3 {
		t.Errorf("expected re-run on new dependency, got %d runs", runs)
	}
}

func TestWatchStop(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	w := Watch(func() {
		runs++
		_ = count.Get()
	})

	w.Stop()
	count.Set(1)

	if runs != 1 {
		t.Errorf("stopped watcher should not re-run, got %d runs", runs)
	}
}

func TestWatchBatchedRunsOnce(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)
	runs := 0

	Watch(func() {
		runs++
		_ = a.Get()
		_ = b.Get()
	})

	Batch(func() {
		a.Set(1)
		b.Set(1)
	})

	if runs != 2 {
		t.Errorf("expected initial run + 1 batched re-run, got %d runs", runs)
	}
}
