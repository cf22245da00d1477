package shutdown

import "testing"

func TestShutdownFiresInRegistrationOrder(t *testing.T) {
	c := New()
	var order []int
	c.Register(func() { order = append(order, 1) })
	c.Register(func() { order = append(order, 2) })
	c.Register(func() { order = append(order, 3) })

	c.Shutdown()

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	c := New()
	calls := 0
	c.Register(func() { calls++ })

	c.Shutdown()
	c.Shutdown()
	c.Shutdown()

	if calls != 1 {
		t.Fatalf("expected the handler to fire exactly once, got %d", calls)
	}
}

func TestRegisterAfterShutdownRunsImmediately(t *testing.T) {
	c := New()
	c.Shutdown()

	ran := false
	c.Register(func() { ran = true })

	if !ran {
		t.Fatalf("expected a late registration to run immediately")
	}
}
