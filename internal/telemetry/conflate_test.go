package telemetry

import "testing"

func TestConflated_KeepsLatest(t *testing.T) {
	c := newConflated[int]()
	for i := 1; i <= 5; i++ {
		c.Offer(i)
	}
	v, ok := c.Poll()
	if !ok || v != 5 {
		t.Fatalf("expected 5, got %d (ok=%v)", v, ok)
	}
	if _, ok := c.Poll(); ok {
		t.Error("expected empty channel after poll")
	}
}

func TestConflated_ReceiveFromC(t *testing.T) {
	c := newConflated[string]()
	c.Offer("a")
	c.Offer("b")
	select {
	case v := <-c.C():
		if v != "b" {
			t.Errorf("expected b, got %q", v)
		}
	default:
		t.Fatal("expected a pending value")
	}
}
