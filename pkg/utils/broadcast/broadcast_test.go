package broadcast

import (
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("no message within a second")
		return 0
	}
}

func TestBroadcastServer_FanOut(t *testing.T) {
	source := make(chan int)
	srv := NewBroadcastServer("test", source)
	defer srv.Close()

	a := srv.Subscribe()
	b := srv.Subscribe()

	go func() { source <- 42 }()
	if got := recv(t, a); got != 42 {
		t.Errorf("listener a = %d, want 42", got)
	}
	if got := recv(t, b); got != 42 {
		t.Errorf("listener b = %d, want 42", got)
	}
}

func TestBroadcastServer_CancelSubscription(t *testing.T) {
	source := make(chan int)
	srv := NewBroadcastServer("test", source)
	defer srv.Close()

	a := srv.Subscribe()
	b := srv.Subscribe()
	srv.CancelSubscription(a)
	if _, open := <-a; open {
		t.Error("cancelled subscription channel still open")
	}

	go func() { source <- 7 }()
	if got := recv(t, b); got != 7 {
		t.Errorf("remaining listener = %d, want 7", got)
	}
}

func TestBroadcastServer_SkipsStuckListener(t *testing.T) {
	source := make(chan int)
	srv := NewBroadcastServer("test", source)
	defer srv.Close()

	stuck := srv.Subscribe()
	_ = stuck // never read from
	live := srv.Subscribe()

	go func() {
		source <- 1
		source <- 2
	}()
	// the stuck listener is skipped after its timeout, the live one keeps
	// receiving in order
	if got := recv(t, live); got != 1 {
		t.Errorf("live listener = %d, want 1", got)
	}
	if got := recv(t, live); got != 2 {
		t.Errorf("live listener = %d, want 2", got)
	}
}
