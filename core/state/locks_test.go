package state

import (
	"sync"
	"testing"
)

func TestLocksSerializeSameUser(t *testing.T) {
	locks := NewLocks()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	if n := locks.Len(); n != 0 {
		t.Fatalf("locks left behind: %d", n)
	}
}

func TestLocksIndependentUsers(t *testing.T) {
	locks := NewLocks()
	unlockA := locks.Lock(1)
	done := make(chan struct{})
	go func() {
		locks.Lock(2)()
		close(done)
	}()
	<-done
	if n := locks.Len(); n != 1 {
		t.Fatalf("Len() = %d, want 1", n)
	}
	unlockA()
	if n := locks.Len(); n != 0 {
		t.Fatalf("Len() = %d after unlock", n)
	}
}
