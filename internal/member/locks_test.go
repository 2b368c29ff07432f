package member

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func (l *Locks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}

func TestLocks_SameMemberWaits(t *testing.T) {
	locks := NewLocks()
	unlock := locks.Lock("m1")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("m1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder got the lock while the first still held it")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not handed over")
	}
}

func TestLocks_OtherMembersDoNotWait(t *testing.T) {
	locks := NewLocks()
	unlock := locks.Lock("m1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		locks.Lock("m2")()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("m2 waited on m1")
	}
}

func TestLocks_ForgetsReleasedMembers(t *testing.T) {
	locks := NewLocks()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("m1")()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, locks.held())
}
