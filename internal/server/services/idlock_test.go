package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDLock_MutualExclusionPerID(t *testing.T) {
	l := newIDLock()

	const workers = 16
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			release := l.acquire("same-id")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestIDLock_ReleaseIsIdempotent(t *testing.T) {
	l := newIDLock()

	release := l.acquire("id")
	release()
	release() // second call must not unlock someone else's acquisition

	release2 := l.acquire("id")
	release2()
}

func TestIDLock_EntriesAreReclaimed(t *testing.T) {
	l := newIDLock()

	for i := 0; i < 100; i++ {
		release := l.acquire("id")
		release()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks, "released entries must not accumulate")
}

func TestIDLock_DifferentIDsDoNotBlock(t *testing.T) {
	l := newIDLock()

	releaseA := l.acquire("a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB := l.acquire("b")
		releaseB()
		close(done)
	}()

	<-done // would deadlock if ids shared a lock
}
