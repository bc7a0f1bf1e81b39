package locks

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWithLockSerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	var running int32
	var maxConcurrent int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.WithLock("acme-api-1", func() {
				n := atomic.AddInt32(&running, 1)
				for {
					cur := atomic.LoadInt32(&maxConcurrent)
					if n <= cur || atomic.CompareAndSwapInt32(&maxConcurrent, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&running, -1)
			})
		}()
	}
	wg.Wait()

	if maxConcurrent != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxConcurrent)
	}
}

func TestWithLockAllowsDifferentKeysConcurrently(t *testing.T) {
	k := NewKeyedMutex()
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var wg sync.WaitGroup

	for _, key := range []string{"a-1", "b-2"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			k.WithLock(key, func() {
				started <- struct{}{}
				<-release
			})
		}(key)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("expected both distinct-key holders to start concurrently")
		}
	}
	close(release)
	wg.Wait()
}
