package service

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// keyedMutex hands out one mutex per key. Mutexes are never evicted; the key
// space is bounded by the events and subscribers seen by this process.
type keyedMutex struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: xsync.NewMapOf[string, *sync.Mutex]()}
}

// Lock locks the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	mu, _ := k.locks.LoadOrCompute(key, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	return mu.Unlock
}

func pickupKey(eventID, subscriberID string) string {
	return eventID + "|" + subscriberID
}
