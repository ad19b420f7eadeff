package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockTable_SerialisesPerID(t *testing.T) {
	lt := newLockTable()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lt.Lock("same")
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, lt.size())
}

func TestLockTable_IndependentIDs(t *testing.T) {
	lt := newLockTable()
	unlockA := lt.Lock("a")
	unlockB := lt.Lock("b")
	assert.Equal(t, 2, lt.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, lt.size())
}
