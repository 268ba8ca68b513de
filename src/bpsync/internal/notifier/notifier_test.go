package notifier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPublishSubscribe(t *testing.T) {
	b := New[int](4)
	defer b.Close()

	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()
	assert.Equal(t, 2, b.Len())

	b.Publish(1)
	b.Publish(2)
	assert.Equal(t, 1, <-first)
	assert.Equal(t, 2, <-first)
	assert.Equal(t, 1, <-second)
	assert.Equal(t, 2, <-second)

	cancelFirst()
	cancelFirst()
	_, ok := <-first
	assert.False(t, ok, "channel closed after cancel")
	assert.Equal(t, 1, b.Len())
}

func TestDropOldest(t *testing.T) {
	b := New[int](2)
	defer b.Close()

	ch, cancel := b.Subscribe()
	defer cancel()
	for i := 0; i < 5; i++ {
		b.Publish(i)
	}

	assert.Equal(t, 3, <-ch)
	assert.Equal(t, 4, <-ch)
	assert.Equal(t, uint64(3), b.Dropped())
}

func TestClose(t *testing.T) {
	b := New[string](0)
	ch, cancel := b.Subscribe()
	b.Close()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
	assert.NotPanics(t, cancel)
	assert.NotPanics(t, func() { b.Publish("late") })

	late, cancelLate := b.Subscribe()
	defer cancelLate()
	_, ok = <-late
	assert.False(t, ok, "subscriptions after close are already closed")
	assert.Equal(t, 0, b.Len())
}

func TestConcurrentPublish(t *testing.T) {
	b := New[int](1000)
	ch, cancel := b.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(i*100 + j)
			}
		}(i)
	}
	wg.Wait()
	cancel()

	n := 0
	for range ch {
		n++
	}
	require.Equal(t, 500, n)
	b.Close()
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
