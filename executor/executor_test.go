package executor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := NewPool(4)
	defer p.release()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(100), count.Load())
}

func TestPool_SubmitAfterReleaseFails(t *testing.T) {
	p := NewPool(1)
	p.release()

	err := p.Submit(func() {})
	assert.ErrorIs(t, err, ErrPoolReleased)
}

func TestPool_ReleaseDrainsInFlightTasks(t *testing.T) {
	p := NewPool(2)

	var done atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			done.Add(1)
		}))
	}

	p.release()
	assert.Equal(t, int32(10), done.Load())
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	p := NewPool(1)

	p.release()
	p.release()

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolReleased)
}

func TestNewPool_NonPositiveWorkersFallsBack(t *testing.T) {
	p := NewPool(0)
	defer p.release()

	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(func() {
		defer wg.Done()
		ran.Store(true)
	}))
	wg.Wait()

	assert.True(t, ran.Load())
}

func TestFactory_ReleaseReturnsPool(t *testing.T) {
	f := NewFactory(2)
	p := f.New()

	require.NoError(t, f.Release(p))
	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolReleased)
}

func TestFactory_ReleaseNilPool(t *testing.T) {
	f := NewFactory(2)
	assert.NoError(t, f.Release(nil))
}
