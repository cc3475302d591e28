package cancel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsSecondTask(t *testing.T) {
	c := NewController()

	h, err := c.Register("s1", "thinking")
	require.NoError(t, err)
	assert.Equal(t, "s1", h.SessionID)

	_, err = c.Register("s1", "again")
	assert.ErrorIs(t, err, ErrTaskRunning)

	_, err = c.Register("s2", "other session")
	assert.NoError(t, err)

	c.Finish(h)
	_, err = c.Register("s1", "after finish")
	assert.NoError(t, err)
}

func TestCancelWithNothingRunning(t *testing.T) {
	c := NewController()
	assert.False(t, c.RequestCancel("nobody"))
	assert.False(t, c.IsCancelled("nobody"))
	_, running := c.Status("nobody")
	assert.False(t, running)
}

func TestCancelIsCooperative(t *testing.T) {
	c := NewController()
	h, err := c.Register("s1", "bulk delete")
	require.NoError(t, err)

	assert.True(t, c.RequestCancel("s1"))
	assert.True(t, h.IsCancelled())
	assert.True(t, c.IsCancelled("s1"))

	// Still registered until the owner observes the flag and finishes.
	st, running := c.Status("s1")
	assert.True(t, running)
	assert.True(t, st.Cancelled)
	assert.Equal(t, "bulk delete", st.Description)

	c.Finish(h)
	assert.False(t, c.IsRunning("s1"))
}

func TestFinishIgnoresStaleHandle(t *testing.T) {
	c := NewController()
	old, _ := c.Register("s1", "old")
	c.Clear("s1")
	assert.True(t, old.IsCancelled())

	fresh, err := c.Register("s1", "fresh")
	require.NoError(t, err)

	c.Finish(old)
	assert.True(t, c.IsRunning("s1"))
	c.Finish(fresh)
	assert.False(t, c.IsRunning("s1"))
}

func TestConcurrentRegisterAdmitsOne(t *testing.T) {
	c := NewController()
	var admitted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Register("same", "race"); err == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted)
}
