package stats

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelmon/panelmon/log2"
)

func TestValueDisplay(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "42.5%", Num(42.5, "%").Display("-"))
	assert.Equal(t, "37", Num(37, "").Display("-"))
	assert.Equal(t, "hello", Str("hello").Display("-"))
	assert.Equal(t, "-", None.Display("-"))
	assert.False(t, None.Available())
}

func TestCacheSnapshotIsolation(t *testing.T) {
	t.Parallel()
	c := NewCache()
	c.SetAt("cpu", Num(10, "%"), time.Unix(100, 0))

	snap := c.Snapshot()
	c.SetAt("cpu", Num(20, "%"), time.Unix(200, 0))

	// old snapshot keeps old value
	assert.Equal(t, float64(10), snap["cpu"].Value.Num)
	e, ok := c.Get("cpu")
	require.True(t, ok)
	assert.Equal(t, float64(20), e.Value.Num)
	assert.Equal(t, time.Unix(200, 0), e.Updated)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestPollerWritesCache(t *testing.T) {
	t.Parallel()
	c := NewCache()
	var mu sync.Mutex
	fail := false
	src := &FuncSource{
		SourceKey:    "temp",
		PollInterval: 5 * time.Millisecond,
		ReadFunc: func() (Value, error) {
			mu.Lock()
			defer mu.Unlock()
			if fail {
				return None, fmt.Errorf("sensor gone")
			}
			return Num(55, "C"), nil
		},
	}
	p := NewPoller(src, c, log2.NewTest(t, log2.LError))
	go p.Run()
	defer func() {
		p.Stop()
		<-p.Wait()
	}()

	require.Eventually(t, func() bool {
		e, ok := c.Get("temp")
		return ok && e.Value.Available()
	}, time.Second, time.Millisecond)

	mu.Lock()
	fail = true
	mu.Unlock()
	// failure turns the cached value into Unavailable, not an engine error
	require.Eventually(t, func() bool {
		e, _ := c.Get("temp")
		return !e.Value.Available()
	}, time.Second, time.Millisecond)
}

func TestPollerStop(t *testing.T) {
	t.Parallel()
	c := NewCache()
	src := &FuncSource{
		SourceKey:    "x",
		PollInterval: time.Millisecond,
		ReadFunc:     func() (Value, error) { return Num(1, ""), nil },
	}
	p := NewPoller(src, c, log2.NewTest(t, log2.LError))
	go p.Run()
	p.Stop()
	select {
	case <-p.Wait():
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
