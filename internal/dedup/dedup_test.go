package dedup

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateAdmitSequence(t *testing.T) {
	gate := NewGate(NewMemoryStore())

	assert.True(t, gate.Admit("123"), "first occurrence accepted")
	assert.False(t, gate.Admit("123"), "repeat rejected")
	assert.True(t, gate.Admit("456"), "different id accepted")
	assert.False(t, gate.Admit("123"), "still rejected on third delivery")
}

func TestGateEmptyIDBypassesDedup(t *testing.T) {
	gate := NewGate(NewMemoryStore())

	assert.True(t, gate.Admit(""))
	assert.True(t, gate.Admit(""), "records without an id are never mutually duplicate")
	assert.True(t, gate.Admit("real-id"), "bypass does not pollute the store")
}

type failingStore struct{}

func (failingStore) Admit(string) (bool, error) {
	return false, fmt.Errorf("backend down")
}

func TestGateFailsOpenOnStoreError(t *testing.T) {
	gate := NewGate(failingStore{})
	assert.True(t, gate.Admit("123"), "a broken store must not stop lead flow")
}

func TestMemoryStoreConcurrentAdmit(t *testing.T) {
	gate := NewGate(NewMemoryStore())

	var accepted int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.Admit("contended-id") {
				atomic.AddInt64(&accepted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), accepted, "exactly one concurrent delivery of an id may pass")
}

func TestGormStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.db")

	store, err := NewGormStore(path)
	require.NoError(t, err)

	ok, err := store.Admit("123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Admit("123")
	require.NoError(t, err)
	assert.False(t, ok)

	// Ids survive reopening the database.
	reopened, err := NewGormStore(path)
	require.NoError(t, err)
	ok, err = reopened.Admit("123")
	require.NoError(t, err)
	assert.False(t, ok, "persistent store remembers ids across restarts")

	ok, err = reopened.Admit("456")
	require.NoError(t, err)
	assert.True(t, ok)
}
