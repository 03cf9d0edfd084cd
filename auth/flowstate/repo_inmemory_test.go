package flowstate_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-field-analyzer/auth/flowstate"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestInMemoryRepo(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := flowstate.NewInMemoryRepo(10*time.Minute, flowstate.WithNowTime(clock.Now))

	t.Run("upsert and get copy", func(t *testing.T) {
		flow := &flowstate.FlowState{CodeVerifier: "v1", ClientID: "client"}
		require.NoError(t, repo.Upsert("ctx-1", flow))
		flow.CodeVerifier = "mutated"

		got, err := repo.Get("ctx-1")
		require.NoError(t, err)
		require.Equal(t, "v1", got.CodeVerifier)
		require.Equal(t, clock.now, got.CreatedAt)

		got.CodeVerifier = "mutated again"
		again, err := repo.Get("ctx-1")
		require.NoError(t, err)
		require.Equal(t, "v1", again.CodeVerifier)
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		require.NoError(t, repo.Upsert("ctx-1", &flowstate.FlowState{CodeVerifier: "v2"}))
		got, err := repo.Get("ctx-1")
		require.NoError(t, err)
		require.Equal(t, "v2", got.CodeVerifier)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete("ctx-1"))
		_, err := repo.Get("ctx-1")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
		require.NoError(t, repo.Delete("ctx-1"))
	})

	t.Run("take removes", func(t *testing.T) {
		require.NoError(t, repo.Upsert("ctx-1", &flowstate.FlowState{CodeVerifier: "v5"}))
		got, err := repo.Take("ctx-1")
		require.NoError(t, err)
		require.Equal(t, "v5", got.CodeVerifier)

		_, err = repo.Take("ctx-1")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
		_, err = repo.Get("ctx-1")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
	})

	t.Run("take of an expired flow", func(t *testing.T) {
		require.NoError(t, repo.Upsert("ctx-4", &flowstate.FlowState{CodeVerifier: "v6"}))
		clock.now = clock.now.Add(11 * time.Minute)
		_, err := repo.Take("ctx-4")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, repo.Upsert("ctx-2", &flowstate.FlowState{CodeVerifier: "v3"}))
		require.Equal(t, 1, repo.Len())

		clock.now = clock.now.Add(11 * time.Minute)
		_, err := repo.Get("ctx-2")
		require.ErrorIs(t, err, flowstate.ErrNotFound)
		require.Equal(t, 0, repo.Len())

		// Expired entries are purged on the next write.
		require.NoError(t, repo.Upsert("ctx-3", &flowstate.FlowState{CodeVerifier: "v4"}))
		require.Equal(t, 1, repo.Len())
	})

	t.Run("empty key", func(t *testing.T) {
		require.Error(t, repo.Upsert("", &flowstate.FlowState{}))
		_, err := repo.Get("")
		require.Error(t, err)
		require.Error(t, repo.Delete(""))
		_, err = repo.Take("")
		require.Error(t, err)
	})
}

func TestTakeHandsOutAFlowOnce(t *testing.T) {
	repo := flowstate.NewInMemoryRepo(time.Minute)
	require.NoError(t, repo.Upsert("ctx-1", &flowstate.FlowState{CodeVerifier: "v1"}))

	var (
		wg    sync.WaitGroup
		taken int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Take("ctx-1"); err == nil {
				atomic.AddInt32(&taken, 1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), taken)
}
