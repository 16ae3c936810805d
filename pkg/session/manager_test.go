package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/vfxbridge/pkg/adapters/redis"
	"github.com/aretw0/vfxbridge/pkg/ports"
	"github.com/aretw0/vfxbridge/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestManager_LockLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)
	mgr := session.NewManager()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		path := fmt.Sprintf("Assets/VFX/%d.vfx", i)
		require.NoError(t, mgr.WithLock(ctx, path, func(context.Context) error { return nil }))
	}

	assert.Zero(t, mgr.Active(), "idle paths must not keep locks")
}

func TestManager_SerializesSamePath(t *testing.T) {
	defer goleak.VerifyNone(t)
	mgr := session.NewManager()
	ctx := context.Background()

	var inside, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "Assets/VFX/Same.vfx", func(context.Context) error {
				n := inside.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Zero(t, mgr.Active())
}

func TestManager_DifferentPathsInParallel(t *testing.T) {
	defer goleak.VerifyNone(t)
	mgr := session.NewManager()
	ctx := context.Background()

	// Each holder waits for the other to enter; serialization would deadlock.
	var entered sync.WaitGroup
	entered.Add(2)
	errs := make(chan error, 2)
	for _, path := range []string{"a.vfx", "b.vfx"} {
		go func(path string) {
			errs <- mgr.WithLock(ctx, path, func(context.Context) error {
				entered.Done()
				entered.Wait()
				return nil
			})
		}(path)
	}

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("different paths were serialized")
		}
	}
}

func TestManager_PropagatesError(t *testing.T) {
	defer goleak.VerifyNone(t)
	mgr := session.NewManager()
	boom := errors.New("boom")
	err := mgr.WithLock(context.Background(), "a.vfx", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, mgr.Active())
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("unavailable")
}

func TestManager_LockerFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	mgr := session.NewManager(session.WithLocker(failingLocker{}))
	called := false
	err := mgr.WithLock(context.Background(), "a.vfx", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "failed to acquire distributed lock for a.vfx")
	assert.False(t, called)
	assert.Zero(t, mgr.Active())
}

func TestManager_DistributedLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := redis.NewLocker(client, redis.DefaultPrefix)
	mgr := session.NewManager(session.WithLocker(locker), session.WithTTL(time.Minute))

	err := mgr.WithLock(context.Background(), "Assets/VFX/A.vfx", func(context.Context) error {
		assert.True(t, mr.Exists(redis.DefaultPrefix+"lock:Assets/VFX/A.vfx"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(redis.DefaultPrefix+"lock:Assets/VFX/A.vfx"), "lock released")
}
