package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalLockerExcludesHoldersOfSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "unit-a")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Empty(t, l.slots)
}

func TestLocalLockerKeysAreIndependent(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "unit-a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(ctx, "unit-b")
	require.NoError(t, err)
	unlockB()
	unlockB()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker()

	unlock, err := l.Lock(context.Background(), "unit-a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "unit-a")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	unlock()
	again, err := l.Lock(context.Background(), "unit-a")
	require.NoError(t, err)
	again()
}

func newMockLocker(t *testing.T) (*RedisLocker, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	l := NewRedisLocker(client, 30*time.Second, 200*time.Millisecond, zap.NewNop())
	l.retry = 10 * time.Millisecond
	l.newToken = func() string { return "token-1" }
	return l, mock
}

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	l, mock := newMockLocker(t)

	mock.ExpectSetNX("booking:lock:unit-a", "token-1", 30*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"booking:lock:unit-a"}, "token-1").SetVal(int64(1))

	unlock, err := l.Lock(context.Background(), "unit-a")
	require.NoError(t, err)
	unlock()
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerRetriesUntilFree(t *testing.T) {
	l, mock := newMockLocker(t)

	mock.ExpectSetNX("booking:lock:unit-a", "token-1", 30*time.Second).SetVal(false)
	mock.ExpectSetNX("booking:lock:unit-a", "token-1", 30*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"booking:lock:unit-a"}, "token-1").SetVal(int64(1))

	unlock, err := l.Lock(context.Background(), "unit-a")
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerReportsBackendErrors(t *testing.T) {
	l, mock := newMockLocker(t)

	mock.ExpectSetNX("booking:lock:unit-a", "token-1", 30*time.Second).SetErr(errors.New("connection refused"))

	_, err := l.Lock(context.Background(), "unit-a")
	assert.ErrorContains(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}
