package auth

import (
	"context"
	"testing"
	"time"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryState_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryState(clock.Now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Set(ctx, "forever", []byte("x"), 0))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	clock.Advance(time.Minute)
	_, ok, _ = s.Get(ctx, "k")
	assert.True(t, ok, "entry is live at exactly its TTL")

	clock.Advance(time.Nanosecond)
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len(), "expired entry dropped on access")

	clock.Advance(1000 * time.Hour)
	_, ok, _ = s.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemoryState_CopiesValues(t *testing.T) {
	s := NewMemoryState(nil)
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf, 0))
	buf[0] = 'z'

	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))

	v[1] = 'z'
	again, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryState_Delete(t *testing.T) {
	s := NewMemoryState(nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "missing"))

	_, ok, _ := s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryState_Concurrent(t *testing.T) {
	s := NewMemoryState(nil)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				_ = s.Set(ctx, "shared", []byte{byte(j)}, time.Minute)
				_, _, _ = s.Get(ctx, "shared")
				_ = s.Delete(ctx, "shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestNewRedisState_Unreachable(t *testing.T) {
	_, err := NewRedisState(config.AuthStateConfig{
		Backend:   config.BackendRedis,
		RedisAddr: "127.0.0.1:1",
		KeyPrefix: "test:",
	}, zap.NewNop())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
	assert.True(t, domain.IsRetryable(err))
}
