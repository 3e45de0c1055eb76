package claim

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireGrantsAllSeats(t *testing.T) {
	l := NewLedger()
	c, err := l.Acquire(1, "s1", []uint64{3, 1, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, c.SeatIDs, "deduplicated and sorted")
	assert.NotEmpty(t, c.Token)
	assert.True(t, c.ExpiresAt.After(time.Now()))
	assert.Equal(t, []uint64{1, 2, 3}, l.PendingSeatIDs(1))
}

func TestAcquireAllOrNothing(t *testing.T) {
	l := NewLedger()
	_, err := l.Acquire(1, "s1", []uint64{2})
	require.NoError(t, err)

	// s2 wants seats 1-3; seat 2 is taken, so s2 gets nothing at all
	_, err = l.Acquire(1, "s2", []uint64{1, 2, 3})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{2}, conflict.UnavailableIDs)
	assert.Equal(t, []uint64{2}, l.PendingSeatIDs(1), "losing claim must not leave partial holds")
}

func TestAcquireIndependentShowtimes(t *testing.T) {
	l := NewLedger()
	_, err := l.Acquire(1, "s1", []uint64{5})
	require.NoError(t, err)
	_, err = l.Acquire(2, "s2", []uint64{5})
	assert.NoError(t, err, "same seat id under a different showtime never contends")
}

func TestReacquireReplacesPreviousClaim(t *testing.T) {
	l := NewLedger()
	_, err := l.Acquire(1, "s1", []uint64{1, 2})
	require.NoError(t, err)
	_, err = l.Acquire(1, "s1", []uint64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, l.PendingSeatIDs(1), "seat 1 released by the replacement")
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := NewLedger()
	_, err := l.Acquire(1, "s1", []uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, l.Release(1, "s1"))
	assert.Nil(t, l.Release(1, "s1"), "second release frees nothing")
	assert.Empty(t, l.PendingSeatIDs(1))
}

func TestExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	l := NewLedger(WithTTL(time.Minute), WithClock(func() time.Time { return clock() }))

	_, err := l.Acquire(1, "s1", []uint64{7})
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, l.PendingSeatIDs(1))

	now = now.Add(2 * time.Minute)
	assert.Empty(t, l.PendingSeatIDs(1), "lapsed claim is invisible")
	assert.Equal(t, 0, l.ReleaseExpired(), "lazy drop already released it")

	// once free, another session can take the seat
	_, err = l.Acquire(1, "s2", []uint64{7})
	assert.NoError(t, err)
}

func TestReleaseExpiredIdempotent(t *testing.T) {
	now := time.Now()
	l := NewLedger(WithTTL(time.Minute), WithClock(func() time.Time { return now }))
	_, err := l.Acquire(1, "s1", []uint64{1})
	require.NoError(t, err)
	_, err = l.Acquire(2, "s2", []uint64{1})
	require.NoError(t, err)

	now = now.Add(time.Hour)
	assert.Equal(t, 2, l.ReleaseExpired())
	assert.Equal(t, 0, l.ReleaseExpired(), "expiry must fire exactly once per claim")
}

func TestSessionClaim(t *testing.T) {
	l := NewLedger()
	granted, err := l.Acquire(1, "s1", []uint64{4})
	require.NoError(t, err)
	got, ok := l.SessionClaim(1, "s1")
	require.True(t, ok)
	assert.Equal(t, granted.Token, got.Token)
	_, ok = l.SessionClaim(1, "s2")
	assert.False(t, ok)
}

// Two sessions race for the same seat: exactly one wins and the loser's
// conflict names the seat.
func TestConcurrentClaimRace(t *testing.T) {
	l := NewLedger()
	const seat = uint64(42)
	const attempts = 64

	var wg sync.WaitGroup
	results := make([]error, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := l.Acquire(9, fmt.Sprintf("session-%d", i), []uint64{seat})
			results[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Contains(t, conflict.UnavailableIDs, seat)
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, []uint64{seat}, l.PendingSeatIDs(9))
}

// Disjoint seat sets in one showtime all succeed under concurrency.
func TestConcurrentDisjointClaims(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			base := uint64(i*2 + 1)
			_, err := l.Acquire(3, "s"+string(rune('0'+i)), []uint64{base, base + 1})
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "claim %d", i)
	}
	assert.Len(t, l.PendingSeatIDs(3), 20)
}
