package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seatgrid/seatgrid/internal/claim"
	"github.com/seatgrid/seatgrid/internal/reconcile"
)

// MockClaimer is a mock implementation of SeatClaimer.
type MockClaimer struct {
	mock.Mock
}

func (m *MockClaimer) Claim(ctx context.Context, showtimeID uint64, sessionID string, seatIDs []uint64) (claim.Claim, error) {
	args := m.Called(ctx, showtimeID, sessionID, seatIDs)
	return args.Get(0).(claim.Claim), args.Error(1)
}

func (m *MockClaimer) Release(ctx context.Context, showtimeID uint64, sessionID string) error {
	args := m.Called(ctx, showtimeID, sessionID)
	return args.Error(0)
}

func availableSeat(id uint64, seatType string) reconcile.SeatView {
	return reconcile.SeatView{LayoutID: id, SeatType: seatType, Status: reconcile.StatusAvailable}
}

func testPrices() PriceTable {
	return PriceTable{"REGULAR": 50_000, "VIP": 90_000}
}

func TestSelectAndDeselect(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))
	require.NoError(t, s.Select(availableSeat(2, "VIP")))
	assert.Equal(t, []uint64{1, 2}, s.Selected())
	assert.Equal(t, int64(140_000), s.Subtotal())

	require.NoError(t, s.Deselect(1))
	assert.Equal(t, []uint64{2}, s.Selected())
	// deselecting a never-selected seat is allowed
	assert.NoError(t, s.Deselect(77))
}

func TestSelectRejectsUnavailableSeat(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	occupied := reconcile.SeatView{LayoutID: 5, Status: reconcile.StatusOccupied}
	assert.ErrorIs(t, s.Select(occupied), ErrSeatUnavailable)
	assert.Empty(t, s.Selected())
}

func TestSelectCapEight(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	for i := uint64(1); i <= 8; i++ {
		require.NoError(t, s.Select(availableSeat(i, "REGULAR")))
	}
	err := s.Select(availableSeat(9, "REGULAR"))
	assert.ErrorIs(t, err, ErrMaxSeats)
	assert.Len(t, s.Selected(), 8, "selection size stays at the cap")
}

func TestSelectSameSeatTwiceIsNoop(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))
	assert.Equal(t, []uint64{1}, s.Selected())
	assert.Equal(t, int64(50_000), s.Subtotal())
}

func TestProceedEmptySelection(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	_, err := s.Proceed(context.Background(), new(MockClaimer))
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, StateSelecting, s.State())
}

func TestProceedSuccess(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))
	require.NoError(t, s.Select(availableSeat(2, "REGULAR")))

	granted := claim.Claim{Token: "tok", SessionID: s.ID, ShowtimeID: 10, SeatIDs: []uint64{1, 2}, ExpiresAt: time.Now().Add(time.Minute)}
	claimer := new(MockClaimer)
	claimer.On("Claim", mock.Anything, uint64(10), s.ID, []uint64{1, 2}).Return(granted, nil)

	got, err := s.Proceed(context.Background(), claimer)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, StateAwaiting, s.State())
	claimer.AssertExpectations(t)
}

func TestProceedConflictStaysSelecting(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))

	claimer := new(MockClaimer)
	claimer.On("Claim", mock.Anything, uint64(10), s.ID, []uint64{1}).
		Return(claim.Claim{}, &claim.ConflictError{UnavailableIDs: []uint64{1}})

	_, err := s.Proceed(context.Background(), claimer)
	var conflict *claim.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{1}, conflict.UnavailableIDs)
	assert.Equal(t, StateSelecting, s.State(), "lost race keeps the session selecting")
	assert.Equal(t, []uint64{1}, s.Selected(), "selection intact so the customer can adjust")
}

func TestConfirmOnlyFromAwaiting(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	_, err := s.Confirm()
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, s.Select(availableSeat(1, "VIP")))
	claimer := new(MockClaimer)
	claimer.On("Claim", mock.Anything, uint64(10), s.ID, []uint64{1}).
		Return(claim.Claim{ExpiresAt: time.Now().Add(time.Minute)}, nil)
	_, err = s.Proceed(context.Background(), claimer)
	require.NoError(t, err)

	total, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, int64(90_000), total)
	assert.Equal(t, StateConfirmed, s.State())

	_, err = s.Confirm()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelReleasesClaim(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))
	claimer := new(MockClaimer)
	claimer.On("Claim", mock.Anything, uint64(10), s.ID, []uint64{1}).
		Return(claim.Claim{ExpiresAt: time.Now().Add(time.Minute)}, nil)
	claimer.On("Release", mock.Anything, uint64(10), s.ID).Return(nil)

	_, err := s.Proceed(context.Background(), claimer)
	require.NoError(t, err)
	require.NoError(t, s.Cancel(context.Background(), claimer))
	assert.Equal(t, StateCancelled, s.State())

	// second cancel does not release again
	require.NoError(t, s.Cancel(context.Background(), claimer))
	claimer.AssertNumberOfCalls(t, "Release", 1)
}

func TestExpireOnlyPastDeadline(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))
	deadline := time.Now().Add(time.Minute)
	claimer := new(MockClaimer)
	claimer.On("Claim", mock.Anything, uint64(10), s.ID, []uint64{1}).
		Return(claim.Claim{ExpiresAt: deadline}, nil)
	_, err := s.Proceed(context.Background(), claimer)
	require.NoError(t, err)

	assert.False(t, s.Expire(deadline.Add(-time.Second)))
	assert.Equal(t, StateAwaiting, s.State())

	assert.True(t, s.Expire(deadline.Add(time.Second)))
	assert.Equal(t, StateExpired, s.State())
	assert.False(t, s.Expire(deadline.Add(2*time.Second)), "expiry fires once")
}

func TestCouponMath(t *testing.T) {
	percent := Coupon{Code: "TEN", Type: CouponPercent, Value: 10}
	assert.Equal(t, int64(450_000), percent.Apply(500_000))

	fixed := Coupon{Code: "50K", Type: CouponFixed, Value: 50_000}
	assert.Equal(t, int64(0), fixed.Apply(40_000), "fixed coupons floor at zero")
	assert.Equal(t, int64(10_000), fixed.Apply(60_000))
}

func TestSessionTotalWithCoupon(t *testing.T) {
	s := NewSession(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))
	require.NoError(t, s.Select(availableSeat(2, "REGULAR")))
	s.ApplyCoupon(Coupon{Code: "TEN", Type: CouponPercent, Value: 10})
	assert.Equal(t, int64(100_000), s.Subtotal())
	assert.Equal(t, int64(90_000), s.Total())
}

func TestCouponBookLookup(t *testing.T) {
	book := CouponBook{"TEN": {Code: "TEN", Type: CouponPercent, Value: 10}}
	c, ok := book.Lookup(" ten ")
	require.True(t, ok)
	assert.Equal(t, "TEN", c.Code)
	_, ok = book.Lookup("nope")
	assert.False(t, ok)
}

func TestManagerReusesLiveSession(t *testing.T) {
	m := NewManager()
	a := m.GetOrCreate(1, 10, testPrices())
	b := m.GetOrCreate(1, 10, testPrices())
	assert.Same(t, a, b)

	require.NoError(t, a.Cancel(context.Background(), nil))
	c := m.GetOrCreate(1, 10, testPrices())
	assert.NotSame(t, a, c, "terminal sessions are replaced")
}

func TestManagerExpireDueReleasesOnce(t *testing.T) {
	m := NewManager()
	s := m.GetOrCreate(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))

	deadline := time.Now().Add(time.Minute)
	claimer := new(MockClaimer)
	claimer.On("Claim", mock.Anything, uint64(10), s.ID, []uint64{1}).
		Return(claim.Claim{ExpiresAt: deadline}, nil)
	claimer.On("Release", mock.Anything, uint64(10), s.ID).Return(nil)
	_, err := s.Proceed(context.Background(), claimer)
	require.NoError(t, err)

	assert.Equal(t, 1, m.ExpireDue(context.Background(), deadline.Add(time.Second), claimer))
	assert.Equal(t, 0, m.ExpireDue(context.Background(), deadline.Add(time.Minute), claimer))
	claimer.AssertNumberOfCalls(t, "Release", 1)

	_, ok := m.Get(1, 10)
	assert.False(t, ok, "expired session is dropped from the manager")
}

func TestManagerAbandonsIdleSelectingSession(t *testing.T) {
	m := NewManager()
	s := m.GetOrCreate(1, 10, testPrices())
	require.NoError(t, s.Select(availableSeat(1, "REGULAR")))

	now := time.Now().UTC()
	assert.Equal(t, 0, m.ExpireDue(context.Background(), now, nil), "recently touched session survives the sweep")
	_, ok := m.Get(1, 10)
	assert.True(t, ok)

	assert.Equal(t, 1, m.ExpireDue(context.Background(), now.Add(SelectingIdleTTL+time.Minute), nil))
	assert.Equal(t, StateExpired, s.State())
	_, ok = m.Get(1, 10)
	assert.False(t, ok, "abandoned session is dropped from the manager")
}

func TestParseCouponBook(t *testing.T) {
	book := ParseCouponBook("save10:percent:10, FLAT5:FIXED:500 ,bad,OVER:PERCENT:120,NEG:FIXED:-1")
	require.Len(t, book, 2)

	c, ok := book.Lookup("SAVE10")
	require.True(t, ok)
	assert.Equal(t, CouponPercent, c.Type)
	assert.Equal(t, int64(10), c.Value)

	c, ok = book.Lookup("flat5")
	require.True(t, ok)
	assert.Equal(t, CouponFixed, c.Type)
	assert.Equal(t, int64(500), c.Value)
}

func TestSessionUserIDRoundTrip(t *testing.T) {
	s := NewSession(42, 7, testPrices())
	assert.Equal(t, uint64(42), SessionUserID(s.ID))
	assert.Zero(t, SessionUserID("not-a-session-id"))
}
