package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateUserIfAbsent(t *testing.T) {
	store := newTestStore(t)

	referrer := int64(10)
	created, err := store.CreateUserIfAbsent(1, &referrer)
	require.NoError(t, err)
	require.True(t, created)

	// A second contact must not overwrite the referrer.
	other := int64(20)
	created, err = store.CreateUserIfAbsent(1, &other)
	require.NoError(t, err)
	require.False(t, created)

	user, err := store.User(1)
	require.NoError(t, err)
	require.NotNil(t, user.ReferrerID)
	require.Equal(t, referrer, *user.ReferrerID)
	require.Zero(t, user.Balance)
	require.False(t, user.Verified)
}

func TestUserNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.User(404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreditAndDebit(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)

	require.NoError(t, store.Credit(1, 100))
	require.ErrorIs(t, store.Credit(1, 0), ErrInvalidAmount)
	require.ErrorIs(t, store.Credit(1, -5), ErrInvalidAmount)
	require.ErrorIs(t, store.Credit(404, 10), ErrNotFound)

	ok, err := store.DebitIfSufficient(1, 60)
	require.NoError(t, err)
	require.True(t, ok)

	// 40 left; a second debit of 60 must not go through.
	ok, err = store.DebitIfSufficient(1, 60)
	require.NoError(t, err)
	require.False(t, ok)

	user, err := store.User(1)
	require.NoError(t, err)
	require.InDelta(t, 40, user.Balance, 1e-9)
}

func TestClaimDailyBonus(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)

	claimed, err := store.ClaimDailyBonus(1, 0.5)
	require.NoError(t, err)
	require.True(t, claimed)

	// Same calendar day: nothing credited.
	claimed, err = store.ClaimDailyBonus(1, 0.5)
	require.NoError(t, err)
	require.False(t, claimed)

	user, err := store.User(1)
	require.NoError(t, err)
	require.InDelta(t, 0.5, user.Balance, 1e-9)
	require.NotNil(t, user.LastBonusDate)
	require.Equal(t, time.Now().UTC().Format(BonusDateLayout), *user.LastBonusDate)

	// An admin reset makes the bonus claimable again today.
	require.NoError(t, store.ClearDailyClaim(1))
	claimed, err = store.ClaimDailyBonus(1, 0.5)
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestMarkVerifiedOnce(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)

	newly, err := store.MarkVerified(1)
	require.NoError(t, err)
	require.True(t, newly)

	newly, err = store.MarkVerified(1)
	require.NoError(t, err)
	require.False(t, newly)
}

func TestPayReferralBonusOnce(t *testing.T) {
	store := newTestStore(t)
	referrer := int64(10)
	_, err := store.CreateUserIfAbsent(referrer, nil)
	require.NoError(t, err)
	_, err = store.CreateUserIfAbsent(1, &referrer)
	require.NoError(t, err)

	// Unverified users never trigger a payout.
	_, paid, err := store.PayReferralBonus(1, 1)
	require.NoError(t, err)
	require.False(t, paid)

	_, err = store.MarkVerified(1)
	require.NoError(t, err)

	gotReferrer, paid, err := store.PayReferralBonus(1, 1)
	require.NoError(t, err)
	require.True(t, paid)
	require.Equal(t, referrer, gotReferrer)

	// Replaying the payout is a no-op.
	_, paid, err = store.PayReferralBonus(1, 1)
	require.NoError(t, err)
	require.False(t, paid)

	user, err := store.User(referrer)
	require.NoError(t, err)
	require.InDelta(t, 1, user.Balance, 1e-9)
}

func TestPayReferralBonusWithoutReferrer(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)
	_, err = store.MarkVerified(1)
	require.NoError(t, err)

	_, paid, err := store.PayReferralBonus(1, 1)
	require.NoError(t, err)
	require.False(t, paid)
}

func TestBanAndReset(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)
	require.NoError(t, store.Credit(1, 25))

	require.NoError(t, store.SetBanned(1, true))
	user, err := store.User(1)
	require.NoError(t, err)
	require.True(t, user.IsBanned)

	require.NoError(t, store.SetBanned(1, false))
	require.NoError(t, store.ResetBalance(1))
	user, err = store.User(1)
	require.NoError(t, err)
	require.False(t, user.IsBanned)
	require.Zero(t, user.Balance)

	require.ErrorIs(t, store.SetBanned(404, true), ErrNotFound)
	require.ErrorIs(t, store.ResetBalance(404), ErrNotFound)
}

func TestAudiences(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []int64{1, 2, 3} {
		_, err := store.CreateUserIfAbsent(id, nil)
		require.NoError(t, err)
	}

	ids, err := store.AllUserIDs()
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, ids)

	active, err := store.ActiveUserIDs(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, active)

	active, err = store.ActiveUserIDs(time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, active)

	count, err := store.CountUsers()
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}

func TestCountReferrals(t *testing.T) {
	store := newTestStore(t)
	referrer := int64(1)
	_, err := store.CreateUserIfAbsent(referrer, nil)
	require.NoError(t, err)
	for _, id := range []int64{2, 3} {
		_, err := store.CreateUserIfAbsent(id, &referrer)
		require.NoError(t, err)
	}

	count, err := store.CountReferrals(referrer)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}
