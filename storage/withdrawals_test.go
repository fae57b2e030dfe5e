package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"refer-earn-bot/models"
)

func TestCreateWithdrawal(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)

	w, err := store.CreateWithdrawal(1, 60, "user@upi")
	require.NoError(t, err)
	require.Equal(t, models.WithdrawalPending, w.Status)
	require.InDelta(t, 60, w.Amount, 1e-9)

	_, err = store.CreateWithdrawal(1, 0, "user@upi")
	require.ErrorIs(t, err, ErrInvalidAmount)

	got, err := store.Withdrawal(w.ID)
	require.NoError(t, err)
	require.Equal(t, "user@upi", got.Destination)

	_, err = store.Withdrawal(404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApproveDebitsBalance(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)
	require.NoError(t, store.Credit(1, 100))

	w, err := store.CreateWithdrawal(1, 60, "user@upi")
	require.NoError(t, err)

	decided, already, err := store.DecideWithdrawal(w.ID, true)
	require.NoError(t, err)
	require.False(t, already)
	require.Equal(t, models.WithdrawalApproved, decided.Status)

	user, err := store.User(1)
	require.NoError(t, err)
	require.InDelta(t, 40, user.Balance, 1e-9)
}

func TestApproveWithInsufficientBalanceRejects(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)
	require.NoError(t, store.Credit(1, 10))

	w, err := store.CreateWithdrawal(1, 60, "user@upi")
	require.NoError(t, err)

	decided, already, err := store.DecideWithdrawal(w.ID, true)
	require.NoError(t, err)
	require.False(t, already)
	require.Equal(t, models.WithdrawalRejected, decided.Status)

	// The balance is untouched by a rejection.
	user, err := store.User(1)
	require.NoError(t, err)
	require.InDelta(t, 10, user.Balance, 1e-9)
}

func TestRejectNeverDebits(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)
	require.NoError(t, store.Credit(1, 100))

	w, err := store.CreateWithdrawal(1, 60, "user@upi")
	require.NoError(t, err)

	decided, _, err := store.DecideWithdrawal(w.ID, false)
	require.NoError(t, err)
	require.Equal(t, models.WithdrawalRejected, decided.Status)

	user, err := store.User(1)
	require.NoError(t, err)
	require.InDelta(t, 100, user.Balance, 1e-9)
}

func TestDecideTwiceIsNoOp(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)
	require.NoError(t, store.Credit(1, 100))

	w, err := store.CreateWithdrawal(1, 60, "user@upi")
	require.NoError(t, err)

	_, _, err = store.DecideWithdrawal(w.ID, true)
	require.NoError(t, err)

	// The second decision must not debit again or flip the status.
	decided, already, err := store.DecideWithdrawal(w.ID, true)
	require.NoError(t, err)
	require.True(t, already)
	require.Equal(t, models.WithdrawalApproved, decided.Status)

	decided, already, err = store.DecideWithdrawal(w.ID, false)
	require.NoError(t, err)
	require.True(t, already)
	require.Equal(t, models.WithdrawalApproved, decided.Status)

	user, err := store.User(1)
	require.NoError(t, err)
	require.InDelta(t, 40, user.Balance, 1e-9)
}

func TestDecideUnknownWithdrawal(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.DecideWithdrawal(404, true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPendingWithdrawalsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateUserIfAbsent(1, nil)
	require.NoError(t, err)
	require.NoError(t, store.Credit(1, 500))

	first, err := store.CreateWithdrawal(1, 60, "a@upi")
	require.NoError(t, err)
	second, err := store.CreateWithdrawal(1, 70, "b@upi")
	require.NoError(t, err)

	_, _, err = store.DecideWithdrawal(first.ID, false)
	require.NoError(t, err)

	pending, err := store.PendingWithdrawals(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)

	all, err := store.AllWithdrawals()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, first.ID, all[0].ID)
}
