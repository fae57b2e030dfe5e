package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionStoreSetGetClear(t *testing.T) {
	store := NewSessionStore(time.Minute)

	_, ok := store.Get(1)
	require.False(t, ok)

	store.Set(1, Session{Step: StepWithdrawAmount})
	session, ok := store.Get(1)
	require.True(t, ok)
	require.Equal(t, StepWithdrawAmount, session.Step)

	store.Set(1, Session{Step: StepWithdrawDestination, Amount: 60})
	session, ok = store.Get(1)
	require.True(t, ok)
	require.Equal(t, StepWithdrawDestination, session.Step)
	require.InDelta(t, 60, session.Amount, 1e-9)

	store.Clear(1)
	_, ok = store.Get(1)
	require.False(t, ok)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	store.Set(1, Session{Step: StepBroadcast})
	time.Sleep(30 * time.Millisecond)

	_, ok := store.Get(1)
	require.False(t, ok)
}

func TestAdminStepClassification(t *testing.T) {
	require.False(t, StepNone.isAdminStep())
	require.False(t, StepWithdrawAmount.isAdminStep())
	require.False(t, StepWithdrawDestination.isAdminStep())
	require.True(t, StepAddAdmin.isAdminStep())
	require.True(t, StepLookup.isAdminStep())
}
