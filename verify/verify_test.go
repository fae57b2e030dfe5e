package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"refer-earn-bot/storage"
)

// fakeOracle answers membership from an in-memory table and can be told
// to fail for specific channels.
type fakeOracle struct {
	members map[string]map[int64]bool
	failing map[string]bool
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		members: make(map[string]map[int64]bool),
		failing: make(map[string]bool),
	}
}

func (f *fakeOracle) join(channel string, userID int64) {
	if f.members[channel] == nil {
		f.members[channel] = make(map[int64]bool)
	}
	f.members[channel][userID] = true
}

func (f *fakeOracle) leave(channel string, userID int64) {
	delete(f.members[channel], userID)
}

func (f *fakeOracle) IsMember(_ context.Context, channel string, userID int64) (bool, error) {
	if f.failing[channel] {
		return false, errors.New("chat lookup failed")
	}
	return f.members[channel][userID], nil
}

type notification struct {
	userID int64
	text   string
}

func newTestEngine(t *testing.T) (*Engine, *storage.Store, *fakeOracle, *[]notification) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	store, err := storage.New(db, 99)
	require.NoError(t, err)

	oracle := newFakeOracle()
	var sent []notification
	notify := func(userID int64, text string) {
		sent = append(sent, notification{userID: userID, text: text})
	}
	return NewEngine(store, oracle, notify, zap.NewNop()), store, oracle, &sent
}

func TestRegisterRejectsSelfReferral(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)

	self := int64(1)
	created, err := engine.Register(1, &self)
	require.NoError(t, err)
	require.True(t, created)

	user, err := store.User(1)
	require.NoError(t, err)
	require.Nil(t, user.ReferrerID)
}

func TestEvaluateWithNoRequiredChannels(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)

	result, err := engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, result.Allowed())
	require.True(t, result.NewlyVerified)

	user, err := store.User(1)
	require.NoError(t, err)
	require.True(t, user.Verified)
}

func TestEvaluateBlocksUntilAllChannelsJoined(t *testing.T) {
	engine, store, oracle, _ := newTestEngine(t)
	_, err := store.AddChannel("@alpha")
	require.NoError(t, err)
	_, err = store.AddChannel("@beta")
	require.NoError(t, err)

	result, err := engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, result.Allowed())
	require.Equal(t, []string{"@alpha", "@beta"}, result.Missing)

	oracle.join("@alpha", 1)
	result, err = engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []string{"@beta"}, result.Missing)

	oracle.join("@beta", 1)
	result, err = engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, result.Allowed())
	require.True(t, result.NewlyVerified)
}

func TestVerifiedUserBlockedAfterLeaving(t *testing.T) {
	engine, store, oracle, _ := newTestEngine(t)
	_, err := store.AddChannel("@alpha")
	require.NoError(t, err)
	oracle.join("@alpha", 1)

	result, err := engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, result.NewlyVerified)

	// Leaving blocks the user again, but the verified flag stays set.
	oracle.leave("@alpha", 1)
	result, err = engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, result.Allowed())

	user, err := store.User(1)
	require.NoError(t, err)
	require.True(t, user.Verified)

	// Rejoining never re-verifies.
	oracle.join("@alpha", 1)
	result, err = engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, result.Allowed())
	require.False(t, result.NewlyVerified)
}

func TestOracleFailureBlocks(t *testing.T) {
	engine, store, oracle, _ := newTestEngine(t)
	_, err := store.AddChannel("@alpha")
	require.NoError(t, err)
	oracle.join("@alpha", 1)
	oracle.failing["@alpha"] = true

	result, err := engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, result.Allowed())
	require.Equal(t, []string{"@alpha"}, result.Missing)
}

func TestReferralPaidExactlyOnce(t *testing.T) {
	engine, store, oracle, sent := newTestEngine(t)
	_, err := store.AddChannel("@alpha")
	require.NoError(t, err)

	referrer := int64(10)
	_, err = engine.Register(referrer, nil)
	require.NoError(t, err)
	_, err = engine.Register(1, &referrer)
	require.NoError(t, err)

	// Blocked evaluations never pay.
	result, err := engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, result.Allowed())
	require.False(t, result.ReferralPaid)

	oracle.join("@alpha", 1)
	result, err = engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, result.NewlyVerified)
	require.True(t, result.ReferralPaid)
	require.Equal(t, referrer, result.ReferrerID)

	// The referrer got the bonus and a notification.
	user, err := store.User(referrer)
	require.NoError(t, err)
	require.InDelta(t, 1, user.Balance, 1e-9)
	require.Len(t, *sent, 1)
	require.Equal(t, referrer, (*sent)[0].userID)
	require.Contains(t, (*sent)[0].text, "🎉")

	// Further evaluations never pay again.
	result, err = engine.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, result.ReferralPaid)
	require.Len(t, *sent, 1)

	user, err = store.User(referrer)
	require.NoError(t, err)
	require.InDelta(t, 1, user.Balance, 1e-9)
}
