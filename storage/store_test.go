package storage

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testOwnerID int64 = 99

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	store, err := New(db, testOwnerID)
	require.NoError(t, err)
	return store
}

func TestSeedDefaults(t *testing.T) {
	store := newTestStore(t)

	require.Equal(t, "50", store.Setting(KeyMinWithdraw))
	require.Equal(t, "₹", store.Setting(KeyCurrency))
	require.InDelta(t, 0.5, store.SettingFloat(KeyDailyBonus), 1e-9)
	require.Equal(t, 30, store.SettingInt(KeyActiveDays))
	require.False(t, store.MaintenanceOn())

	owner, err := store.IsAdmin(testOwnerID)
	require.NoError(t, err)
	require.True(t, owner)
}

func TestSeedKeepsExistingValues(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetSetting(KeyMinWithdraw, "75"))
	require.NoError(t, store.seed(testOwnerID))
	require.Equal(t, "75", store.Setting(KeyMinWithdraw))
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ping())
}
