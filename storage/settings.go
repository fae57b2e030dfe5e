package storage

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"refer-earn-bot/models"
)

// Settings keys. Values are strings interpreted by their consumer.
const (
	KeyDailyBonus    = "DAILY_BONUS"
	KeyReferralBonus = "REFERRAL_BONUS"
	KeyMinWithdraw   = "MIN_WITHDRAW"
	KeyCurrency      = "CURRENCY"
	KeyWelcomeText   = "WELCOME_TEXT"
	KeyMaintenance   = "MAINTENANCE"
	KeyActiveDays    = "ACTIVE_DAYS"
)

var settingDefaults = map[string]string{
	KeyDailyBonus:    "0.5",
	KeyReferralBonus: "1",
	KeyMinWithdraw:   "50",
	KeyCurrency:      "₹",
	KeyWelcomeText:   "Welcome to Refer & Earn Bot! Earn by inviting friends.",
	KeyMaintenance:   "0",
	KeyActiveDays:    "30",
}

// EditableSettingKeys is the set exposed in the admin settings editor, in
// display order.
var EditableSettingKeys = []string{
	KeyDailyBonus,
	KeyReferralBonus,
	KeyMinWithdraw,
	KeyCurrency,
	KeyWelcomeText,
	KeyActiveDays,
}

// Setting returns the stored value, falling back to the built-in default
// for a missing row.
func (s *Store) Setting(key string) string {
	var setting models.Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || err != nil {
		return settingDefaults[key]
	}
	return setting.Value
}

// SetSetting writes the value; last write wins.
func (s *Store) SetSetting(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

func (s *Store) SettingFloat(key string) float64 {
	v, err := strconv.ParseFloat(s.Setting(key), 64)
	if err != nil {
		v, _ = strconv.ParseFloat(settingDefaults[key], 64)
	}
	return v
}

func (s *Store) SettingInt(key string) int {
	v, err := strconv.Atoi(s.Setting(key))
	if err != nil {
		v, _ = strconv.Atoi(settingDefaults[key])
	}
	return v
}

// MaintenanceOn reports whether the bot is closed to non-admins.
func (s *Store) MaintenanceOn() bool {
	return s.Setting(KeyMaintenance) == "1"
}

func (s *Store) AllSettings() ([]models.Setting, error) {
	var settings []models.Setting
	err := s.db.Order("key ASC").Find(&settings).Error
	return settings, err
}
