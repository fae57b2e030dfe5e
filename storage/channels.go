package storage

import (
	"strings"

	"gorm.io/gorm/clause"

	"refer-earn-bot/models"
)

// NormalizeChannel canonicalizes a channel reference to the "@handle" form.
// Accepts a bare handle, an "@handle" or a shareable https://t.me/ link.
func NormalizeChannel(username string) string {
	username = strings.TrimSpace(username)
	if after, ok := strings.CutPrefix(username, "https://t.me/"); ok {
		username = "@" + after
	}
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	return username
}

// AddChannel inserts a required channel. Reports false for a duplicate.
func (s *Store) AddChannel(username string) (bool, error) {
	channel := models.Channel{Username: NormalizeChannel(username)}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&channel)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RemoveChannel deletes by canonical handle. Reports false when absent.
func (s *Store) RemoveChannel(username string) (bool, error) {
	res := s.db.Delete(&models.Channel{}, "username = ?", NormalizeChannel(username))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListChannels returns the canonical handles in insertion order.
func (s *Store) ListChannels() ([]string, error) {
	var usernames []string
	err := s.db.Model(&models.Channel{}).
		Order("id ASC").
		Pluck("username", &usernames).Error
	return usernames, err
}
