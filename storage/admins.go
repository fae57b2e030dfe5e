package storage

import (
	"gorm.io/gorm/clause"

	"refer-earn-bot/models"
)

// AddAdmin grants admin rights. Reports false when already an admin.
func (s *Store) AddAdmin(userID int64) (bool, error) {
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Admin{UserID: userID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RemoveAdmin revokes admin rights. Reports false when not an admin.
func (s *Store) RemoveAdmin(userID int64) (bool, error) {
	res := s.db.Delete(&models.Admin{}, "user_id = ?", userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) IsAdmin(userID int64) (bool, error) {
	var count int64
	err := s.db.Model(&models.Admin{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) ListAdmins() ([]int64, error) {
	var ids []int64
	err := s.db.Model(&models.Admin{}).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
