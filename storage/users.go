package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"refer-earn-bot/models"
)

// BonusDateLayout is the calendar-date form stored in last_bonus_date.
const BonusDateLayout = "2006-01-02"

// CreateUserIfAbsent inserts the user on first contact, capturing the
// referrer. For an existing user the referrer is never overwritten; only
// last_seen is refreshed. Reports whether the row was created.
func (s *Store) CreateUserIfAbsent(userID int64, referrerID *int64) (bool, error) {
	now := time.Now().UTC()
	user := models.User{
		UserID:     userID,
		ReferrerID: referrerID,
		JoinedAt:   now,
		LastSeen:   now,
	}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, s.MarkSeen(userID)
	}
	return true, nil
}

func (s *Store) User(userID int64) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) MarkSeen(userID int64) error {
	return s.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("last_seen", time.Now().UTC()).Error
}

// Credit adds amount to the user's balance. Zero and negative amounts are
// rejected.
func (s *Store) Credit(userID int64, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	res := s.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DebitIfSufficient decrements the balance only when it covers amount. The
// check and the write are one conditioned UPDATE, so concurrent debits
// cannot drive the balance negative.
func (s *Store) DebitIfSufficient(userID int64, amount float64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	res := s.db.Model(&models.User{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClaimDailyBonus credits amount and stamps today's date unless the stored
// claim date already equals today. Duplicate taps race on the same
// conditioned UPDATE, so at most one of them credits.
func (s *Store) ClaimDailyBonus(userID int64, amount float64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	today := time.Now().UTC().Format(BonusDateLayout)
	res := s.db.Model(&models.User{}).
		Where("user_id = ? AND (last_bonus_date IS NULL OR last_bonus_date <> ?)", userID, today).
		Updates(map[string]interface{}{
			"balance":         gorm.Expr("balance + ?", amount),
			"last_bonus_date": today,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkVerified flips verified exactly once. Reports whether this call was
// the transition.
func (s *Store) MarkVerified(userID int64) (bool, error) {
	res := s.db.Model(&models.User{}).
		Where("user_id = ? AND verified = ?", userID, false).
		Update("verified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// PayReferralBonus credits the user's referrer once. The referred_bonus_paid
// flip and the credit share a transaction; the conditioned flip makes the
// payout single-shot no matter how many evaluations race.
func (s *Store) PayReferralBonus(userID int64, amount float64) (referrerID int64, paid bool, err error) {
	if amount <= 0 {
		return 0, false, ErrInvalidAmount
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if user.ReferrerID == nil || !user.Verified {
			return nil
		}
		res := tx.Model(&models.User{}).
			Where("user_id = ? AND referred_bonus_paid = ?", userID, false).
			Update("referred_bonus_paid", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		referrerID = *user.ReferrerID
		paid = true
		return tx.Model(&models.User{}).
			Where("user_id = ?", referrerID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error
	})
	if err != nil {
		return 0, false, err
	}
	return referrerID, paid, nil
}

func (s *Store) SetBanned(userID int64, banned bool) error {
	res := s.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("is_banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetBalance is an admin override: the balance is forced to zero.
func (s *Store) ResetBalance(userID int64) error {
	res := s.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("balance", 0.0)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearDailyClaim is an admin override: the user may claim the daily bonus
// again today.
func (s *Store) ClearDailyClaim(userID int64) error {
	res := s.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("last_bonus_date", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AllUserIDs() ([]int64, error) {
	var ids []int64
	err := s.db.Model(&models.User{}).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// ActiveUserIDs lists users seen at or after the cutoff.
func (s *Store) ActiveUserIDs(since time.Time) ([]int64, error) {
	var ids []int64
	err := s.db.Model(&models.User{}).
		Where("last_seen >= ?", since).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *Store) CountUsers() (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (s *Store) CountReferrals(userID int64) (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("referrer_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (s *Store) AllUsers() ([]models.User, error) {
	var users []models.User
	err := s.db.Order("user_id ASC").Find(&users).Error
	return users, err
}
