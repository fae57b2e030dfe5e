package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"refer-earn-bot/models"
)

// CreateWithdrawal stores a new pending request. The amount is immutable
// from here on; approval debits exactly this value.
func (s *Store) CreateWithdrawal(userID int64, amount float64, destination string) (*models.Withdrawal, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	w := models.Withdrawal{
		UserID:      userID,
		Amount:      amount,
		Destination: destination,
		Status:      models.WithdrawalPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) Withdrawal(id int64) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := s.db.First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// PendingWithdrawals returns the newest pending requests, bounded by limit.
func (s *Store) PendingWithdrawals(limit int) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	err := s.db.Where("status = ?", models.WithdrawalPending).
		Order("id DESC").
		Limit(limit).
		Find(&ws).Error
	return ws, err
}

func (s *Store) AllWithdrawals() ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	err := s.db.Order("id ASC").Find(&ws).Error
	return ws, err
}

// DecideWithdrawal settles a pending request exactly once. An approval
// re-checks the balance against the captured amount inside the transaction:
// sufficient funds debit and approve atomically, insufficient funds
// downgrade the outcome to rejected. Deciding a settled request is a no-op
// reported through alreadyDecided.
func (s *Store) DecideWithdrawal(id int64, approve bool) (w *models.Withdrawal, alreadyDecided bool, err error) {
	var settled models.Withdrawal
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&settled, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if settled.Status != models.WithdrawalPending {
			alreadyDecided = true
			return nil
		}

		status := models.WithdrawalRejected
		if approve {
			res := tx.Model(&models.User{}).
				Where("user_id = ? AND balance >= ?", settled.UserID, settled.Amount).
				Update("balance", gorm.Expr("balance - ?", settled.Amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				status = models.WithdrawalApproved
			}
		}

		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", id, models.WithdrawalPending).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Raced with another decision; roll the debit back.
			return errDecisionRaced
		}
		settled.Status = status
		return nil
	})
	if errors.Is(err, errDecisionRaced) {
		return s.racedWithdrawal(id)
	}
	if err != nil {
		return nil, false, err
	}
	return &settled, alreadyDecided, nil
}

var errDecisionRaced = errors.New("withdrawal decided concurrently")

func (s *Store) racedWithdrawal(id int64) (*models.Withdrawal, bool, error) {
	w, err := s.Withdrawal(id)
	if err != nil {
		return nil, false, err
	}
	return w, true, nil
}
