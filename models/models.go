package models

import "time"

// User is one row of the ledger. Balance never goes below zero; every
// mutation in storage is a conditioned UPDATE.
type User struct {
	UserID            int64   `json:"user_id" gorm:"primaryKey"`
	Balance           float64 `json:"balance" gorm:"not null;default:0"`
	ReferrerID        *int64  `json:"referrer_id,omitempty"`
	Verified          bool    `json:"verified" gorm:"not null;default:false"`
	ReferredBonusPaid bool    `json:"referred_bonus_paid" gorm:"not null;default:false"`
	IsBanned          bool    `json:"is_banned" gorm:"not null;default:false"`
	// LastBonusDate holds a YYYY-MM-DD calendar date (UTC), nil until the
	// first claim.
	LastBonusDate *string   `json:"last_bonus_date,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
	LastSeen      time.Time `json:"last_seen"`
}

func (User) TableName() string { return "users" }

// Channel is a required channel users must be a member of. Username is the
// canonical "@handle" form.
type Channel struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`
}

func (Channel) TableName() string { return "channels" }

type Admin struct {
	UserID int64 `json:"user_id" gorm:"primaryKey"`
}

func (Admin) TableName() string { return "admins" }

type Setting struct {
	Key   string `json:"key" gorm:"primaryKey;column:key"`
	Value string `json:"value"`
}

func (Setting) TableName() string { return "settings" }

// Withdrawal statuses. A request is decided exactly once; approved and
// rejected are terminal.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

// Withdrawal is a payout request. Amount is captured at creation and is
// never re-derived from the ledger.
type Withdrawal struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int64     `json:"user_id" gorm:"index;not null"`
	Amount      float64   `json:"amount" gorm:"not null"`
	Destination string    `json:"destination" gorm:"not null"`
	Status      string    `json:"status" gorm:"not null;default:pending"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Withdrawal) TableName() string { return "withdrawals" }
