// Package verify gates every user action on live channel membership and
// drives the one-time verified transition plus the one-time referral
// payout.
package verify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"refer-earn-bot/storage"
)

// MembershipChecker answers whether a user currently belongs to a channel.
// Errors mean "unknown"; the engine treats unknown as not a member.
type MembershipChecker interface {
	IsMember(ctx context.Context, channel string, userID int64) (bool, error)
}

// Notifier delivers a best-effort message to a user. Failures are the
// notifier's problem; the engine never rolls anything back over them.
type Notifier func(userID int64, text string)

// Result of evaluating a user action against the channel gate.
type Result struct {
	// Missing lists the unmet channel requirements. Empty means allowed.
	Missing []string
	// NewlyVerified is set on the user's first fully-satisfied evaluation.
	NewlyVerified bool
	// ReferralPaid is set when this evaluation credited the referrer.
	ReferralPaid bool
	ReferrerID   int64
}

func (r Result) Allowed() bool { return len(r.Missing) == 0 }

type Engine struct {
	store   *storage.Store
	checker MembershipChecker
	notify  Notifier
	timeout time.Duration
	log     *zap.Logger
}

func NewEngine(store *storage.Store, checker MembershipChecker, notify Notifier, log *zap.Logger) *Engine {
	if notify == nil {
		notify = func(int64, string) {}
	}
	return &Engine{
		store:   store,
		checker: checker,
		notify:  notify,
		timeout: 10 * time.Second,
		log:     log,
	}
}

// Register records first contact, capturing the referrer once. A user
// naming themselves as referrer is recorded with no referrer.
func (e *Engine) Register(userID int64, referrerID *int64) (created bool, err error) {
	if referrerID != nil && *referrerID == userID {
		referrerID = nil
	}
	return e.store.CreateUserIfAbsent(userID, referrerID)
}

// Evaluate runs the gate for a user action. Membership is re-checked on
// every call: a verified user who left a required channel is blocked again
// even though the verified flag stays set. On the first fully-satisfied
// evaluation it flips verified and pays the referral bonus exactly once.
func (e *Engine) Evaluate(ctx context.Context, userID int64) (Result, error) {
	if _, err := e.Register(userID, nil); err != nil {
		return Result{}, fmt.Errorf("register user %d: %w", userID, err)
	}

	channels, err := e.store.ListChannels()
	if err != nil {
		return Result{}, fmt.Errorf("list channels: %w", err)
	}

	missing := e.missingChannels(ctx, userID, channels)
	if len(missing) > 0 {
		return Result{Missing: missing}, nil
	}

	user, err := e.store.User(userID)
	if err != nil {
		return Result{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user.Verified {
		return Result{}, nil
	}

	newly, err := e.store.MarkVerified(userID)
	if err != nil {
		return Result{}, fmt.Errorf("mark verified %d: %w", userID, err)
	}
	if !newly {
		// A concurrent evaluation won the transition.
		return Result{}, nil
	}

	result := Result{NewlyVerified: true}
	if user.ReferrerID == nil {
		return result, nil
	}

	bonus := e.store.SettingFloat(storage.KeyReferralBonus)
	referrerID, paid, err := e.store.PayReferralBonus(userID, bonus)
	if err != nil {
		// The user stays verified and allowed even if the payout failed.
		e.log.Error("referral payout failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return result, nil
	}
	if paid {
		result.ReferralPaid = true
		result.ReferrerID = referrerID
		currency := e.store.Setting(storage.KeyCurrency)
		e.notify(referrerID, fmt.Sprintf("🎉 Your referral verified! +%s%.2f", currency, bonus))
	}
	return result, nil
}

// missingChannels polls the oracle for each requirement. A failed or
// timed-out check counts the channel as missing; the gate never opens on
// uncertain state.
func (e *Engine) missingChannels(ctx context.Context, userID int64, channels []string) []string {
	var missing []string
	for _, channel := range channels {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		member, err := e.checker.IsMember(callCtx, channel, userID)
		cancel()
		if err != nil {
			e.log.Warn("membership check failed",
				zap.String("channel", channel),
				zap.Int64("user_id", userID),
				zap.Error(err))
			member = false
		}
		if !member {
			missing = append(missing, channel)
		}
	}
	return missing
}
