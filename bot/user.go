package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"refer-earn-bot/storage"
)

const (
	textMaintenance   = "🚧 Bot is under maintenance. Please try again later."
	textBanned        = "🚫 You are banned from using this bot."
	textGenericError  = "Something went wrong. Please try again."
	textJoinFirst     = "Please join required channels first."
	textJoinPrompt    = "Please join all channels to continue:"
	textSupport       = "📢 Support: Please wait, support will contact you."
	textRequestQueued = "✅ Request submitted. Admins will review soon."
)

// handleStart registers the user (capturing a referrer from the deep-link
// argument), then either presents the join gate or the menu.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	var referrerID *int64
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
			referrerID = &id
		}
	}
	if _, err := b.engine.Register(userID, referrerID); err != nil {
		b.log.Error("register failed", zap.Int64("user_id", userID), zap.Error(err))
		b.sendText(msg.Chat.ID, textGenericError)
		return
	}

	if b.store.MaintenanceOn() && !b.isAdmin(userID) {
		b.sendText(msg.Chat.ID, textMaintenance)
		return
	}
	if b.isBanned(userID) {
		b.sendText(msg.Chat.ID, textBanned)
		return
	}

	welcome := b.store.Setting(storage.KeyWelcomeText)
	result, err := b.engine.Evaluate(ctx, userID)
	if err != nil {
		b.log.Error("evaluate failed", zap.Int64("user_id", userID), zap.Error(err))
		b.sendText(msg.Chat.ID, textGenericError)
		return
	}
	if !result.Allowed() {
		b.sendWithKeyboard(msg.Chat.ID, welcome+"\n\nYou must join required channels first.", userKeyboard())
		b.sendJoinPrompt(msg.Chat.ID, result.Missing)
		return
	}

	b.sendWithKeyboard(msg.Chat.ID, welcome+"\n\nUse the menu below.", userKeyboard())
}

// handleJoined re-runs the gate when the user confirms they joined.
func (b *Bot) handleJoined(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID
	if b.isBanned(userID) {
		b.answerAlert(cq, "Banned.")
		return
	}

	result, err := b.engine.Evaluate(ctx, userID)
	if err != nil {
		b.log.Error("evaluate failed", zap.Int64("user_id", userID), zap.Error(err))
		b.answerAlert(cq, textGenericError)
		return
	}
	if !result.Allowed() {
		b.answerAlert(cq, "Still missing some channels.")
		return
	}

	b.answerAlert(cq, "All set!")
	if cq.Message != nil {
		b.sendWithKeyboard(cq.Message.Chat.ID, "✅ Thanks for joining. You can use the menu now.", userKeyboard())
	}
}

// handleUserText runs maintenance/ban/gate checks, then dispatches the
// menu action or the current withdrawal dialogue step.
func (b *Bot) handleUserText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	if b.store.MaintenanceOn() && !b.isAdmin(userID) {
		return
	}
	if b.isBanned(userID) {
		b.sendText(msg.Chat.ID, textBanned)
		return
	}

	result, err := b.engine.Evaluate(ctx, userID)
	if err != nil {
		b.log.Error("evaluate failed", zap.Int64("user_id", userID), zap.Error(err))
		b.sendText(msg.Chat.ID, textGenericError)
		return
	}
	if !result.Allowed() {
		b.sendWithKeyboard(msg.Chat.ID, textJoinFirst, userKeyboard())
		b.sendJoinPrompt(msg.Chat.ID, result.Missing)
		return
	}

	switch ParseUserAction(msg.Text) {
	case ActionBalance:
		b.showBalance(msg.Chat.ID, userID)
	case ActionDailyBonus:
		b.claimDailyBonus(msg.Chat.ID, userID)
	case ActionInvite:
		b.showInvite(msg.Chat.ID, userID)
	case ActionWithdraw:
		b.startWithdrawal(msg.Chat.ID, userID)
	case ActionSupport:
		b.sendWithKeyboard(msg.Chat.ID, textSupport, userKeyboard())
	default:
		b.continueWithdrawal(msg)
	}
}

func (b *Bot) showBalance(chatID, userID int64) {
	user, err := b.store.User(userID)
	if err != nil {
		b.log.Error("balance lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		b.sendText(chatID, textGenericError)
		return
	}
	text := fmt.Sprintf("🧾 <b>Your Balance:</b> %s", b.money(user.Balance))
	b.sendWithKeyboard(chatID, text, userKeyboard())
}

func (b *Bot) claimDailyBonus(chatID, userID int64) {
	amount := b.store.SettingFloat(storage.KeyDailyBonus)
	claimed, err := b.store.ClaimDailyBonus(userID, amount)
	if err != nil {
		b.log.Error("daily bonus failed", zap.Int64("user_id", userID), zap.Error(err))
		b.sendText(chatID, textGenericError)
		return
	}
	if !claimed {
		b.sendWithKeyboard(chatID, "You already claimed today's bonus.", userKeyboard())
		return
	}

	user, err := b.store.User(userID)
	if err != nil {
		b.log.Error("balance lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		b.sendText(chatID, textGenericError)
		return
	}
	text := fmt.Sprintf("🎁 Daily bonus credited: %s\nCurrent balance: %s",
		b.money(amount), b.money(user.Balance))
	b.sendWithKeyboard(chatID, text, userKeyboard())
}

func (b *Bot) showInvite(chatID, userID int64) {
	link := fmt.Sprintf("https://t.me/%s?start=%d", b.api.Self.UserName, userID)
	bonus := b.store.SettingFloat(storage.KeyReferralBonus)
	text := fmt.Sprintf(
		"👥 <b>Invite & Earn</b>\nShare your link: <code>%s</code>\nReferral bonus (on verification): %s",
		link, b.money(bonus))
	b.sendWithKeyboard(chatID, text, userKeyboard())
}

func (b *Bot) startWithdrawal(chatID, userID int64) {
	b.sessions.Set(userID, Session{Step: StepWithdrawAmount})
	minWithdraw := b.store.SettingFloat(storage.KeyMinWithdraw)
	text := fmt.Sprintf(
		"💳 <b>Withdrawal</b>\nMinimum: %s\nEnter the amount you want to withdraw:",
		b.money(minWithdraw))
	b.sendWithKeyboard(chatID, text, userKeyboard())
}

// continueWithdrawal advances the two-step dialogue: amount, then payout
// destination. Unmatched text outside a dialogue is ignored.
func (b *Bot) continueWithdrawal(msg *tgbotapi.Message) {
	userID := msg.From.ID
	session, ok := b.sessions.Get(userID)
	if !ok {
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch session.Step {
	case StepWithdrawAmount:
		amount, err := strconv.ParseFloat(text, 64)
		if err != nil {
			b.sendWithKeyboard(msg.Chat.ID, "Please enter a valid number amount.", userKeyboard())
			return
		}
		minWithdraw := b.store.SettingFloat(storage.KeyMinWithdraw)
		if amount < minWithdraw {
			b.sendWithKeyboard(msg.Chat.ID,
				fmt.Sprintf("Minimum withdrawal is %s.", b.money(minWithdraw)), userKeyboard())
			return
		}
		b.sessions.Set(userID, Session{Step: StepWithdrawDestination, Amount: amount})
		b.sendWithKeyboard(msg.Chat.ID, "Enter your UPI ID (e.g., username@bank):", userKeyboard())

	case StepWithdrawDestination:
		w, err := b.store.CreateWithdrawal(userID, session.Amount, text)
		b.sessions.Clear(userID)
		if err != nil {
			b.log.Error("create withdrawal failed", zap.Int64("user_id", userID), zap.Error(err))
			b.sendText(msg.Chat.ID, textGenericError)
			return
		}
		b.notifyAdmins(fmt.Sprintf(
			"🆕 Withdrawal Request #%d\nUser: <a href=\"tg://user?id=%d\">%d</a>\nAmount: %s\nUPI: <code>%s</code>",
			w.ID, userID, userID, b.money(w.Amount), w.Destination))
		b.sendWithKeyboard(msg.Chat.ID, textRequestQueued, userKeyboard())
	}
}

func (b *Bot) sendJoinPrompt(chatID int64, missing []string) {
	if len(missing) == 0 {
		return
	}
	b.sendWithKeyboard(chatID, textJoinPrompt, joinPromptKeyboard(missing))
}
