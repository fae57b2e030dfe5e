package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"refer-earn-bot/models"
	"refer-earn-bot/storage"
)

const pendingPageSize = 10

func (b *Bot) handleAdminCommand(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.sendText(msg.Chat.ID, "❌ Not authorized.")
		return
	}
	text, keyboard := b.panelHome()
	b.sendWithKeyboard(msg.Chat.ID, text, keyboard)
}

func (b *Bot) handleAdminCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, cb Callback) {
	userID := cq.From.ID
	if !b.isAdmin(userID) {
		b.answerAlert(cq, "Not authorized.")
		return
	}

	switch cb.Kind {
	case CallbackAdminHome:
		text, keyboard := b.panelHome()
		b.editPanel(cq, text, keyboard)

	case CallbackAdmins:
		text, keyboard := b.panelAdmins()
		b.editPanel(cq, text, keyboard)
	case CallbackAdminAdd:
		b.promptInput(cq, StepAddAdmin, "Send numeric Telegram user ID to add as admin.", CallbackAdmins)
	case CallbackAdminRemove:
		b.promptInput(cq, StepRemoveAdmin, "Send numeric Telegram user ID to remove from admins.", CallbackAdmins)

	case CallbackChannels:
		text, keyboard := b.panelChannels()
		b.editPanel(cq, text, keyboard)
	case CallbackChannelAdd:
		b.promptInput(cq, StepAddChannel, "Send channel @username or https://t.me/ link to require.", CallbackChannels)
	case CallbackChannelDelete:
		removed, err := b.store.RemoveChannel(cb.Arg)
		if err != nil {
			b.log.Error("remove channel failed", zap.String("channel", cb.Arg), zap.Error(err))
			b.answerAlert(cq, textGenericError)
			return
		}
		if removed {
			b.answerAlert(cq, "Removed.")
		} else {
			b.answerAlert(cq, "Not found.")
		}
		text, keyboard := b.panelChannels()
		b.editPanel(cq, text, keyboard)

	case CallbackSettings:
		text, keyboard := b.panelSettings()
		b.editPanel(cq, text, keyboard)
	case CallbackSettingEdit:
		b.sessions.Set(userID, Session{Step: StepSetValue, Key: cb.Arg})
		b.editPanel(cq,
			fmt.Sprintf("Send new value for <b>%s</b>.\n\nOr press Back.", cb.Arg),
			tgbotapi.NewInlineKeyboardMarkup(backRow(CallbackSettings)))

	case CallbackMaintenance:
		on := !b.store.MaintenanceOn()
		value := "0"
		state := "OFF"
		if on {
			value, state = "1", "ON"
		}
		if err := b.store.SetSetting(storage.KeyMaintenance, value); err != nil {
			b.log.Error("maintenance toggle failed", zap.Error(err))
			b.answerAlert(cq, textGenericError)
			return
		}
		_, keyboard := b.panelHome()
		b.editPanel(cq, fmt.Sprintf("🛠 Maintenance is now %s.", state), keyboard)

	case CallbackBroadcast:
		b.editPanel(cq, "📣 Broadcast mode?", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Send to ALL", adminCallbackData(CallbackBroadcastAll, ""))),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Send to ACTIVE", adminCallbackData(CallbackBroadcastActive, ""))),
			backRow(CallbackAdminHome),
		))
	case CallbackBroadcastAll, CallbackBroadcastActive:
		b.sessions.Set(userID, Session{Step: StepBroadcast, ActiveOnly: cb.Kind == CallbackBroadcastActive})
		b.editPanel(cq, "Send the broadcast message text.\n\nOr press Back.",
			tgbotapi.NewInlineKeyboardMarkup(backRow(CallbackBroadcast)))

	case CallbackPayouts:
		text, keyboard := b.panelPayouts()
		b.editPanel(cq, text, keyboard)
	case CallbackPayoutView:
		b.viewWithdrawal(cq, cb.Arg)
		return
	case CallbackPayoutApprove:
		b.decideWithdrawal(cq, cb.Arg, true)
		return
	case CallbackPayoutReject:
		b.decideWithdrawal(cq, cb.Arg, false)
		return

	case CallbackBanMenu:
		b.editPanel(cq, "Ban/Unban users.", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🚫 Ban User", adminCallbackData(CallbackBan, ""))),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Unban User", adminCallbackData(CallbackUnban, ""))),
			backRow(CallbackAdminHome),
		))
	case CallbackBan:
		b.promptInput(cq, StepBan, "Send user ID.", CallbackBanMenu)
	case CallbackUnban:
		b.promptInput(cq, StepUnban, "Send user ID.", CallbackBanMenu)

	case CallbackBalanceMenu:
		b.editPanel(cq, "Balance operations.", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("➕ Add Balance", adminCallbackData(CallbackBalanceAdd, ""))),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("➖ Remove Balance", adminCallbackData(CallbackBalanceRemove, ""))),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🧹 Reset Balance", adminCallbackData(CallbackBalanceReset, ""))),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🎁 Reset Bonus Flag", adminCallbackData(CallbackBonusReset, ""))),
			backRow(CallbackAdminHome),
		))
	case CallbackBalanceAdd:
		b.promptInput(cq, StepBalanceAdd, "Send: user_id amount", CallbackBalanceMenu)
	case CallbackBalanceRemove:
		b.promptInput(cq, StepBalanceRemove, "Send: user_id amount", CallbackBalanceMenu)
	case CallbackBalanceReset:
		b.promptInput(cq, StepBalanceReset, "Send: user_id", CallbackBalanceMenu)
	case CallbackBonusReset:
		b.promptInput(cq, StepBonusReset, "Send: user_id (clear daily bonus claimed for today)", CallbackBalanceMenu)

	case CallbackLookup:
		b.promptInput(cq, StepLookup, "Send user ID to lookup.", CallbackAdminHome)

	case CallbackExport:
		b.editPanel(cq, "Choose export type.", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📄 Users (TXT)", adminCallbackData(CallbackExportUsers, ""))),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📊 Withdrawals (CSV)", adminCallbackData(CallbackExportWithdrawals, ""))),
			backRow(CallbackAdminHome),
		))
	case CallbackExportUsers:
		b.sendExport(cq, b.usersExport, "Users export")
		return
	case CallbackExportWithdrawals:
		b.sendExport(cq, b.withdrawalsExport, "Withdrawals export")
		return

	case CallbackOwner:
		if userID != b.cfg.OwnerID {
			b.answerAlert(cq, "Owner only.")
			return
		}
		b.editPanel(cq, "Owner tools.", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗂 DB Backup", adminCallbackData(CallbackOwnerBackup, ""))),
			backRow(CallbackAdminHome),
		))
	case CallbackOwnerBackup:
		if userID != b.cfg.OwnerID {
			b.answerAlert(cq, "Owner only.")
			return
		}
		b.sendExport(cq, b.backupExport, "DB backup")
		return
	}

	b.answer(cq, "")
}

// promptInput records the expected input step and shows the prompt with a
// way back.
func (b *Bot) promptInput(cq *tgbotapi.CallbackQuery, step Step, prompt string, back CallbackKind) {
	b.sessions.Set(cq.From.ID, Session{Step: step})
	b.editPanel(cq, prompt+"\n\nOr press Back.",
		tgbotapi.NewInlineKeyboardMarkup(backRow(back)))
}

func (b *Bot) viewWithdrawal(cq *tgbotapi.CallbackQuery, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.answerAlert(cq, "Not found.")
		return
	}
	w, err := b.store.Withdrawal(id)
	if errors.Is(err, storage.ErrNotFound) {
		b.answerAlert(cq, "Not found.")
		return
	}
	if err != nil {
		b.log.Error("withdrawal lookup failed", zap.Int64("id", id), zap.Error(err))
		b.answerAlert(cq, textGenericError)
		return
	}
	text, keyboard := b.panelWithdrawal(w)
	b.editPanel(cq, text, keyboard)
	b.answer(cq, "")
}

// decideWithdrawal settles a request and re-renders the payout list. A
// second decision on the same request is a quiet no-op.
func (b *Bot) decideWithdrawal(cq *tgbotapi.CallbackQuery, arg string, approve bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.answerAlert(cq, "Not found.")
		return
	}

	w, alreadyDecided, err := b.store.DecideWithdrawal(id, approve)
	if errors.Is(err, storage.ErrNotFound) {
		b.answerAlert(cq, "Not found.")
		return
	}
	if err != nil {
		b.log.Error("withdrawal decision failed", zap.Int64("id", id), zap.Error(err))
		b.answerAlert(cq, textGenericError)
		return
	}

	switch {
	case alreadyDecided:
		b.answer(cq, "Already decided.")
	case w.Status == models.WithdrawalApproved:
		b.answer(cq, "Approved.")
		b.sendText(w.UserID, fmt.Sprintf("✅ Withdrawal approved for %s. Payment processing.", b.money(w.Amount)))
	default:
		b.answer(cq, "Rejected.")
		b.sendText(w.UserID, "❌ Withdrawal rejected (insufficient balance or other issue).")
	}

	text, keyboard := b.panelPayouts()
	b.editPanel(cq, text, keyboard)
}

func (b *Bot) sendExport(cq *tgbotapi.CallbackQuery, build func() (tgbotapi.FileBytes, error), caption string) {
	if cq.Message == nil {
		return
	}
	file, err := build()
	if err != nil {
		b.log.Error("export failed", zap.Error(err))
		b.answerAlert(cq, textGenericError)
		return
	}
	doc := tgbotapi.NewDocument(cq.Message.Chat.ID, file)
	doc.Caption = caption
	b.send(doc)
	b.answer(cq, "")
}

// handleAdminInput consumes a prompt reply for the recorded step. The step
// stays set, so an admin can, say, add several channels in a row; the
// session TTL or the next panel click replaces it.
func (b *Bot) handleAdminInput(msg *tgbotapi.Message, session Session) {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	switch session.Step {
	case StepAddAdmin:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.sendText(chatID, "Send numeric user ID.")
			return
		}
		added, err := b.store.AddAdmin(id)
		if err != nil {
			b.adminOpFailed(chatID, "add admin", err)
			return
		}
		if added {
			b.sendText(chatID, "✅ Added.")
		} else {
			b.sendText(chatID, "Already admin or invalid.")
		}

	case StepRemoveAdmin:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.sendText(chatID, "Send numeric user ID.")
			return
		}
		removed, err := b.store.RemoveAdmin(id)
		if err != nil {
			b.adminOpFailed(chatID, "remove admin", err)
			return
		}
		if removed {
			b.sendText(chatID, "✅ Removed.")
		} else {
			b.sendText(chatID, "Not an admin.")
		}

	case StepAddChannel:
		added, err := b.store.AddChannel(text)
		if err != nil {
			b.adminOpFailed(chatID, "add channel", err)
			return
		}
		if added {
			b.sendText(chatID, "✅ Channel added.")
		} else {
			b.sendText(chatID, "Could not add (maybe duplicate).")
		}

	case StepSetValue:
		if !validSettingValue(session.Key, text) {
			b.sendText(chatID, fmt.Sprintf("Send a numeric value for %s.", session.Key))
			return
		}
		if err := b.store.SetSetting(session.Key, msg.Text); err != nil {
			b.adminOpFailed(chatID, "set setting", err)
			return
		}
		b.sendText(chatID, fmt.Sprintf("✅ %s updated.", session.Key))

	case StepBroadcast:
		go b.broadcast(context.Background(), chatID, msg.Text, session.ActiveOnly)
		b.sendText(chatID, "✅ Broadcast queued.")

	case StepBan, StepUnban:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.sendText(chatID, "Send numeric user ID.")
			return
		}
		ban := session.Step == StepBan
		if err := b.store.SetBanned(id, ban); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				b.sendText(chatID, "Not found.")
				return
			}
			b.adminOpFailed(chatID, "set ban", err)
			return
		}
		if ban {
			b.sendText(chatID, "🚫 User banned.")
		} else {
			b.sendText(chatID, "✅ User unbanned.")
		}

	case StepBalanceAdd:
		id, amount, ok := parseUserAmount(text)
		if !ok {
			b.sendText(chatID, "Format: user_id amount")
			return
		}
		if err := b.store.Credit(id, amount); err != nil {
			switch {
			case errors.Is(err, storage.ErrInvalidAmount):
				b.sendText(chatID, "Amount must be positive.")
			case errors.Is(err, storage.ErrNotFound):
				b.sendText(chatID, "Not found.")
			default:
				b.adminOpFailed(chatID, "credit", err)
			}
			return
		}
		b.sendText(chatID, "✅ Balance added.")

	case StepBalanceRemove:
		id, amount, ok := parseUserAmount(text)
		if !ok {
			b.sendText(chatID, "Format: user_id amount")
			return
		}
		debited, err := b.store.DebitIfSufficient(id, amount)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidAmount) {
				b.sendText(chatID, "Amount must be positive.")
				return
			}
			b.adminOpFailed(chatID, "debit", err)
			return
		}
		if debited {
			b.sendText(chatID, "✅ Balance removed.")
		} else {
			b.sendText(chatID, "Insufficient balance.")
		}

	case StepBalanceReset:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.sendText(chatID, "Send user_id")
			return
		}
		if err := b.store.ResetBalance(id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				b.sendText(chatID, "Not found.")
				return
			}
			b.adminOpFailed(chatID, "reset balance", err)
			return
		}
		b.sendText(chatID, "🧹 Balance reset.")

	case StepBonusReset:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.sendText(chatID, "Send user_id")
			return
		}
		if err := b.store.ClearDailyClaim(id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				b.sendText(chatID, "Not found.")
				return
			}
			b.adminOpFailed(chatID, "clear daily claim", err)
			return
		}
		b.sendText(chatID, "🎁 Daily bonus reset for user.")

	case StepLookup:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.sendText(chatID, "Send user_id")
			return
		}
		user, err := b.store.User(id)
		if errors.Is(err, storage.ErrNotFound) {
			b.sendText(chatID, "Not found.")
			return
		}
		if err != nil {
			b.adminOpFailed(chatID, "lookup", err)
			return
		}
		b.sendText(chatID, b.formatUserProfile(user))
	}
}

func (b *Bot) adminOpFailed(chatID int64, op string, err error) {
	b.log.Error("admin operation failed", zap.String("op", op), zap.Error(err))
	b.sendText(chatID, textGenericError)
}

func (b *Bot) formatUserProfile(user *models.User) string {
	referrer := "none"
	if user.ReferrerID != nil {
		referrer = strconv.FormatInt(*user.ReferrerID, 10)
	}
	lastBonus := "never"
	if user.LastBonusDate != nil {
		lastBonus = *user.LastBonusDate
	}
	return fmt.Sprintf(
		"User: %d\nJoined: %s\nReferrer: %s\nBalance: %s\nVerified: %t\nRef bonus paid: %t\nBanned: %t\nLast bonus: %s\nLast seen: %s",
		user.UserID,
		user.JoinedAt.Format("2006-01-02 15:04:05"),
		referrer,
		b.money(user.Balance),
		user.Verified,
		user.ReferredBonusPaid,
		user.IsBanned,
		lastBonus,
		user.LastSeen.Format("2006-01-02 15:04:05"),
	)
}

// parseUserAmount splits "user_id amount" admin input.
func parseUserAmount(text string) (int64, float64, bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, 0, false
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	amount, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return id, amount, true
}

var numericSettingKeys = map[string]bool{
	storage.KeyDailyBonus:    true,
	storage.KeyReferralBonus: true,
	storage.KeyMinWithdraw:   true,
	storage.KeyActiveDays:    true,
}

func validSettingValue(key, value string) bool {
	if !numericSettingKeys[key] {
		return true
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}
