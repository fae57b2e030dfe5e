package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"refer-earn-bot/models"
	"refer-earn-bot/storage"
)

// Panel builders. Each returns the current panel text and keyboard from
// live store state, so handlers re-render after a mutation instead of
// re-entering the dispatch path.

func (b *Bot) panelHome() (string, tgbotapi.InlineKeyboardMarkup) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👑 Admins", adminCallbackData(CallbackAdmins, "")),
			tgbotapi.NewInlineKeyboardButtonData("#️⃣ Channels", adminCallbackData(CallbackChannels, "")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧰 Settings", adminCallbackData(CallbackSettings, "")),
			tgbotapi.NewInlineKeyboardButtonData("🛠 Maintenance", adminCallbackData(CallbackMaintenance, "")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💸 Payouts", adminCallbackData(CallbackPayouts, "")),
			tgbotapi.NewInlineKeyboardButtonData("📣 Broadcast", adminCallbackData(CallbackBroadcast, "")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Ban/Unban", adminCallbackData(CallbackBanMenu, "")),
			tgbotapi.NewInlineKeyboardButtonData("➕➖ Balance", adminCallbackData(CallbackBalanceMenu, "")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔎 Lookup User", adminCallbackData(CallbackLookup, "")),
			tgbotapi.NewInlineKeyboardButtonData("📤 Export", adminCallbackData(CallbackExport, "")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧰 Owner Tools", adminCallbackData(CallbackOwner, "")),
		),
	)
	return "🛠 <b>Admin Panel</b>\nUse the buttons below.", keyboard
}

func (b *Bot) panelAdmins() (string, tgbotapi.InlineKeyboardMarkup) {
	text := "👑 <b>Admins</b>"
	if admins, err := b.store.ListAdmins(); err == nil && len(admins) > 0 {
		ids := make([]string, len(admins))
		for i, id := range admins {
			ids[i] = strconv.FormatInt(id, 10)
		}
		text += "\n" + strings.Join(ids, "\n")
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Admin", adminCallbackData(CallbackAdminAdd, ""))),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ Remove Admin", adminCallbackData(CallbackAdminRemove, ""))),
		backRow(CallbackAdminHome),
	)
	return text, keyboard
}

// panelChannels lists each required channel as a delete button.
func (b *Bot) panelChannels() (string, tgbotapi.InlineKeyboardMarkup) {
	channels, err := b.store.ListChannels()
	if err != nil {
		b.log.Error("list channels failed", zap.Error(err))
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(channels)+2)
	for _, channel := range channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(channel, adminCallbackData(CallbackChannelDelete, channel)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Add Channel", adminCallbackData(CallbackChannelAdd, ""))))
	rows = append(rows, backRow(CallbackAdminHome))
	return "#️⃣ <b>Required Channels</b>\nTap a channel to remove it.", tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) panelSettings() (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("<b>Settings</b>\n")
	for _, key := range storage.EditableSettingKeys {
		value := b.store.Setting(key)
		if key == storage.KeyWelcomeText && len(value) > 80 {
			value = value[:80] + "..."
		}
		fmt.Fprintf(&sb, "%s: %s\n", key, value)
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(storage.EditableSettingKeys)+1)
	for _, key := range storage.EditableSettingKeys {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(key, adminCallbackData(CallbackSettingEdit, key)),
		))
	}
	rows = append(rows, backRow(CallbackAdminHome))
	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// panelPayouts shows the newest pending requests, one button per request.
func (b *Bot) panelPayouts() (string, tgbotapi.InlineKeyboardMarkup) {
	pending, err := b.store.PendingWithdrawals(pendingPageSize)
	if err != nil {
		b.log.Error("list pending withdrawals failed", zap.Error(err))
	}
	if len(pending) == 0 {
		_, keyboard := b.panelHome()
		return "No pending withdrawals.", keyboard
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pending)+1)
	for _, w := range pending {
		label := fmt.Sprintf("#%d %s | %s", w.ID, b.money(w.Amount), w.Destination)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, adminCallbackData(CallbackPayoutView, strconv.FormatInt(w.ID, 10))),
		))
	}
	rows = append(rows, backRow(CallbackAdminHome))
	return "💸 <b>Pending Withdrawals</b>", tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) panelWithdrawal(w *models.Withdrawal) (string, tgbotapi.InlineKeyboardMarkup) {
	id := strconv.FormatInt(w.ID, 10)
	text := fmt.Sprintf(
		"ID: #%d\nUser: <a href=\"tg://user?id=%d\">%d</a>\nAmount: %s\nUPI: <code>%s</code>\nStatus: %s",
		w.ID, w.UserID, w.UserID, b.money(w.Amount), w.Destination, w.Status)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", adminCallbackData(CallbackPayoutApprove, id))),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", adminCallbackData(CallbackPayoutReject, id))),
		backRow(CallbackPayouts),
	)
	return text, keyboard
}
