package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func userKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelBalance),
			tgbotapi.NewKeyboardButton(labelDailyBonus),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelInvite),
			tgbotapi.NewKeyboardButton(labelWithdraw),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelSupport),
		),
	)
}

// joinPromptKeyboard links each missing channel plus a confirmation button.
func joinPromptKeyboard(missing []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(missing)+1)
	for _, channel := range missing {
		url := "https://t.me/" + strings.TrimPrefix(channel, "@")
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(channel, url),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ I've joined", codeJoined),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backRow(kind CallbackKind) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", adminCallbackData(kind, "")),
	)
}
