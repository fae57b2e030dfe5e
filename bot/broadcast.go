package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"refer-earn-bot/storage"
)

// broadcast fans the message out to every user, or to users seen within
// the configured activity window. Sends are paced by the shared limiter;
// individual delivery failures (blocked bot, deleted account) are counted
// and skipped.
func (b *Bot) broadcast(ctx context.Context, adminChatID int64, text string, activeOnly bool) {
	var (
		ids []int64
		err error
	)
	if activeOnly {
		days := b.store.SettingInt(storage.KeyActiveDays)
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		ids, err = b.store.ActiveUserIDs(cutoff)
	} else {
		ids, err = b.store.AllUserIDs()
	}
	if err != nil {
		b.log.Error("broadcast audience failed", zap.Error(err))
		b.sendText(adminChatID, "Broadcast failed.")
		return
	}

	sent, failed := 0, 0
	for _, userID := range ids {
		if err := b.sendLimit.Wait(ctx); err != nil {
			b.log.Warn("broadcast interrupted", zap.Int("sent", sent), zap.Error(err))
			return
		}
		msg := tgbotapi.NewMessage(userID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(msg); err != nil {
			failed++
			continue
		}
		sent++
	}

	b.sendText(adminChatID, fmt.Sprintf("📣 Broadcast finished: %d delivered, %d failed.", sent, failed))
}
