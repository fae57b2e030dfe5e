package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// chatMembership answers channel-membership queries through the Telegram
// API. Restricted, left and kicked statuses count as not a member.
type chatMembership struct {
	api *tgbotapi.BotAPI
}

func (c chatMembership) IsMember(_ context.Context, channel string, userID int64) (bool, error) {
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channel,
			UserID:             userID,
		},
	})
	if err != nil {
		return false, err
	}

	switch member.Status {
	case "restricted", "left", "kicked":
		return false, nil
	}
	return true, nil
}
