// Package bot is the Telegram transport shell: it decodes updates into
// typed actions, runs the dialogue sessions and delegates every
// balance-affecting decision to the storage and verify packages.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"refer-earn-bot/config"
	"refer-earn-bot/storage"
	"refer-earn-bot/verify"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	store    *storage.Store
	engine   *verify.Engine
	cfg      *config.Config
	sessions *SessionStore
	log      *zap.Logger

	// sendLimit paces outbound fan-out under Telegram's global send limit.
	sendLimit *rate.Limiter
}

func New(api *tgbotapi.BotAPI, store *storage.Store, cfg *config.Config, log *zap.Logger) *Bot {
	b := &Bot{
		api:       api,
		store:     store,
		cfg:       cfg,
		sessions:  NewSessionStore(30 * time.Minute),
		log:       log,
		sendLimit: rate.NewLimiter(25, 5),
	}
	b.engine = verify.NewEngine(store, chatMembership{api: api}, b.sendText, log.Named("verify"))
	return b
}

// Run consumes the long-poll update stream until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	b.log.Info("update loop started")
	for update := range updates {
		go b.dispatch(ctx, update)
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return
		}
		if msg.IsCommand() {
			switch msg.Command() {
			case "start":
				b.handleStart(ctx, msg)
			case "admin":
				b.handleAdminCommand(msg)
			}
			return
		}
		if msg.Text != "" {
			b.handleText(ctx, msg)
		}
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		cb := ParseCallback(cq.Data)
		switch {
		case cb.Kind == CallbackJoined:
			b.handleJoined(ctx, cq)
		case cb.Kind != CallbackUnknown:
			b.handleAdminCallback(ctx, cq, cb)
		}
	}
}

// handleText routes admin prompt replies first; everything else is a user
// action behind the channel gate.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if session, ok := b.sessions.Get(userID); ok && session.Step.isAdminStep() && b.isAdmin(userID) {
		b.handleAdminInput(msg, session)
		return
	}
	b.handleUserText(ctx, msg)
}

func (b *Bot) isAdmin(userID int64) bool {
	if userID == b.cfg.OwnerID {
		return true
	}
	admin, err := b.store.IsAdmin(userID)
	if err != nil {
		b.log.Error("admin lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return admin
}

func (b *Bot) isBanned(userID int64) bool {
	user, err := b.store.User(userID)
	if err != nil {
		return false
	}
	return user.IsBanned
}

func (b *Bot) money(amount float64) string {
	return fmt.Sprintf("%s%.2f", b.store.Setting(storage.KeyCurrency), amount)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Debug("send failed", zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	b.send(msg)
}

func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		b.log.Debug("callback answer failed", zap.Error(err))
	}
}

func (b *Bot) answerAlert(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(cq.ID, text)); err != nil {
		b.log.Debug("callback answer failed", zap.Error(err))
	}
}

// editPanel redraws the admin panel a callback originated from.
func (b *Bot) editPanel(cq *tgbotapi.CallbackQuery, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if cq.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	b.send(edit)
}

// notifyAdmins is best-effort fan-out to every admin.
func (b *Bot) notifyAdmins(text string) {
	admins, err := b.store.ListAdmins()
	if err != nil {
		b.log.Error("list admins failed", zap.Error(err))
		return
	}
	for _, adminID := range admins {
		b.sendText(adminID, text)
	}
}
