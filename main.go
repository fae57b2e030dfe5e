package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"refer-earn-bot/bot"
	"refer-earn-bot/config"
	"refer-earn-bot/pkg/logger"
	"refer-earn-bot/storage"
	"refer-earn-bot/webapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		log.Fatal("telegram auth", zap.Error(err))
	}
	api.Debug = cfg.BotDebug
	log.Info("authorized", zap.String("bot", api.Self.UserName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var web *webapi.Server
	if cfg.HTTPAddr != "" {
		web = webapi.New(cfg, store, log.Named("webapi"))
		go func() {
			if err := web.Run(); err != nil {
				log.Error("web api stopped", zap.Error(err))
			}
		}()
	}

	bot.New(api, store, cfg, log.Named("bot")).Run(ctx)

	if web != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := web.Shutdown(shutdownCtx); err != nil {
			log.Error("web api shutdown", zap.Error(err))
		}
	}
	log.Info("stopped")
}
