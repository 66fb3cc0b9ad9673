package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"homework-forwarder/internal/config"
	"homework-forwarder/internal/infrastructure"
	"homework-forwarder/internal/interfaces"
	httpiface "homework-forwarder/internal/interfaces/http"
	"homework-forwarder/internal/repository"
	"homework-forwarder/internal/usecases"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Archive mirror: sqlite file by default, postgres when a URL is given,
	// none when unset.
	var archive repository.ForwardArchive
	switch {
	case cfg.ArchiveDSN == "":
		log.Info().Msg("forward archive disabled")
	case strings.HasPrefix(cfg.ArchiveDSN, "postgres://"), strings.HasPrefix(cfg.ArchiveDSN, "postgresql://"):
		archive, err = repository.NewPostgresArchive(cfg.ArchiveDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open postgres archive")
		}
	default:
		archive, err = repository.NewSQLiteArchive(cfg.ArchiveDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite archive")
		}
	}
	if archive != nil {
		defer archive.Close()
	}

	telegramClient, err := infrastructure.NewTelegramClient(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Telegram")
	}
	log.Info().Str("bot", telegramClient.Bot.Self.UserName).Msg("Telegram bot connected")

	routes := repository.NewRouteTable()
	if err := routes.ReloadFrom(cfg.Routes); err != nil {
		log.Fatal().Err(err).Msg("invalid route configuration")
	}
	store := repository.NewActivityStore(archive)

	var extractor interfaces.TextExtractor = infrastructure.NoopExtractor{}
	if cfg.OCRURL != "" {
		extractor = infrastructure.NewHTTPExtractor(cfg.OCRURL)
	}
	var transcriber interfaces.Transcriber = infrastructure.NoopTranscriber{}
	if cfg.TranscribeURL != "" {
		transcriber = infrastructure.NewHTTPTranscriber(cfg.TranscribeURL)
	}

	pipeline := &usecases.ForwardPipeline{
		Routes: routes,
		Store:  store,
		Dispatcher: &usecases.MediaDispatcher{
			Outbound: telegramClient,
			Timeout:  cfg.DispatchTimeout,
		},
		Outbound:                telegramClient,
		Extractor:               extractor,
		Transcriber:             transcriber,
		AdminChatID:             cfg.AdminChatID,
		ForwardUncaptionedMedia: cfg.ForwardUncaptionedMedia,
	}
	pipeline.SetAllowedSources(cfg.AllowedSources)

	adminService := usecases.NewAdminService(routes, store, pipeline)

	// Operator traffic is never throttled at the ingress.
	guard := infrastructure.NewFloodGuard(cfg.FloodPerMinute, cfg.FloodBurst, cfg.AdminIDs)
	defer guard.Close()

	// HTTP server: health page, webhook endpoint, admin API (only when
	// operator credentials are configured).
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	webhookHandler := &httpiface.WebhookHandler{
		Pipeline: pipeline,
		Guard:    guard,
		Token:    cfg.BotToken,
	}

	if cfg.JWTSecret != "" && cfg.AdminAPIPassword != "" {
		auth, err := usecases.NewAuthUsecase(cfg.JWTSecret, cfg.AdminAPIPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up admin auth")
		}
		adminHandler := httpiface.NewAdminHandler(adminService)
		middleware := httpiface.NewMiddleware(cfg.JWTSecret)
		httpiface.SetupRoutes(r, webhookHandler, adminHandler, auth, middleware)
	} else {
		log.Warn().Msg("JWT_SECRET/ADMIN_API_PASSWORD unset, admin API disabled")
		httpiface.SetupMinimalRoutes(r, webhookHandler)
	}

	notifyStartup(telegramClient, cfg.AdminChatID, routes.Len())

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)

	if cfg.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(strings.TrimSuffix(cfg.WebhookURL, "/") + "/webhook/" + cfg.BotToken)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid webhook URL")
		}
		if _, err := telegramClient.Bot.Request(wh); err != nil {
			log.Fatal().Err(err).Msg("failed to register webhook")
		}
		log.Info().Str("addr", addr).Msg("serving webhook")
		if err := r.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
		return
	}

	// Polling mode: HTTP keeps serving health and the admin API.
	go func() {
		if err := r.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().Msg("polling for updates")
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := telegramClient.Bot.GetUpdatesChan(u)

	for update := range updates {
		msg, ok := infrastructure.MapUpdate(update)
		if !ok {
			continue
		}
		if !guard.Allow(msg.SenderID) {
			log.Debug().Int64("sender", msg.SenderID).Msg("flood guard dropped message")
			continue
		}
		go func() {
			if _, err := pipeline.Handle(context.Background(), msg); err != nil {
				log.Error().Err(err).Msg("pipeline error")
			}
		}()
	}
}

// notifyStartup tells the admin chat the bot is back up. Failure is tolerated;
// the admin chat may not exist yet.
func notifyStartup(client *infrastructure.TelegramClient, adminChatID int64, routeCount int) {
	if adminChatID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	text := fmt.Sprintf("Bot restarted.\nRoutes: %d mapped.", routeCount)
	if err := client.SendText(ctx, adminChatID, text); err != nil {
		log.Warn().Err(err).Msg("failed to send startup message to admin")
	}
}
