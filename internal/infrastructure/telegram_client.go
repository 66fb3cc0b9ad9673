package infrastructure

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"homework-forwarder/internal/entities"
)

// TelegramClient adapts the Bot API to the outbound port the pipeline uses.
// Captions are escaped for MarkdownV2 here, right before transmission, so the
// rest of the system handles them verbatim.
type TelegramClient struct {
	Bot *tgbotapi.BotAPI
}

func NewTelegramClient(token string) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramClient{Bot: bot}, nil
}

// send runs a Bot API call in a goroutine so the caller's context bounds the
// wait. The underlying HTTP request is not cancelable through tgbotapi; a
// timed-out call finishes in the background and its result is discarded.
func (t *TelegramClient) send(ctx context.Context, c tgbotapi.Chattable) error {
	done := make(chan error, 1)
	go func() {
		_, err := t.Bot.Send(c)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TelegramClient) SendText(ctx context.Context, chatID int64, text string) error {
	return t.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (t *TelegramClient) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	applyCaption(&msg.Caption, &msg.ParseMode, caption)
	return t.send(ctx, msg)
}

func (t *TelegramClient) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileID(fileID))
	applyCaption(&msg.Caption, &msg.ParseMode, caption)
	return t.send(ctx, msg)
}

func (t *TelegramClient) SendVideo(ctx context.Context, chatID int64, fileID, caption string) error {
	msg := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
	applyCaption(&msg.Caption, &msg.ParseMode, caption)
	return t.send(ctx, msg)
}

func (t *TelegramClient) SendAudio(ctx context.Context, chatID int64, fileID, caption string) error {
	msg := tgbotapi.NewAudio(chatID, tgbotapi.FileID(fileID))
	applyCaption(&msg.Caption, &msg.ParseMode, caption)
	return t.send(ctx, msg)
}

func (t *TelegramClient) SendVoice(ctx context.Context, chatID int64, fileID string) error {
	return t.send(ctx, tgbotapi.NewVoice(chatID, tgbotapi.FileID(fileID)))
}

func (t *TelegramClient) SendSticker(ctx context.Context, chatID int64, fileID string) error {
	return t.send(ctx, tgbotapi.NewSticker(chatID, tgbotapi.FileID(fileID)))
}

func (t *TelegramClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	done := make(chan error, 1)
	go func() {
		_, err := t.Bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// applyCaption escapes and attaches a caption. Empty captions stay unset so
// Telegram does not render an empty MarkdownV2 body.
func applyCaption(caption, parseMode *string, text string) {
	if text == "" {
		return
	}
	*caption = tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text)
	*parseMode = tgbotapi.ModeMarkdownV2
}

// MapUpdate normalizes a Bot API update into the pipeline's inbound message.
// Returns false for updates that carry no message (edits, callbacks, member
// joins); those never enter the pipeline.
func MapUpdate(update tgbotapi.Update) (entities.InboundMessage, bool) {
	m := update.Message
	if m == nil {
		return entities.InboundMessage{}, false
	}

	msg := entities.InboundMessage{
		ID:           m.MessageID,
		SourceChatID: m.Chat.ID,
		Timestamp:    timeFallback(m.Time()),
	}
	if m.From != nil {
		msg.SenderID = m.From.ID
		if m.From.UserName != "" {
			msg.SenderName = "@" + m.From.UserName
		} else {
			msg.SenderName = fmt.Sprintf("user %d", m.From.ID)
		}
	}

	switch {
	case m.Text != "":
		msg.Content = entities.MessageContent{Kind: entities.KindText, Text: m.Text}
	case len(m.Photo) > 0:
		// Telegram sends multiple sizes; the last is the largest.
		msg.Content = entities.MessageContent{
			Kind:    entities.KindPhoto,
			FileID:  m.Photo[len(m.Photo)-1].FileID,
			Caption: m.Caption,
		}
	case m.Document != nil:
		msg.Content = entities.MessageContent{Kind: entities.KindDocument, FileID: m.Document.FileID, Caption: m.Caption}
	case m.Video != nil:
		msg.Content = entities.MessageContent{Kind: entities.KindVideo, FileID: m.Video.FileID, Caption: m.Caption}
	case m.Audio != nil:
		msg.Content = entities.MessageContent{Kind: entities.KindAudio, FileID: m.Audio.FileID, Caption: m.Caption}
	case m.Voice != nil:
		msg.Content = entities.MessageContent{Kind: entities.KindVoice, FileID: m.Voice.FileID}
	case m.Sticker != nil:
		msg.Content = entities.MessageContent{Kind: entities.KindSticker, FileID: m.Sticker.FileID}
	default:
		log.Debug().Int64("chat", m.Chat.ID).Int("message", m.MessageID).
			Msg("update carries no supported content variant")
		msg.Content = entities.MessageContent{Kind: entities.KindNone}
	}

	return msg, true
}

// timeFallback guards against zero Unix timestamps from the Bot API.
func timeFallback(t time.Time) time.Time {
	if t.IsZero() || t.Unix() <= 0 {
		return time.Now()
	}
	return t
}
