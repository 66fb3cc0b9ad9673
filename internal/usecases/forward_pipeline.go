package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"homework-forwarder/internal/entities"
	"homework-forwarder/internal/interfaces"
	"homework-forwarder/internal/repository"
)

// Outcome is the terminal state of the pipeline for one inbound message.
type Outcome int

const (
	OutcomeDropped   Outcome = iota // silently dropped (no route, not homework)
	OutcomeDeleted                  // deleted at the source and admin alerted
	OutcomeForwarded                // reached at least one destination
	OutcomeFailed                   // every destination attempt failed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDropped:
		return "dropped"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeForwarded:
		return "forwarded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const snippetLen = 100

// ForwardPipeline orchestrates classification, routing, dispatch, logging and
// admin notification for each inbound message. Messages are independent: a
// failure while processing one never affects the next.
type ForwardPipeline struct {
	Routes     *repository.RouteTable
	Store      *repository.ActivityStore
	Dispatcher *MediaDispatcher

	Outbound    interfaces.OutboundClient
	Extractor   interfaces.TextExtractor
	Transcriber interfaces.Transcriber

	AdminChatID int64

	// ForwardUncaptionedMedia decides what happens to media with no caption
	// and no recoverable text: forward anyway (the original bot's common
	// behavior) or drop.
	ForwardUncaptionedMedia bool

	mu      sync.RWMutex
	allowed map[int64]struct{}
}

// SetAllowedSources replaces the source allow-list (startup and reload).
func (p *ForwardPipeline) SetAllowedSources(sources map[int64]struct{}) {
	copied := make(map[int64]struct{}, len(sources))
	for id := range sources {
		copied[id] = struct{}{}
	}
	p.mu.Lock()
	p.allowed = copied
	p.mu.Unlock()
}

// AllowSource adds a single source to the allow-list (route added at runtime).
func (p *ForwardPipeline) AllowSource(source int64) {
	p.mu.Lock()
	if p.allowed == nil {
		p.allowed = make(map[int64]struct{})
	}
	p.allowed[source] = struct{}{}
	p.mu.Unlock()
}

func (p *ForwardPipeline) sourceAllowed(source int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.allowed[source]
	return ok
}

// Handle runs one message through the state machine and returns its terminal
// state. It only returns an error for programming mistakes; expected
// rejections (spam, untrusted source, no route) are outcomes, not errors.
func (p *ForwardPipeline) Handle(ctx context.Context, msg entities.InboundMessage) (outcome Outcome, err error) {
	logger := log.With().
		Int64("source", msg.SourceChatID).
		Int64("sender", msg.SenderID).
		Int("message", msg.ID).
		Logger()

	// Unexpected failures become the Failed terminal state with a sanitized
	// admin message; they must not take the process down.
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("pipeline panic recovered")
			p.notifyAdmin(fmt.Sprintf("⚠️ Internal error while processing a message from %s.", msg.SenderName))
			outcome, err = OutcomeFailed, nil
		}
	}()

	if !msg.Content.Valid() {
		logger.Error().Str("kind", msg.Content.Kind.Tag()).Msg("message carries no usable content variant, dropping")
		return OutcomeDropped, nil
	}

	// Activity tracking happens on receipt, whatever the outcome.
	p.Store.UpsertSender(msg.SenderID, msg.SenderName, snippet(msg.Content.PrimaryText()), msg.Timestamp)

	if !p.sourceAllowed(msg.SourceChatID) {
		logger.Warn().Msg("message from untrusted source, deleting")
		p.deleteMessage(msg)
		p.notifyAdmin(fmt.Sprintf("⛔️ Deleted a message from untrusted chat %d (sender %s).", msg.SourceChatID, msg.SenderName))
		return OutcomeDeleted, nil
	}

	text := msg.Content.PrimaryText()
	if text == "" && msg.Content.Kind != entities.KindText {
		text = p.recoverText(ctx, msg.Content, logger)
	}

	result := ClassifyText(text)
	switch {
	case result.IsSpam:
		logger.Info().Msg("spam detected, deleting")
		p.deleteMessage(msg)
		p.notifyAdmin(fmt.Sprintf("🛑 Spam from %s deleted: %q", msg.SenderName, snippet(text)))
		return OutcomeDeleted, nil
	case text != "" && !result.IsHomework:
		logger.Debug().Int("score", result.Score).Msg("not homework, dropping")
		return OutcomeDropped, nil
	case text == "" && !p.ForwardUncaptionedMedia:
		logger.Debug().Str("media", msg.Content.Kind.Tag()).Msg("uncaptioned media dropped by policy")
		return OutcomeDropped, nil
	}

	dests := p.Routes.Resolve(msg.SourceChatID)
	if len(dests) == 0 {
		logger.Warn().Msg("no destinations configured for source, dropping")
		return OutcomeDropped, nil
	}

	// Best-effort fan-out: each destination is attempted independently.
	mediaType := msg.Content.Kind.Tag()
	delivered := 0
	var failures []string
	for _, dest := range dests {
		tag, sendErr := p.Dispatcher.Send(ctx, msg.Content, dest)
		mediaType = tag
		if sendErr != nil {
			logger.Error().Err(sendErr).Int64("destination", dest).Msg("dispatch failed")
			failures = append(failures, fmt.Sprintf("%d: %v", dest, sendErr))
			continue
		}
		delivered++
		p.Store.Append(entities.ForwardLogEntry{
			Timestamp:   time.Now(),
			SenderName:  msg.SenderName,
			MediaType:   tag,
			Snippet:     snippet(text),
			Destination: dest,
		})
	}

	if delivered == 0 {
		p.notifyAdmin(fmt.Sprintf("❌ Failed to forward %s from %s (chat %d).\n%s",
			mediaType, msg.SenderName, msg.SourceChatID, strings.Join(failures, "\n")))
		return OutcomeFailed, nil
	}

	summary := fmt.Sprintf("📫 Forwarded %s from %s (chat %d) to %d/%d destination(s).",
		mediaType, msg.SenderName, msg.SourceChatID, delivered, len(dests))
	if len(failures) > 0 {
		summary += "\nFailed: " + strings.Join(failures, "; ")
	}
	p.notifyAdmin(summary)

	logger.Info().Str("media", mediaType).Int("delivered", delivered).Int("destinations", len(dests)).
		Msg("message forwarded")
	return OutcomeForwarded, nil
}

// recoverText asks the OCR/transcription collaborators for text when a media
// message has no caption. Collaborator failure degrades to "no text".
func (p *ForwardPipeline) recoverText(ctx context.Context, content entities.MessageContent, logger zerolog.Logger) string {
	var (
		text string
		err  error
	)
	switch content.Kind {
	case entities.KindPhoto:
		if p.Extractor == nil {
			return ""
		}
		text, err = p.Extractor.ExtractText(ctx, content.FileID)
	case entities.KindVoice, entities.KindAudio, entities.KindVideo:
		if p.Transcriber == nil {
			return ""
		}
		text, err = p.Transcriber.Transcribe(ctx, content.FileID)
	default:
		return ""
	}
	if err != nil {
		logger.Warn().Err(err).Str("media", content.Kind.Tag()).Msg("text recovery failed, classifying without text")
		return ""
	}
	return strings.TrimSpace(text)
}

// deleteMessage removes the original message at its source. Best-effort: the
// bot may lack delete rights in the chat.
func (p *ForwardPipeline) deleteMessage(msg entities.InboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Outbound.DeleteMessage(ctx, msg.SourceChatID, msg.ID); err != nil {
		log.Warn().Err(err).Int64("source", msg.SourceChatID).Int("message", msg.ID).
			Msg("failed to delete message")
	}
}

// notifyAdmin sends the single per-message outcome notice to the admin chat.
func (p *ForwardPipeline) notifyAdmin(text string) {
	if p.AdminChatID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Outbound.SendText(ctx, p.AdminChatID, text); err != nil {
		log.Warn().Err(err).Msg("failed to notify admin")
	}
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "…"
}
