package usecases

import (
	"context"
	"time"
	"unicode/utf8"

	"homework-forwarder/internal/entities"
	"homework-forwarder/internal/interfaces"
)

// MediaDispatcher maps a content variant to the matching outbound send
// operation. The switch is exhaustive over the closed MediaKind set; an
// unknown kind is an error, never a silent skip.
type MediaDispatcher struct {
	Outbound interfaces.OutboundClient

	// Timeout bounds each send so one unreachable destination cannot stall
	// the fan-out. Zero means no bound beyond the caller's context.
	Timeout time.Duration
}

// Send forwards the content to one destination and returns the media type tag
// used for logging and the admin summary.
func (d *MediaDispatcher) Send(ctx context.Context, content entities.MessageContent, dest int64) (string, error) {
	tag := content.Kind.Tag()

	if content.Caption != "" && !utf8.ValidString(content.Caption) {
		return tag, ErrInvalidCaption
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	var err error
	switch content.Kind {
	case entities.KindText:
		err = d.Outbound.SendText(ctx, dest, content.Text)
	case entities.KindPhoto:
		err = d.Outbound.SendPhoto(ctx, dest, content.FileID, content.Caption)
	case entities.KindDocument:
		err = d.Outbound.SendDocument(ctx, dest, content.FileID, content.Caption)
	case entities.KindVideo:
		err = d.Outbound.SendVideo(ctx, dest, content.FileID, content.Caption)
	case entities.KindAudio:
		err = d.Outbound.SendAudio(ctx, dest, content.FileID, content.Caption)
	case entities.KindVoice:
		err = d.Outbound.SendVoice(ctx, dest, content.FileID)
	case entities.KindSticker:
		err = d.Outbound.SendSticker(ctx, dest, content.FileID)
	default:
		return tag, ErrUnsupportedMediaType
	}
	return tag, err
}
