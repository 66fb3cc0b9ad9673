package interfaces

import "context"

// OutboundClient is the narrow surface of the chat API the core depends on.
// One method per media variant plus message deletion for the moderation path.
type OutboundClient interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
	SendVideo(ctx context.Context, chatID int64, fileID, caption string) error
	SendAudio(ctx context.Context, chatID int64, fileID, caption string) error
	SendVoice(ctx context.Context, chatID int64, fileID string) error
	SendSticker(ctx context.Context, chatID int64, fileID string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// TextExtractor recovers text from an image (OCR collaborator).
type TextExtractor interface {
	ExtractText(ctx context.Context, fileID string) (string, error)
}

// Transcriber recovers text from audio/voice/video (speech-to-text collaborator).
type Transcriber interface {
	Transcribe(ctx context.Context, fileID string) (string, error)
}
