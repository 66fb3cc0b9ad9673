package entities

import "time"

// MediaKind identifies which variant of MessageContent is populated.
type MediaKind int

const (
	KindNone MediaKind = iota // invalid: no variant populated
	KindText
	KindPhoto
	KindDocument
	KindVideo
	KindAudio
	KindVoice
	KindSticker
)

// Tag returns the human-readable media type used in logs and admin notices.
func (k MediaKind) Tag() string {
	switch k {
	case KindText:
		return "Text"
	case KindPhoto:
		return "Photo"
	case KindDocument:
		return "Document"
	case KindVideo:
		return "Video"
	case KindAudio:
		return "Audio"
	case KindVoice:
		return "Voice"
	case KindSticker:
		return "Sticker"
	default:
		return "Unknown"
	}
}

// MessageContent is a closed tagged variant over the media types the bot
// relays. Exactly one variant is populated: Text for KindText, FileID for
// everything else. Caption is meaningful for photo/document/video/audio.
type MessageContent struct {
	Kind    MediaKind
	Text    string
	FileID  string
	Caption string
}

// PrimaryText returns the text the classifier should look at: the message
// text for text messages, otherwise the caption (which may be empty).
func (c MessageContent) PrimaryText() string {
	if c.Kind == KindText {
		return c.Text
	}
	return c.Caption
}

// Valid reports whether the fields required by the variant are set.
func (c MessageContent) Valid() bool {
	switch c.Kind {
	case KindText:
		return c.Text != ""
	case KindPhoto, KindDocument, KindVideo, KindAudio, KindVoice, KindSticker:
		return c.FileID != ""
	default:
		return false
	}
}

// InboundMessage is a normalized inbound chat message, already stripped of
// transport-level detail by the webhook/polling listener.
type InboundMessage struct {
	ID           int
	SourceChatID int64
	SenderID     int64
	SenderName   string
	Timestamp    time.Time
	Content      MessageContent
}

// Classification is the result of running the content classifier on a single
// message. Produced fresh per message, never persisted.
type Classification struct {
	IsSpam     bool
	IsHomework bool
	Score      int
}
