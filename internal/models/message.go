package models

import "time"

// MessageKind enumerates the message payload variants. The string values are the
// exact type tags used in stored records.
type MessageKind string

const (
	KindText           MessageKind = "text"
	KindAttributedText MessageKind = "attributed_text"
	KindPhoto          MessageKind = "photo"
	KindVideo          MessageKind = "video"
	KindLocation       MessageKind = "location"
	KindEmoji          MessageKind = "emoji"
	KindAudio          MessageKind = "audio"
	KindContact        MessageKind = "contact"
	KindLinkPreview    MessageKind = "linkPreview"
	KindCustom         MessageKind = "custom"
)

// Message is the typed in-memory form of a chat message. Which payload fields are
// meaningful depends on Kind: Text for text messages, MediaURL for photo/video,
// Longitude/Latitude for location. Remaining kinds carry no representable payload.
type Message struct {
	ID          string
	Kind        MessageKind
	SenderEmail string
	SenderName  string
	SentAt      time.Time
	Read        bool

	Text      string
	MediaURL  string
	Longitude float64
	Latitude  float64
}

// MessageRecord is the flat storage representation of a message inside a thread list.
type MessageRecord struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Date        string `json:"date"`
	SenderEmail string `json:"sender_email"`
	IsRead      bool   `json:"is_read"`
	Name        string `json:"name"`
}
