// Package codec converts typed messages to and from their flat storage records.
package codec

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/messenger-go-api/internal/models"
)

// DateLayout is the wire format for message and summary dates.
const DateLayout = time.RFC3339

// ErrMalformedContent indicates a record's content string could not be parsed for
// its declared type. Callers listing a thread drop the record instead of failing.
var ErrMalformedContent = errors.New("malformed message content")

// EncodeContent flattens a message payload into the single content string stored in
// the record. Kinds without a representable payload encode as the empty string.
func EncodeContent(m models.Message) string {
	switch m.Kind {
	case models.KindText:
		return m.Text
	case models.KindPhoto, models.KindVideo:
		return m.MediaURL
	case models.KindLocation:
		return FormatLocation(m.Longitude, m.Latitude)
	default:
		return ""
	}
}

// EncodeRecord builds the flat storage record for a message.
func EncodeRecord(m models.Message) models.MessageRecord {
	return models.MessageRecord{
		ID:          m.ID,
		Type:        string(m.Kind),
		Content:     EncodeContent(m),
		Date:        m.SentAt.UTC().Format(DateLayout),
		SenderEmail: m.SenderEmail,
		IsRead:      m.Read,
		Name:        m.SenderName,
	}
}

// DecodeRecord rebuilds the typed message from a stored record. Records missing
// required fields are rejected; unrecognized types decode as plain text with the
// raw content so unknown kinds degrade instead of failing.
func DecodeRecord(r models.MessageRecord) (models.Message, error) {
	if r.ID == "" || r.Date == "" || r.SenderEmail == "" || r.Type == "" {
		return models.Message{}, fmt.Errorf("%w: missing required fields", ErrMalformedContent)
	}

	sentAt, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: bad date %q", ErrMalformedContent, r.Date)
	}

	message := models.Message{
		ID:          r.ID,
		SenderEmail: r.SenderEmail,
		SenderName:  r.Name,
		SentAt:      sentAt,
		Read:        r.IsRead,
	}

	switch models.MessageKind(r.Type) {
	case models.KindText:
		message.Kind = models.KindText
		message.Text = r.Content
	case models.KindPhoto, models.KindVideo:
		parsed, err := url.ParseRequestURI(r.Content)
		if err != nil || !parsed.IsAbs() {
			return models.Message{}, fmt.Errorf("%w: bad media url %q", ErrMalformedContent, r.Content)
		}
		message.Kind = models.MessageKind(r.Type)
		message.MediaURL = r.Content
	case models.KindLocation:
		longitude, latitude, err := ParseLocation(r.Content)
		if err != nil {
			return models.Message{}, err
		}
		message.Kind = models.KindLocation
		message.Longitude = longitude
		message.Latitude = latitude
	case models.KindAttributedText, models.KindEmoji, models.KindAudio,
		models.KindContact, models.KindLinkPreview, models.KindCustom:
		message.Kind = models.MessageKind(r.Type)
	default:
		// permissive fallback: unknown tags surface as text with the raw content
		message.Kind = models.KindText
		message.Text = r.Content
	}

	return message, nil
}

// FormatLocation renders a coordinate pair as the stored content string,
// longitude first.
func FormatLocation(longitude, latitude float64) string {
	return strconv.FormatFloat(longitude, 'f', -1, 64) + "," + strconv.FormatFloat(latitude, 'f', -1, 64)
}

// ParseLocation parses a stored location content string back into coordinates.
func ParseLocation(content string) (longitude, latitude float64, err error) {
	parts := strings.Split(content, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: bad location %q", ErrMalformedContent, content)
	}

	longitude, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad longitude %q", ErrMalformedContent, parts[0])
	}

	latitude, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad latitude %q", ErrMalformedContent, parts[1])
	}

	return longitude, latitude, nil
}
