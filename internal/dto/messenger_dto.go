package dto

import (
	"time"

	"github.com/noah-isme/messenger-go-api/internal/codec"
	"github.com/noah-isme/messenger-go-api/internal/models"
)

// SendMessageRequest is the payload for sending a message. ConversationID empty means
// this is the first message and a conversation must be created.
type SendMessageRequest struct {
	ConversationID string   `json:"conversation_id" validate:"omitempty,min=1,max=256"`
	OtherUserEmail string   `json:"other_user_email" validate:"required,email"`
	Name           string   `json:"name" validate:"required,min=1,max=128"`
	Type           string   `json:"type" validate:"omitempty,oneof=text photo video location"`
	Content        string   `json:"content" validate:"omitempty,max=4000"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
}

// SendMessageResponse acknowledges an accepted message.
type SendMessageResponse struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	SentAt         time.Time `json:"sent_at"`
	Created        bool      `json:"created"`
}

// LatestMessageResponse mirrors the denormalized latest-message snapshot.
type LatestMessageResponse struct {
	Date    string `json:"date"`
	Message string `json:"message"`
	IsRead  bool   `json:"is_read"`
}

// ConversationResponse is the serialized form of one conversation summary.
type ConversationResponse struct {
	ID             string                `json:"id"`
	OtherUserEmail string                `json:"other_user_email"`
	Name           string                `json:"name"`
	LatestMessage  LatestMessageResponse `json:"latest_message"`
}

// MessageResponse is the serialized form of one decoded thread message.
type MessageResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	SenderEmail string    `json:"sender_email"`
	SenderName  string    `json:"sender_name"`
	SentAt      time.Time `json:"sent_at"`
	IsRead      bool      `json:"is_read"`
	Content     string    `json:"content,omitempty"`
	MediaURL    string    `json:"media_url,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
}

// ConversationExistsResponse reports the conversation id found for a participant pair.
type ConversationExistsResponse struct {
	ConversationID string `json:"conversation_id"`
}

// DeleteConversationResponse reports whether a summary entry was actually removed.
type DeleteConversationResponse struct {
	Found bool `json:"found"`
}

// NewConversationResponse converts a summary model into a DTO.
func NewConversationResponse(summary models.ConversationSummary) ConversationResponse {
	return ConversationResponse{
		ID:             summary.ID,
		OtherUserEmail: summary.OtherUserEmail,
		Name:           summary.Name,
		LatestMessage: LatestMessageResponse{
			Date:    summary.LatestMessage.Date,
			Message: summary.LatestMessage.Message,
			IsRead:  summary.LatestMessage.IsRead,
		},
	}
}

// NewConversationResponseSlice converts a slice of summaries into DTOs.
func NewConversationResponseSlice(summaries []models.ConversationSummary) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, NewConversationResponse(summary))
	}
	return out
}

// NewMessageResponse converts a decoded message into a DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	response := MessageResponse{
		ID:          message.ID,
		Type:        string(message.Kind),
		SenderEmail: message.SenderEmail,
		SenderName:  message.SenderName,
		SentAt:      message.SentAt,
		IsRead:      message.Read,
	}

	switch message.Kind {
	case models.KindText:
		response.Content = message.Text
	case models.KindPhoto, models.KindVideo:
		response.MediaURL = message.MediaURL
	case models.KindLocation:
		longitude, latitude := message.Longitude, message.Latitude
		response.Longitude = &longitude
		response.Latitude = &latitude
		response.Content = codec.FormatLocation(longitude, latitude)
	}

	return response
}

// NewMessageResponseSlice converts a slice of decoded messages into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}
