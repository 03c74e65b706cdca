package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/messenger-go-api/internal/codec"
	"github.com/noah-isme/messenger-go-api/internal/dto"
	"github.com/noah-isme/messenger-go-api/internal/identity"
	"github.com/noah-isme/messenger-go-api/internal/models"
	"github.com/noah-isme/messenger-go-api/internal/observability"
	"github.com/noah-isme/messenger-go-api/internal/repository"
)

// ErrEmptyMessage indicates the message carried no usable payload after sanitization.
var ErrEmptyMessage = errors.New("message content empty")

// Identity is the authenticated sender of an operation, as bound by the auth layer.
type Identity struct {
	Email string
	Name  string
}

// MessengerService orchestrates the multi-party write sequence that keeps the shared
// thread and both participants' summary mirrors consistent. All writes for one send
// are issued sequentially; a failing step aborts the remainder and leaves the
// already-completed writes in place. Nothing is retried or rolled back.
type MessengerService interface {
	Send(ctx context.Context, sender Identity, req dto.SendMessageRequest) (dto.SendMessageResponse, error)
	ListConversations(ctx context.Context, email string) ([]dto.ConversationResponse, error)
	StreamConversations(ctx context.Context, email string) (<-chan []dto.ConversationResponse, error)
	Thread(ctx context.Context, conversationID string) ([]dto.MessageResponse, error)
	StreamThread(ctx context.Context, conversationID string) (<-chan []dto.MessageResponse, error)
	DeleteConversation(ctx context.Context, email, conversationID string) (bool, error)
	ConversationExists(ctx context.Context, selfEmail, otherEmail string) (string, error)
}

type messengerService struct {
	users         repository.UserRepository
	conversations repository.ConversationRepository
	threads       repository.ThreadRepository
	nats          *nats.Conn
	natsSubject   string
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
	nodeID        string
	now           func() time.Time
}

type messageEvent struct {
	Source         string               `json:"source"`
	ConversationID string               `json:"conversation_id"`
	Record         models.MessageRecord `json:"record"`
	SentAt         time.Time            `json:"sent_at"`
}

// NewMessengerService creates the synchronization orchestrator. The NATS connection
// is optional; when nil, events only reach subscribers through the document store's
// own change feed.
func NewMessengerService(
	users repository.UserRepository,
	conversations repository.ConversationRepository,
	threads repository.ThreadRepository,
	natsConn *nats.Conn,
	channelBase string,
	validate *validator.Validate,
	logger zerolog.Logger,
) MessengerService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	natsSubject := ""
	if channelBase != "" {
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".messages"
	}

	return &messengerService{
		users:         users,
		conversations: conversations,
		threads:       threads,
		nats:          natsConn,
		natsSubject:   natsSubject,
		validator:     validate,
		sanitizer:     sanitizer,
		logger:        logger.With().Str("component", "messenger_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/messenger-go-api/internal/service/messenger"),
		nodeID:        uuid.NewString(),
		now:           time.Now,
	}
}

func (s *messengerService) Send(ctx context.Context, sender Identity, req dto.SendMessageRequest) (dto.SendMessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SendMessageResponse{}, err
	}

	message, err := s.buildMessage(sender, req)
	if err != nil {
		return dto.SendMessageResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.String("messenger.sender", message.SenderEmail),
		attribute.String("messenger.type", string(message.Kind)),
		attribute.Bool("messenger.new_conversation", req.ConversationID == ""),
	}
	spanCtx, span := s.tracer.Start(ctx, "messenger.send", trace.WithAttributes(attrs...))
	defer span.End()

	var response dto.SendMessageResponse
	if req.ConversationID == "" {
		response, err = s.createConversation(spanCtx, sender, req, message)
	} else {
		response, err = s.appendToConversation(spanCtx, req, message)
	}
	if err != nil {
		span.RecordError(err)
		return dto.SendMessageResponse{}, err
	}

	observability.MessagesSent().WithLabelValues(string(message.Kind)).Inc()
	s.publish(spanCtx, response.ConversationID, codec.EncodeRecord(message))

	return response, nil
}

// buildMessage resolves the typed payload and assigns the client-side message id.
func (s *messengerService) buildMessage(sender Identity, req dto.SendMessageRequest) (models.Message, error) {
	selfKey := identity.SafeEmail(sender.Email)
	sentAt := s.now().UTC()

	message := models.Message{
		ID:          identity.NewMessageID(req.OtherUserEmail, selfKey, sentAt),
		SenderEmail: selfKey,
		SenderName:  req.Name,
		SentAt:      sentAt,
	}

	kind := req.Type
	if kind == "" {
		kind = string(models.KindText)
	}

	switch models.MessageKind(kind) {
	case models.KindText:
		clean := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
		if clean == "" {
			return models.Message{}, ErrEmptyMessage
		}
		message.Kind = models.KindText
		message.Text = clean
	case models.KindPhoto, models.KindVideo:
		if strings.TrimSpace(req.Content) == "" {
			return models.Message{}, ErrEmptyMessage
		}
		message.Kind = models.MessageKind(kind)
		message.MediaURL = strings.TrimSpace(req.Content)
	case models.KindLocation:
		if req.Longitude == nil || req.Latitude == nil {
			return models.Message{}, fmt.Errorf("%w: location requires coordinates", ErrEmptyMessage)
		}
		message.Kind = models.KindLocation
		message.Longitude = *req.Longitude
		message.Latitude = *req.Latitude
	default:
		return models.Message{}, fmt.Errorf("unsupported message type %q", kind)
	}

	return message, nil
}

// createConversation runs the first-message sequence: sender record check, mirrored
// summary writes (peer first, best-effort), then thread creation.
func (s *messengerService) createConversation(ctx context.Context, sender Identity, req dto.SendMessageRequest, message models.Message) (dto.SendMessageResponse, error) {
	selfKey := message.SenderEmail
	otherKey := identity.SafeEmail(req.OtherUserEmail)

	user, err := s.users.Get(ctx, selfKey)
	if err != nil {
		return dto.SendMessageResponse{}, fmt.Errorf("sender record missing: %w", err)
	}

	// the record stores the counterpart's display name alongside the sender key
	message.SenderName = req.Name
	record := codec.EncodeRecord(message)

	conversationID := identity.ConversationID(message.ID)
	snapshot := models.LatestMessage{
		Date:    record.Date,
		Message: record.Content,
		IsRead:  false,
	}

	ownSummary := models.ConversationSummary{
		ID:             conversationID,
		OtherUserEmail: otherKey,
		Name:           req.Name,
		LatestMessage:  snapshot,
	}
	peerSummary := models.ConversationSummary{
		ID:             conversationID,
		OtherUserEmail: selfKey,
		Name:           user.FullName(),
		LatestMessage:  snapshot,
	}

	// Peer mirror first, best-effort: a failure here leaves the mirrors diverged but
	// must not block the sender's own view or the thread.
	if err := s.conversations.Upsert(ctx, otherKey, peerSummary); err != nil {
		observability.MirrorWriteFailures().WithLabelValues("peer").Inc()
		s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("peer summary mirror write failed")
	}

	if err := s.conversations.Upsert(ctx, selfKey, ownSummary); err != nil {
		return dto.SendMessageResponse{}, fmt.Errorf("failed to write own summary: %w", err)
	}

	if err := s.threads.Create(ctx, conversationID, record); err != nil {
		return dto.SendMessageResponse{}, err
	}

	observability.ConversationsCreated().Inc()

	return dto.SendMessageResponse{
		ConversationID: conversationID,
		MessageID:      message.ID,
		SentAt:         message.SentAt,
		Created:        true,
	}, nil
}

// appendToConversation runs the existing-conversation sequence: thread append, own
// summary update, peer summary update. Each step waits for the previous one; the
// first failure aborts the rest.
func (s *messengerService) appendToConversation(ctx context.Context, req dto.SendMessageRequest, message models.Message) (dto.SendMessageResponse, error) {
	selfKey := message.SenderEmail
	otherKey := identity.SafeEmail(req.OtherUserEmail)
	record := codec.EncodeRecord(message)

	if err := s.threads.Append(ctx, req.ConversationID, record); err != nil {
		return dto.SendMessageResponse{}, err
	}

	snapshot := models.LatestMessage{
		Date:    record.Date,
		Message: record.Content,
		IsRead:  false,
	}

	// Upsert lazily recreates a summary the participant deleted earlier; the thread
	// outlives either side's summary entry.
	ownSummary := models.ConversationSummary{
		ID:             req.ConversationID,
		OtherUserEmail: otherKey,
		Name:           req.Name,
		LatestMessage:  snapshot,
	}
	if err := s.conversations.Upsert(ctx, selfKey, ownSummary); err != nil {
		observability.MirrorWriteFailures().WithLabelValues("own").Inc()
		return dto.SendMessageResponse{}, fmt.Errorf("failed to update own summary: %w", err)
	}

	peerName := message.SenderName
	if user, err := s.users.Get(ctx, selfKey); err == nil {
		peerName = user.FullName()
	}
	peerSummary := models.ConversationSummary{
		ID:             req.ConversationID,
		OtherUserEmail: selfKey,
		Name:           peerName,
		LatestMessage:  snapshot,
	}
	if err := s.conversations.Upsert(ctx, otherKey, peerSummary); err != nil {
		observability.MirrorWriteFailures().WithLabelValues("peer").Inc()
		return dto.SendMessageResponse{}, fmt.Errorf("failed to update peer summary: %w", err)
	}

	return dto.SendMessageResponse{
		ConversationID: req.ConversationID,
		MessageID:      message.ID,
		SentAt:         message.SentAt,
	}, nil
}

func (s *messengerService) ListConversations(ctx context.Context, email string) ([]dto.ConversationResponse, error) {
	summaries, err := s.conversations.List(ctx, identity.SafeEmail(email))
	if err != nil {
		return nil, err
	}

	return dto.NewConversationResponseSlice(summaries), nil
}

func (s *messengerService) StreamConversations(ctx context.Context, email string) (<-chan []dto.ConversationResponse, error) {
	snapshots, err := s.conversations.Watch(ctx, identity.SafeEmail(email))
	if err != nil {
		return nil, err
	}

	observability.LiveFeeds().WithLabelValues("conversations").Inc()

	out := make(chan []dto.ConversationResponse, 1)
	go func() {
		defer close(out)
		for summaries := range snapshots {
			select {
			case out <- dto.NewConversationResponseSlice(summaries):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *messengerService) Thread(ctx context.Context, conversationID string) ([]dto.MessageResponse, error) {
	messages, err := s.threads.List(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	return dto.NewMessageResponseSlice(messages), nil
}

func (s *messengerService) StreamThread(ctx context.Context, conversationID string) (<-chan []dto.MessageResponse, error) {
	snapshots, err := s.threads.Watch(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	observability.LiveFeeds().WithLabelValues("thread").Inc()

	out := make(chan []dto.MessageResponse, 1)
	go func() {
		defer close(out)
		for messages := range snapshots {
			select {
			case out <- dto.NewMessageResponseSlice(messages):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *messengerService) DeleteConversation(ctx context.Context, email, conversationID string) (bool, error) {
	found, err := s.conversations.Delete(ctx, identity.SafeEmail(email), conversationID)
	if err != nil {
		return false, err
	}

	if !found {
		// matches the observed behavior: a full scan without a hit is not an error
		s.logger.Info().Str("conversation_id", conversationID).Msg("delete found no matching summary")
	}

	// the thread itself is intentionally left in place; only the summary entry goes
	return found, nil
}

func (s *messengerService) ConversationExists(ctx context.Context, selfEmail, otherEmail string) (string, error) {
	return s.conversations.Exists(ctx, identity.SafeEmail(otherEmail), identity.SafeEmail(selfEmail))
}

func (s *messengerService) publish(ctx context.Context, conversationID string, record models.MessageRecord) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}

	event := messageEvent{
		Source:         s.nodeID,
		ConversationID: conversationID,
		Record:         record,
		SentAt:         s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal message event")
		return
	}

	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish message event")
	}
}
