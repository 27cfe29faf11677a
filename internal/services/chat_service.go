package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rideshare/internal/models"
	"rideshare/internal/observability"
	"rideshare/internal/repositories/interfaces"
	"rideshare/internal/utils"
	"rideshare/pkg/logger"
)

type ChatService interface {
	// FindOrCreateChat returns the single chat between a and b, creating it on first use.
	FindOrCreateChat(ctx context.Context, a, b string) (*models.Chat, error)
	SendMessage(ctx context.Context, chatID, senderID, text string) (*models.Message, error)
	MarkRead(ctx context.Context, chatID, userID string) error
	ListChats(ctx context.Context, userID string, skip, limit int) ([]*models.Chat, error)
	ListMessages(ctx context.Context, chatID, userID string, skip, limit int) ([]*models.Message, error)
}

type chatService struct {
	chatRepo     interfaces.ChatRepository
	logger       *logger.Logger
	storeTimeout time.Duration
}

func NewChatService(chatRepo interfaces.ChatRepository, logger *logger.Logger, storeTimeout time.Duration) ChatService {
	return &chatService{
		chatRepo:     chatRepo,
		logger:       logger,
		storeTimeout: storeTimeoutOrDefault(storeTimeout),
	}
}

func (s *chatService) FindOrCreateChat(ctx context.Context, a, b string) (*models.Chat, error) {
	if err := validateParticipant(a); err != nil {
		return nil, err
	}
	if err := validateParticipant(b); err != nil {
		return nil, err
	}
	if a == b {
		return nil, utils.ErrInvalidParticipant.With("participant", a).With("reason", "cannot chat with yourself")
	}

	now := timeNow()
	participants := models.SortedPair(a, b)
	chat := &models.Chat{
		ID:           primitive.NewObjectID().Hex(),
		PairKey:      models.PairKey(a, b),
		Participants: participants,
		UnreadCount: map[string]int{
			participants[0]: 0,
			participants[1]: 0,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	stored, created, err := s.chatRepo.FindOrCreateChat(storeCtx, chat)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.LogChatEvent(stored.ID, "created", map[string]interface{}{
			"participants": stored.Participants,
		})
	}

	return stored, nil
}

func (s *chatService) SendMessage(ctx context.Context, chatID, senderID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.NewError(utils.KindValidation, "message text is required").With("text", "required")
	}
	if len([]rune(text)) > utils.MaxMessageLength {
		return nil, utils.NewError(utils.KindValidation, "message text is too long").With("text", "max")
	}

	chat, err := s.participantChat(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:        primitive.NewObjectID().Hex(),
		ChatID:    chat.ID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: timeNow(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.chatRepo.AddMessage(storeCtx, message, chat.OtherParticipant(senderID)); err != nil {
		return nil, err
	}

	observability.ChatMessagesTotal.Inc()
	s.logger.WithUserID(senderID).WithField("chat_id", chat.ID).Debug("Message sent")

	return message, nil
}

func (s *chatService) MarkRead(ctx context.Context, chatID, userID string) error {
	if _, err := s.participantChat(ctx, chatID, userID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.chatRepo.ResetUnread(ctx, chatID, userID)
}

func (s *chatService) ListChats(ctx context.Context, userID string, skip, limit int) ([]*models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.chatRepo.GetChatsByParticipant(ctx, userID, skip, limit)
}

func (s *chatService) ListMessages(ctx context.Context, chatID, userID string, skip, limit int) ([]*models.Message, error) {
	if _, err := s.participantChat(ctx, chatID, userID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.chatRepo.GetMessages(ctx, chatID, skip, limit)
}

func (s *chatService) participantChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	chat, err := s.chatRepo.GetChatByID(storeCtx, chatID)
	cancel()
	if err != nil {
		return nil, err
	}

	if !chat.HasParticipant(userID) {
		return nil, utils.ErrInvalidParticipant.With("chat_id", chatID).With("participant", userID)
	}
	return chat, nil
}

// Participant ids become document field names in unread_count.
func validateParticipant(id string) error {
	if strings.TrimSpace(id) == "" {
		return utils.ErrInvalidParticipant.With("reason", "participant id is empty")
	}
	if strings.ContainsAny(id, ".$:") {
		return utils.ErrInvalidParticipant.With("participant", id).With("reason", "participant id has reserved characters")
	}
	return nil
}
