package interfaces

import (
	"context"

	"rideshare/internal/models"
)

type ChatRepository interface {
	// FindOrCreateChat returns the chat for chat.PairKey, inserting chat when none exists.
	// At most one chat per pair key is ever stored.
	FindOrCreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, bool, error)
	GetChatByID(ctx context.Context, id string) (*models.Chat, error)
	GetChatsByParticipant(ctx context.Context, userID string, skip, limit int) ([]*models.Chat, error)

	// Messages
	// AddMessage stores message and updates the chat's snapshot and the recipient's
	// unread counter in one transaction.
	AddMessage(ctx context.Context, message *models.Message, recipientID string) error
	GetMessages(ctx context.Context, chatID string, skip, limit int) ([]*models.Message, error)
	ResetUnread(ctx context.Context, chatID, userID string) error
}
