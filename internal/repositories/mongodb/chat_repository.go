package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rideshare/internal/models"
	"rideshare/internal/repositories/interfaces"
	"rideshare/internal/utils"
	"rideshare/internal/validators"
	"rideshare/pkg/database"
)

type chatRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	messages   *mongo.Collection
}

func NewChatRepository(db *mongo.Database) interfaces.ChatRepository {
	return &chatRepository{
		client:     db.Client(),
		collection: db.Collection(database.CollectionChats),
		messages:   db.Collection(database.CollectionMessages),
	}
}

func (r *chatRepository) FindOrCreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, bool, error) {
	if err := validators.Validate(chat); err != nil {
		return nil, false, err
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":          chat.ID,
			"participants": chat.Participants,
			"last_message": chat.LastMessage,
			"unread_count": chat.UnreadCount,
			"created_at":   chat.CreatedAt,
			"updated_at":   chat.UpdatedAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored models.Chat
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"pair_key": chat.PairKey}, update, opts).Decode(&stored)
	if err != nil {
		// Two concurrent upserts can both miss; the loser hits the unique index.
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, translateError(err, "find or create chat", "chat", chat.PairKey)
		}
		if err := r.collection.FindOne(ctx, bson.M{"pair_key": chat.PairKey}).Decode(&stored); err != nil {
			return nil, false, translateError(err, "get chat by pair", "chat", chat.PairKey)
		}
		return &stored, false, nil
	}

	return &stored, stored.ID == chat.ID, nil
}

func (r *chatRepository) GetChatByID(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err != nil {
		return nil, translateError(err, "get chat", "chat", id)
	}

	return &chat, nil
}

func (r *chatRepository) GetChatsByParticipant(ctx context.Context, userID string, skip, limit int) ([]*models.Chat, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, translateError(err, "find chats", "chat", "")
	}
	defer cursor.Close(ctx)

	chats := make([]*models.Chat, 0)
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, translateError(err, "decode chats", "chat", "")
	}

	return chats, nil
}

func (r *chatRepository) AddMessage(ctx context.Context, message *models.Message, recipientID string) error {
	if err := validators.Validate(message); err != nil {
		return err
	}

	session, err := r.client.StartSession()
	if err != nil {
		return translateError(err, "start session", "chat", message.ChatID)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.messages.InsertOne(sc, message); err != nil {
			return nil, err
		}

		sentAt := message.CreatedAt
		update := bson.M{
			"$set": bson.M{
				"last_message": models.LastMessage{
					Text:     message.Text,
					SenderID: message.SenderID,
					SentAt:   &sentAt,
				},
				"updated_at": message.CreatedAt,
			},
			"$inc": bson.M{"unread_count." + recipientID: 1},
		}

		result, err := r.collection.UpdateOne(sc, bson.M{"_id": message.ChatID}, update)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, mongo.ErrNoDocuments
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return utils.NewError(utils.KindNotFound, "chat not found").With("chat_id", message.ChatID)
		}
		return translateError(err, "add message", "message", message.ID)
	}

	return nil
}

func (r *chatRepository) GetMessages(ctx context.Context, chatID string, skip, limit int) ([]*models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.messages.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, translateError(err, "find messages", "message", "")
	}
	defer cursor.Close(ctx)

	messages := make([]*models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, translateError(err, "decode messages", "message", "")
	}

	return messages, nil
}

func (r *chatRepository) ResetUnread(ctx context.Context, chatID, userID string) error {
	update := bson.M{"$set": bson.M{"unread_count." + userID: 0}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		return translateError(err, "reset unread", "chat", chatID)
	}
	if result.MatchedCount == 0 {
		return utils.NewError(utils.KindNotFound, "chat not found").With("chat_id", chatID)
	}

	return nil
}
