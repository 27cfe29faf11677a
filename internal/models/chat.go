package models

import (
	"time"
)

type Chat struct {
	ID           string         `json:"id" bson:"_id" validate:"required"`
	PairKey      string         `json:"-" bson:"pair_key" validate:"required"`
	Participants []string       `json:"participants" bson:"participants" validate:"len=2,dive,required"`
	LastMessage  LastMessage    `json:"last_message" bson:"last_message"`
	UnreadCount  map[string]int `json:"unread_count" bson:"unread_count"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
}

// LastMessage is the snapshot shown in chat lists. It is empty until the first send.
type LastMessage struct {
	Text     string     `json:"text" bson:"text"`
	SenderID string     `json:"sender_id" bson:"sender_id"`
	SentAt   *time.Time `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
}

type Message struct {
	ID        string    `json:"id" bson:"_id" validate:"required"`
	ChatID    string    `json:"chat_id" bson:"chat_id" validate:"required"`
	SenderID  string    `json:"sender_id" bson:"sender_id" validate:"required"`
	Text      string    `json:"text" bson:"text" validate:"required,max=2000"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// PairKey returns the order-independent key for two participants.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// SortedPair returns the two ids in ascending order.
func SortedPair(a, b string) []string {
	if b < a {
		a, b = b, a
	}
	return []string{a, b}
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID.
func (c *Chat) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

type StartChatRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}
