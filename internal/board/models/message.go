package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
)

// MaxContentLength bounds a board message, matching the composer limit in
// the resident app.
const MaxContentLength = 500

// Message is one entry on a community's board. Admin messages broadcast to
// every member; member messages are addressed to the admin. SenderName is a
// creation-time snapshot.
type Message struct {
	ID          id.MessageID   `json:"id"`
	CommunityID id.CommunityID `json:"community_id"`
	SenderID    id.AccountID   `json:"sender_id"`
	SenderName  string         `json:"sender_name"`
	Content     string         `json:"content"`
	FromAdmin   bool           `json:"from_admin"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewMessage validates and builds a board message.
func NewMessage(messageID id.MessageID, communityID id.CommunityID, senderID id.AccountID, senderName, content string, fromAdmin bool, now time.Time) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "message is empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, dErrors.New(dErrors.CodeBadRequest, "message exceeds 500 characters")
	}
	return &Message{
		ID:          messageID,
		CommunityID: communityID,
		SenderID:    senderID,
		SenderName:  senderName,
		Content:     content,
		FromAdmin:   fromAdmin,
		CreatedAt:   now,
	}, nil
}
