package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// identityAlphabet deliberately excludes '_', which is reserved as the
// conversation key separator.
var identityAlphabet = regexp.MustCompile(`^[a-zA-Z0-9@.+-]+$`)

// ValidIdentity reports whether id may be used as a user identity.
func ValidIdentity(id string) bool {
	return id != "" && identityAlphabet.MatchString(id)
}

// ConversationKey derives the canonical identifier for the two-party
// conversation between a and b. It is order-independent: the identities are
// sorted lexicographically before joining, so key(a,b) == key(b,a).
// a == b is a valid self-conversation.
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// Message is one chat message as submitted by a sender. Text and ImageURL are
// each optional; empty text with no image is accepted and persisted as an
// empty-text message.
type Message struct {
	SenderID   string
	ReceiverID string
	Text       string
	ImageURL   string
}

// PersistedMessage is a Message after the store has accepted it. ID and
// CreatedAt are assigned by the store; Read starts false and is flipped by the
// read-tracking collaborator, never here.
type PersistedMessage struct {
	ID              uuid.UUID
	ConversationKey string
	SenderID        string
	ReceiverID      string
	Text            string
	ImageURL        string
	Read            bool
	CreatedAt       time.Time
}

// Inbound is the raw routing input taken off a connection.
type Inbound struct {
	SenderID    string `json:"sender_id" validate:"required"`
	ReceiverID  string `json:"receiver_id" validate:"required"`
	Text        string `json:"text"`
	ImageURL    string `json:"image_url"`
	ClientMsgID string `json:"client_msg_id"`
}

// Receipt reports what routing did with one inbound message. Delivered is true
// only when the receiver had a live connection at lookup time.
type Receipt struct {
	Message   PersistedMessage
	Delivered bool
}
