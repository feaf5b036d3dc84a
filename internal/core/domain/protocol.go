package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeRegister     = "register"
	TypeMessage      = "message"
	TypeUpload       = "upload"
	TypeAck          = "ack"
	TypeRegistered   = "registered"
	TypeUploadResult = "upload_result"
	TypeError        = "error"
)

// Envelope is the single inbound frame format. Type selects which of the
// optional fields are meaningful.
type Envelope struct {
	Type string `json:"type"`

	// register
	UserID string `json:"user_id,omitempty"`

	// message
	ClientMsgID string `json:"client_msg_id,omitempty"`
	ReceiverID  string `json:"receiver_id,omitempty"`
	Text        string `json:"text,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`

	// upload
	FileName string `json:"file_name,omitempty"`
	Data     string `json:"data,omitempty"` // base64 payload
}

// RegisteredResponse confirms a register frame.
type RegisteredResponse struct {
	Type   string `json:"type"` // "registered"
	UserID string `json:"user_id"`
}

// ChatMessage is emitted to the receiver's connection, augmented with the
// derived conversation key.
type ChatMessage struct {
	Type       string    `json:"type"` // "message"
	ID         uuid.UUID `json:"id"`
	ChatRoomID string    `json:"chat_room_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text"`
	ImageURL   string    `json:"image_url,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// AckMessage is sent only to the sender once their message is durably stored.
type AckMessage struct {
	Type        string    `json:"type"` // "ack"
	ClientMsgID string    `json:"client_msg_id,omitempty"`
	ChatRoomID  string    `json:"chat_room_id"`
	MessageID   uuid.UUID `json:"message_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// UploadResult is the single reply to an upload frame.
type UploadResult struct {
	Type     string `json:"type"` // "upload_result"
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ErrorMessage is a connection-safe error frame.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewChatMessage builds the delivery frame for a persisted message.
func NewChatMessage(m PersistedMessage) ChatMessage {
	return ChatMessage{
		Type:       TypeMessage,
		ID:         m.ID,
		ChatRoomID: m.ConversationKey,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		ImageURL:   m.ImageURL,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}
