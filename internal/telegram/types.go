package telegram

import "encoding/json"

// response is the envelope every Bot API method returns.
type response struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

type responseParameters struct {
	RetryAfter      int   `json:"retry_after,omitempty"`
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
}

// User is the subset of the Bot API User object returned by getMe.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// SendMessageRequest is the body of sendMessage.
type SendMessageRequest struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// PinChatMessageRequest is the body of pinChatMessage.
type PinChatMessageRequest struct {
	ChatID              string `json:"chat_id"`
	MessageID           int64  `json:"message_id"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// UnpinChatMessageRequest is the body of unpinChatMessage.
type UnpinChatMessageRequest struct {
	ChatID    string `json:"chat_id"`
	MessageID int64  `json:"message_id,omitempty"`
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}
