package telegram

import (
	"encoding/json"
)

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

type responseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// forumTopic is the result payload of createForumTopic.
type forumTopic struct {
	MessageThreadID int64  `json:"message_thread_id"`
	Name            string `json:"name"`
}

// sentMessage is the result payload of the send* methods.
type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

// SendResponse is what the bridge sees after a successful send.
type SendResponse struct {
	MessageID string
}
