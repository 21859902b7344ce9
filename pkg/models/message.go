package models

import "time"

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// IsValid checks if the message role is valid.
func (r MessageRole) IsValid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Message is a single turn in a lead conversation.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Channel identifies the transport a message arrived on or leaves through.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
	ChannelVoice Channel = "voice"
)

// IsValid checks if the channel is valid.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelChat, ChannelVoice:
		return true
	default:
		return false
	}
}
