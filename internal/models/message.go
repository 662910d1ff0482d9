package models

import "time"

// InboundMessage is a chat message delivered by the messaging transport.
type InboundMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	IsSelf    bool      `json:"isSelf"`
	Timestamp time.Time `json:"timestamp"`
}

// ReplyKind tells which reply template produced an OutboundReply.
type ReplyKind string

const (
	ReplyUsageHint ReplyKind = "usage_hint"
	ReplyNotFound  ReplyKind = "not_found"
	ReplySingle    ReplyKind = "single"
	ReplyList      ReplyKind = "list"
)

// OutboundReply is the text to send back to the chat a message came from.
type OutboundReply struct {
	Recipient  string    `json:"recipient"`
	Text       string    `json:"text"`
	Kind       ReplyKind `json:"kind"`
	Query      string    `json:"query,omitempty"`
	MatchCount int       `json:"matchCount"`
}
