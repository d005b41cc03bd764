package models

import (
	"time"
)

// Direction describes which way a message is crossing the bridge.
type Direction string

const (
	// DirectionInbound is Instagram -> Telegram.
	DirectionInbound Direction = "inbound"
	// DirectionOutbound is Telegram -> Instagram.
	DirectionOutbound Direction = "outbound"
)

// MessageKind is the closed set of payload kinds the translator understands.
// Anything a platform produces that is not listed here arrives as KindUnknown
// and degrades to a textual fallback; no kind is ever dropped silently.
type MessageKind string

const (
	KindText      MessageKind = "text"
	KindImage     MessageKind = "image"
	KindVideo     MessageKind = "video"
	KindVoice     MessageKind = "voice"
	KindDocument  MessageKind = "document"
	KindSticker   MessageKind = "sticker"
	KindAnimation MessageKind = "animation"
	KindShare     MessageKind = "share"
	KindReaction  MessageKind = "reaction"
	KindUnknown   MessageKind = "unknown"
)

// AllMessageKinds lists every kind the translator must handle. Tests iterate
// over this to keep the kind switches exhaustive.
var AllMessageKinds = []MessageKind{
	KindText, KindImage, KindVideo, KindVoice, KindDocument,
	KindSticker, KindAnimation, KindShare, KindReaction, KindUnknown,
}

// MediaPayload points at a remote binary on the originating platform.
type MediaPayload struct {
	URL         string `json:"url"`
	Caption     string `json:"caption,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	DurationSec int    `json:"durationSec,omitempty"`
}

// ReactionPayload describes a like/emoji reaction to an earlier message.
type ReactionPayload struct {
	Emoji           string `json:"emoji"`
	TargetMessageID string `json:"targetMessageId,omitempty"`
	Removed         bool   `json:"removed"`
}

// CarouselItem is one entry of a multi-item payload. Carousels expand to one
// send operation per item, in order.
type CarouselItem struct {
	Kind  MessageKind  `json:"kind"`
	Media MediaPayload `json:"media"`
}

// Message is the normalized unit of work both platform clients hand to the
// bridge. ThreadID is the source thread id for inbound messages and the
// destination topic id for outbound ones.
type Message struct {
	ID                string           `json:"id"`
	ThreadID          string           `json:"threadId"`
	SenderID          string           `json:"senderId"`
	SenderDisplayName string           `json:"senderDisplayName,omitempty"`
	Kind              MessageKind      `json:"kind"`
	Direction         Direction        `json:"direction"`
	Text              string           `json:"text,omitempty"`
	Media             *MediaPayload    `json:"media,omitempty"`
	Items             []CarouselItem   `json:"items,omitempty"`
	Reaction          *ReactionPayload `json:"reaction,omitempty"`
	Timestamp         time.Time        `json:"timestamp"`
}
