package models

// SendOpType selects the platform send primitive for an operation.
type SendOpType string

const (
	SendOpText     SendOpType = "text"
	SendOpPhoto    SendOpType = "photo"
	SendOpVideo    SendOpType = "video"
	SendOpDocument SendOpType = "document"
)

// SendOp is one outbound send the translator produced from a normalized
// message. MediaURL, when set, names a remote binary that must go through
// the transfer pipeline before the send; Text doubles as the caption for
// media operations.
type SendOp struct {
	Type     SendOpType `json:"type"`
	Text     string     `json:"text,omitempty"`
	MediaURL string     `json:"mediaUrl,omitempty"`
	FileName string     `json:"fileName,omitempty"`
}
