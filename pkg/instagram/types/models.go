package types

// User is a source-platform participant as the session service reports it.
type User struct {
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	FullName      string `json:"fullName"`
	ProfilePicURL string `json:"profilePicUrl,omitempty"`
}

// Thread is the metadata of a direct-message thread.
type Thread struct {
	ThreadID string `json:"threadId"`
	Title    string `json:"title,omitempty"`
	Users    []User `json:"users,omitempty"`
}

// SendResponse is the session service's acknowledgement of a send.
type SendResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
