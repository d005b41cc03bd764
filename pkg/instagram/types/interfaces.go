package types

import (
	"context"
)

// Client is the source-platform boundary. Login, session and challenge
// handling live behind it; the bridge only sends and reads metadata.
// Implementations classify raw provider errors into the bridge taxonomy.
type Client interface {
	SendText(ctx context.Context, threadID, text string) (*SendResponse, error)
	SendPhoto(ctx context.Context, threadID, filePath, caption string) (*SendResponse, error)
	SendVideo(ctx context.Context, threadID, filePath, caption string) (*SendResponse, error)

	GetThread(ctx context.Context, threadID string) (*Thread, error)
	GetUser(ctx context.Context, userID string) (*User, error)
}
