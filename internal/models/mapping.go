package models

import (
	"time"
)

// ThreadMapping ties one Instagram thread to the forum topic that mirrors
// it. The pair is bijective while both sides exist: one topic per thread,
// one thread per topic.
type ThreadMapping struct {
	ID            int64     `db:"id"`
	ThreadID      string    `db:"thread_id"`
	TopicID       string    `db:"topic_id"`
	Title         string    `db:"title"`
	ProfilePicURL *string   `db:"profile_pic_url"`
	CreatedAt     time.Time `db:"created_at"`
	LastActivity  time.Time `db:"last_activity"`
}

// UserProfile is the historical record of a source-platform participant.
// Profiles are created on first contact and never deleted.
type UserProfile struct {
	ID           int64     `db:"id"`
	UserID       string    `db:"user_id"`
	Username     string    `db:"username"`
	FullName     string    `db:"full_name"`
	MessageCount int64     `db:"message_count"`
	FirstSeen    time.Time `db:"first_seen"`
	LastSeen     time.Time `db:"last_seen"`
}

// DisplayName returns the best available name for the profile.
func (p *UserProfile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.Username != "" {
		return p.Username
	}
	return p.UserID
}
