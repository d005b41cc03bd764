package database

import (
	"context"
	"database/sql"
	"os"
	"time"

	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/internal/migrations"
	"github.com/itxrex07/insta-sub000/internal/models"
	"github.com/itxrex07/insta-sub000/internal/retry"
	"github.com/itxrex07/insta-sub000/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the durable side of the bridge: thread->topic mappings and user
// profiles. It is the single writer of truth; in-memory caches are rebuilt
// from it and never authoritative across restarts. All methods are safe for
// concurrent use and surface failures as STORE_UNAVAILABLE so callers can
// fall back to treating state as unmapped.
type Store struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Store, error) {
	if err := security.ValidateStoragePath(dbPath); err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeInvalidConfig, "invalid database path")
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to create database file")
	}
	if err := file.Close(); err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to close database file")
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to ping database")
	}

	if _, err := db.Exec(migrations.Schema); err != nil {
		db.Close()
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to initialize schema")
	}

	enc, err := newEncryptor()
	if err != nil {
		db.Close()
		return nil, brerrors.Wrap(err, brerrors.ErrCodeInvalidConfig, "failed to initialize encryptor")
	}

	return &Store{db: db, encryptor: enc}, nil
}

// NewWithRetry opens the store with exponential backoff, retrying only
// while the store itself is unavailable. Configuration mistakes such as a
// bad path or a weak encryption secret fail immediately.
func NewWithRetry(ctx context.Context, dbPath string, cfg retry.BackoffConfig) (*Store, error) {
	var store *Store
	err := retry.NewBackoff(cfg).RetryWithPredicate(ctx, func() error {
		s, err := New(dbPath)
		if err != nil {
			return err
		}
		store = s
		return nil
	}, brerrors.IsStoreUnavailable)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMapping upserts a mapping keyed by thread id. A concurrent reader
// sees either the old record or the new one, never a partial write.
func (s *Store) SaveMapping(ctx context.Context, m *models.ThreadMapping) error {
	query := `
		INSERT INTO chat_mappings (thread_id, topic_id, title, profile_pic_url, created_at, last_activity)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(thread_id) DO UPDATE SET
			topic_id = excluded.topic_id,
			title = excluded.title,
			profile_pic_url = excluded.profile_pic_url,
			last_activity = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, m.ThreadID, m.TopicID, m.Title, m.ProfilePicURL); err != nil {
		return brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to save thread mapping").
			WithContext("threadId", m.ThreadID)
	}
	return nil
}

// GetMapping returns nil, nil when the thread has no mapping.
func (s *Store) GetMapping(ctx context.Context, threadID string) (*models.ThreadMapping, error) {
	query := `
		SELECT id, thread_id, topic_id, title, profile_pic_url, created_at, last_activity
		FROM chat_mappings
		WHERE thread_id = ?
	`
	return s.scanMapping(s.db.QueryRowContext(ctx, query, threadID))
}

// GetMappingByTopicID resolves the reverse direction: which source thread a
// forum topic mirrors.
func (s *Store) GetMappingByTopicID(ctx context.Context, topicID string) (*models.ThreadMapping, error) {
	query := `
		SELECT id, thread_id, topic_id, title, profile_pic_url, created_at, last_activity
		FROM chat_mappings
		WHERE topic_id = ?
	`
	return s.scanMapping(s.db.QueryRowContext(ctx, query, topicID))
}

func (s *Store) scanMapping(row *sql.Row) (*models.ThreadMapping, error) {
	m := &models.ThreadMapping{}
	err := row.Scan(&m.ID, &m.ThreadID, &m.TopicID, &m.Title, &m.ProfilePicURL, &m.CreatedAt, &m.LastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to get thread mapping")
	}
	return m, nil
}

func (s *Store) DeleteMapping(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_mappings WHERE thread_id = ?`, threadID); err != nil {
		return brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to delete thread mapping").
			WithContext("threadId", threadID)
	}
	return nil
}

// ListMappings is used once at startup to warm the in-memory cache.
func (s *Store) ListMappings(ctx context.Context) ([]models.ThreadMapping, error) {
	query := `
		SELECT id, thread_id, topic_id, title, profile_pic_url, created_at, last_activity
		FROM chat_mappings
		ORDER BY last_activity DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to list thread mappings")
	}
	defer rows.Close()

	var mappings []models.ThreadMapping
	for rows.Next() {
		var m models.ThreadMapping
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.TopicID, &m.Title, &m.ProfilePicURL, &m.CreatedAt, &m.LastActivity); err != nil {
			return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to scan thread mapping")
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to iterate thread mappings")
	}
	return mappings, nil
}

// TouchMapping bumps last_activity for an existing mapping. Missing rows are
// not an error; the mapping may have been invalidated concurrently.
func (s *Store) TouchMapping(ctx context.Context, threadID string, at time.Time) error {
	query := `UPDATE chat_mappings SET last_activity = ? WHERE thread_id = ?`
	if _, err := s.db.ExecContext(ctx, query, at.UTC(), threadID); err != nil {
		return brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to touch thread mapping").
			WithContext("threadId", threadID)
	}
	return nil
}

// RecordProfileMessage upserts a profile and counts the message: first
// contact creates the row, every later one increments message_count and
// advances last_seen. Profiles are never deleted.
func (s *Store) RecordProfileMessage(ctx context.Context, userID, username, fullName string) error {
	lookupID, err := s.encryptor.encryptForLookup(userID)
	if err != nil {
		return brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to encrypt user id")
	}
	encUsername, err := s.encryptor.encrypt(username)
	if err != nil {
		return brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to encrypt username")
	}
	encFullName, err := s.encryptor.encrypt(fullName)
	if err != nil {
		return brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to encrypt full name")
	}

	query := `
		INSERT INTO user_profiles (user_id, username, full_name, message_count, first_seen, last_seen)
		VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			username = CASE WHEN excluded.username != '' THEN excluded.username ELSE user_profiles.username END,
			full_name = CASE WHEN excluded.full_name != '' THEN excluded.full_name ELSE user_profiles.full_name END,
			message_count = user_profiles.message_count + 1,
			last_seen = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, lookupID, encUsername, encFullName); err != nil {
		return brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to record profile message").
			WithContext("userId", userID)
	}
	return nil
}

// GetProfile returns nil, nil when the user has never been seen.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	lookupID, err := s.encryptor.encryptForLookup(userID)
	if err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to encrypt user id")
	}

	query := `
		SELECT id, user_id, username, full_name, message_count, first_seen, last_seen
		FROM user_profiles
		WHERE user_id = ?
	`

	p := &models.UserProfile{}
	var encUsername, encFullName string
	err = s.db.QueryRowContext(ctx, query, lookupID).Scan(
		&p.ID, &p.UserID, &encUsername, &encFullName, &p.MessageCount, &p.FirstSeen, &p.LastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to get user profile")
	}

	p.UserID = userID
	if p.Username, err = s.encryptor.decrypt(encUsername); err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to decrypt username")
	}
	if p.FullName, err = s.encryptor.decrypt(encFullName); err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeStoreUnavailable, "failed to decrypt full name")
	}
	return p, nil
}
