package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/soassoc/internal/db"
)

var (
	// ErrNoSession is returned when a session token is unknown or expired.
	ErrNoSession = errors.New("no such session")
	// ErrUserNotFound is returned by GetUser for unknown ids.
	ErrUserNotFound = errors.New("user not found")
)

// User is a signed-in Stack Exchange account.
type User struct {
	ID           string    `json:"id"`
	AccountID    int       `json:"account_id"`
	UserID       int       `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	AccessToken  string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a browser sign-in.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Store persists users and sessions.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// UpsertUser inserts the user or refreshes the stored profile and token of
// the same account. u.ID is set to the stored id.
func (s *Store) UpsertUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, account_id, user_id, display_name, profile_image, access_token)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			user_id = excluded.user_id,
			display_name = excluded.display_name,
			profile_image = excluded.profile_image,
			access_token = excluded.access_token,
			updated_at = datetime('now')
		RETURNING id`,
		u.ID, u.AccountID, u.UserID, u.DisplayName, u.ProfileImage, u.AccessToken,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("upserting user %d: %w", u.AccountID, err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, user_id, display_name, profile_image, access_token, created_at
		FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// CreateSession starts a session for userID lasting ttl.
func (s *Store) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	sess := &Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(ttl).Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// UserForSession returns the user owning an unexpired session token.
func (s *Store) UserForSession(ctx context.Context, token string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.account_id, u.user_id, u.display_name, u.profile_image, u.access_token, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`,
		token, time.Now().UTC().Format(time.DateTime))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	return u, err
}

// DeleteSession ends a session. Unknown tokens are ignored.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpired removes expired sessions and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`,
		time.Now().UTC().Format(time.DateTime))
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return res.RowsAffected()
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u  User
		ts string
	)
	if err := row.Scan(&u.ID, &u.AccountID, &u.UserID, &u.DisplayName, &u.ProfileImage, &u.AccessToken, &ts); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		u.CreatedAt = t
	} else if t, err := time.Parse(time.RFC3339, ts); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}
