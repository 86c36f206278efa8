package association

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/soassoc/internal/db"
)

// ErrNotFound is returned when no association matches.
var ErrNotFound = errors.New("association not found")

// Association links a source question to the candidate it was matched with.
type Association struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SourceID    int       `json:"soen_id"`
	CandidateID int       `json:"soint_id"`
	CommentID   int       `json:"comment_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	SourceID int
	UserID   string
	Limit    int
	Offset   int
}

// Store persists associations.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a. If a.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, a *Association) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO associations (id, user_id, soen_id, soint_id, comment_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.SourceID, a.CandidateID, a.CommentID, a.CreatedAt.Format(time.DateTime))
	if err != nil {
		return fmt.Errorf("inserting association: %w", err)
	}
	return nil
}

// Count returns how many associations the source question has.
func (s *Store) Count(ctx context.Context, sourceID int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM associations WHERE soen_id = ?`, sourceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting associations: %w", err)
	}
	return n, nil
}

// GetBySource returns the first association of a source question.
func (s *Store) GetBySource(ctx context.Context, sourceID int) (*Association, error) {
	list, err := s.List(ctx, Filter{SourceID: sourceID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// List returns associations matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Association, error) {
	var (
		where []string
		args  []any
	)
	if f.SourceID != 0 {
		where = append(where, "soen_id = ?")
		args = append(args, f.SourceID)
	}
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}

	query := `SELECT id, user_id, soen_id, soint_id, comment_id, created_at FROM associations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing associations: %w", err)
	}
	defer rows.Close()

	out := []Association{}
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scan(rows *sql.Rows) (*Association, error) {
	var (
		a  Association
		ts string
	)
	if err := rows.Scan(&a.ID, &a.UserID, &a.SourceID, &a.CandidateID, &a.CommentID, &ts); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		a.CreatedAt = t
	} else if t, err := time.Parse(time.RFC3339, ts); err == nil {
		a.CreatedAt = t
	}
	return &a, nil
}
