package suggested

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/soassoc/internal/db"
)

// DefaultPerPage is the page size of the index.
const DefaultPerPage = 50

// Row is one imported view count. The same question may appear in several
// rows (one per import).
type Row struct {
	QuestionID int
	ViewCount  int
}

// Question is a source question waiting for an association, with its views
// summed over all imports.
type Question struct {
	QuestionID int `json:"question_id"`
	Views      int `json:"views"`
}

// Pagination is one page of the suggested questions.
type Pagination struct {
	Items   []Question `json:"items"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
	Pages   int        `json:"pages"`
	Total   int        `json:"total"`
}

// HasPrev reports whether a previous page exists.
func (p *Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p *Pagination) HasNext() bool { return p.Page < p.Pages }

// PrevPage returns the previous page number.
func (p *Pagination) PrevPage() int { return p.Page - 1 }

// NextPage returns the next page number.
func (p *Pagination) NextPage() int { return p.Page + 1 }

// Offset returns the 1-based rank of the first item on the page.
func (p *Pagination) Offset() int { return (p.Page-1)*p.PerPage + 1 }

// Store persists imported most-viewed questions.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Import inserts rows in a single transaction.
func (s *Store) Import(ctx context.Context, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO most_viewed_questions (question_id, view_count) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing import: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.QuestionID, r.ViewCount); err != nil {
			return fmt.Errorf("importing question %d: %w", r.QuestionID, err)
		}
	}
	return tx.Commit()
}

// List returns one page of unassociated questions, most viewed first.
// page is 1-based; values below 1 are treated as 1.
func (s *Store) List(ctx context.Context, page, perPage int) (*Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT question_id) FROM most_viewed_questions
		WHERE is_associated = 0`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("counting suggested questions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, SUM(view_count) AS views
		FROM most_viewed_questions
		WHERE is_associated = 0
		GROUP BY question_id
		ORDER BY views DESC, question_id ASC
		LIMIT ? OFFSET ?`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("listing suggested questions: %w", err)
	}
	defer rows.Close()

	p := &Pagination{
		Items:   []Question{},
		Page:    page,
		PerPage: perPage,
		Pages:   (total + perPage - 1) / perPage,
		Total:   total,
	}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.QuestionID, &q.Views); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, q)
	}
	return p, rows.Err()
}

// Views returns the summed unassociated views of a question. ok is false
// when the question was never imported or is already associated.
func (s *Store) Views(ctx context.Context, questionID int) (views int, ok bool, err error) {
	var n int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(view_count), 0) FROM most_viewed_questions
		WHERE question_id = ? AND is_associated = 0`, questionID).Scan(&n, &views)
	if err != nil {
		return 0, false, fmt.Errorf("loading views of %d: %w", questionID, err)
	}
	return views, n > 0, nil
}

// MarkAssociated flags every row of the question as associated and returns
// how many rows changed.
func (s *Store) MarkAssociated(ctx context.Context, questionID int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE most_viewed_questions SET is_associated = 1 WHERE question_id = ? AND is_associated = 0`,
		questionID)
	if err != nil {
		return 0, fmt.Errorf("marking %d associated: %w", questionID, err)
	}
	return res.RowsAffected()
}

// IDsWithViews returns summed views of every unassociated question keyed by id.
func (s *Store) IDsWithViews(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, SUM(view_count) FROM most_viewed_questions
		WHERE is_associated = 0
		GROUP BY question_id`)
	if err != nil {
		return nil, fmt.Errorf("listing question views: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var id, views int
		if err := rows.Scan(&id, &views); err != nil {
			return nil, err
		}
		out[id] = views
	}
	return out, rows.Err()
}
