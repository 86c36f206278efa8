// Package stackexchange is a client for the Stack Exchange 2.2 API: question
// lookup by id, answers, comments and the signed-in user.
package stackexchange

import (
	"fmt"

	"github.com/ziadkadry99/soassoc/internal/question"
)

// Wrapper is the common response envelope of every API method.
type Wrapper[T any] struct {
	Items          []T    `json:"items"`
	HasMore        bool   `json:"has_more"`
	QuotaMax       int    `json:"quota_max"`
	QuotaRemaining int    `json:"quota_remaining"`
	Backoff        int    `json:"backoff,omitempty"`
	ErrorID        int    `json:"error_id,omitempty"`
	ErrorName      string `json:"error_name,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// Answer is an answer record as returned by /answers/{ids}.
type Answer struct {
	AnswerID   int            `json:"answer_id"`
	QuestionID int            `json:"question_id"`
	Body       string         `json:"body"`
	Score      int            `json:"score"`
	IsAccepted bool           `json:"is_accepted"`
	Owner      question.Owner `json:"owner"`
}

// Comment is the item returned by /posts/{id}/comments/add.
type Comment struct {
	CommentID int    `json:"comment_id"`
	PostID    int    `json:"post_id"`
	Body      string `json:"body"`
}

// User is the authenticated account as returned by /me.
type User struct {
	AccountID    int    `json:"account_id"`
	UserID       int    `json:"user_id"`
	DisplayName  string `json:"display_name"`
	ProfileImage string `json:"profile_image"`
	Link         string `json:"link"`
}

// APIError is returned for non-2xx responses and for envelopes carrying an
// error_id.
type APIError struct {
	StatusCode int
	ID         int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("stackexchange: %s (%d, status %d): %s", e.Name, e.ID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("stackexchange: status %d: %s", e.StatusCode, e.Message)
}
