// Package association posts association comments and records which source
// question was matched with which candidate.
package association

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/auth"
	"github.com/ziadkadry99/soassoc/internal/controller"
	"github.com/ziadkadry99/soassoc/internal/i18n"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
	"github.com/ziadkadry99/soassoc/internal/suggested"
)

var (
	// ErrAlreadyAssociated is returned when the source question already has
	// an association.
	ErrAlreadyAssociated = errors.New("question already associated")
	// ErrNoUser is returned when no signed-in user is available.
	ErrNoUser = errors.New("sign in required")
	// ErrNoToken is returned when the user has no Stack Exchange access token.
	ErrNoToken = errors.New("no stack exchange access token")
)

// SourceURLFormat links the source question in the comment body.
const SourceURLFormat = "http://stackoverflow.com/questions/%d/"

// Commenter posts comments on the target site.
type Commenter interface {
	AddComment(ctx context.Context, postID int, body, site, accessToken string) (int, error)
}

// AnswerSource loads answers.
type AnswerSource interface {
	Answers(ctx context.Context, ids, site, accessToken string) (*stackexchange.Wrapper[stackexchange.Answer], error)
}

// Client is what the service needs from the Stack Exchange API.
type Client interface {
	Commenter
	AnswerSource
}

// Options configures a Service.
type Options struct {
	// TargetSite is the site comments are posted on.
	TargetSite string
	// FallbackToken is used for users without a token of their own, such as
	// the anonymous user when sign-in is disabled.
	FallbackToken string
}

// Service creates associations.
type Service struct {
	store     *Store
	suggested *suggested.Store
	client    Client
	loc       *i18n.Localizer
	opts      Options
	log       *log.Logger

	// mu serializes the check-then-create sequence of Associate.
	mu sync.Mutex
}

// NewService creates a Service. suggestedStore and logger may be nil.
func NewService(store *Store, suggestedStore *suggested.Store, client Client, loc *i18n.Localizer, opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if loc == nil {
		loc = i18n.MustNew(i18n.DefaultLocale)
	}
	return &Service{
		store:     store,
		suggested: suggestedStore,
		client:    client,
		loc:       loc,
		opts:      opts,
		log:       logger,
	}
}

// Store returns the association store.
func (s *Service) Store() *Store {
	return s.store
}

// CommentBody returns the comment posted under the candidate question.
func (s *Service) CommentBody(sourceID int) string {
	return s.loc.T(i18n.Association) + ": " + fmt.Sprintf(SourceURLFormat, sourceID)
}

// Associate links sourceID to candidateID on behalf of user: it posts a
// comment under the candidate, stores the association and marks the source
// question's suggestion rows as associated.
func (s *Service) Associate(ctx context.Context, user *auth.User, sourceID, candidateID int) (*Association, error) {
	if user == nil {
		return nil, ErrNoUser
	}
	token := user.AccessToken
	if token == "" {
		token = s.opts.FallbackToken
	}
	if token == "" {
		return nil, ErrNoToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.Count(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAlreadyAssociated
	}

	commentID, err := s.client.AddComment(ctx, candidateID, s.CommentBody(sourceID), s.opts.TargetSite, token)
	if err != nil {
		return nil, fmt.Errorf("posting comment on %d: %w", candidateID, err)
	}

	a := &Association{
		UserID:      user.ID,
		SourceID:    sourceID,
		CandidateID: candidateID,
		CommentID:   commentID,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}

	if s.suggested != nil {
		if _, err := s.suggested.MarkAssociated(ctx, sourceID); err != nil {
			s.log.WithError(err).WithField("question_id", sourceID).Warn("marking suggestion associated failed")
		}
	}

	s.log.WithFields(log.Fields{
		"soen_id":    sourceID,
		"soint_id":   candidateID,
		"comment_id": commentID,
		"user":       user.DisplayName,
	}).Info("association created")
	return a, nil
}

// AssociateFunc adapts Associate to the page controller. The user is taken
// from the context.
func (s *Service) AssociateFunc() controller.AssociateFunc {
	return func(ctx context.Context, sourceID, candidateID int) error {
		user, _ := auth.UserFromContext(ctx)
		_, err := s.Associate(ctx, user, sourceID, candidateID)
		return err
	}
}

// Answers loads answers on behalf of user, sorted by votes.
func (s *Service) Answers(ctx context.Context, user *auth.User, ids, site string) (*stackexchange.Wrapper[stackexchange.Answer], error) {
	if user == nil {
		return nil, ErrNoUser
	}
	token := user.AccessToken
	if token == "" {
		token = s.opts.FallbackToken
	}
	return s.client.Answers(ctx, ids, site, token)
}
