// Package controller drives a question page: it loads the page question,
// runs searches against the search engine, resolves the hits to candidate
// questions on the target site and builds association cards for them.
package controller

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/i18n"
	"github.com/ziadkadry99/soassoc/internal/search"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
)

var (
	// ErrNotReady is returned by operations that need the page question
	// before it has loaded.
	ErrNotReady = errors.New("question not loaded")
	// ErrStale is returned by a search superseded by a newer one.
	ErrStale = errors.New("search superseded by a newer one")
	// ErrNoQuestion is returned when the question API has no such question.
	ErrNoQuestion = errors.New("question not found")
	// ErrUnknownCandidate is returned when associating a candidate that is
	// not among the current results.
	ErrUnknownCandidate = errors.New("candidate not in current results")
	// ErrNoAssociator is returned when the controller has no association
	// action configured.
	ErrNoAssociator = errors.New("associations are disabled")
)

// AssociateFunc links the page question to a candidate question.
type AssociateFunc func(ctx context.Context, sourceID, candidateID int) error

// Options configures a Controller.
type Options struct {
	// SourceSite is the site page questions are loaded from.
	SourceSite string
	// TargetSite is the site candidates are loaded from.
	TargetSite string
	// DiscardStaleResults cancels a running search when a newer one starts
	// and drops its output. When false every search appends its output to
	// the region on completion, in completion order.
	DiscardStaleResults bool
}

// Controller holds the collaborators shared by every page session.
type Controller struct {
	source    stackexchange.Source
	engine    search.Engine
	associate AssociateFunc
	loc       *i18n.Localizer
	opts      Options
	log       *log.Logger
}

// New creates a Controller. associate and logger may be nil.
func New(source stackexchange.Source, engine search.Engine, associate AssociateFunc, loc *i18n.Localizer, opts Options, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if loc == nil {
		loc = i18n.MustNew(i18n.DefaultLocale)
	}
	return &Controller{
		source:    source,
		engine:    engine,
		associate: associate,
		loc:       loc,
		opts:      opts,
		log:       logger,
	}
}

// Options returns the controller configuration.
func (c *Controller) Options() Options {
	return c.opts
}

// Localizer returns the localizer messages are rendered with.
func (c *Controller) Localizer() *i18n.Localizer {
	return c.loc
}

// NewSession starts a page view for the given question id. The session is
// in the Loading state until Init is called.
func (c *Controller) NewSession(questionID int) *Session {
	return &Session{
		c:          c,
		questionID: questionID,
		state:      Loading,
	}
}

// Lookup loads a question and runs one search for it. An empty query
// searches for the question title.
func (c *Controller) Lookup(ctx context.Context, questionID int, query string) (*Session, Results, error) {
	s := c.NewSession(questionID)
	if err := s.Init(ctx); err != nil {
		return s, Results{}, err
	}
	if query == "" {
		page, err := s.Page()
		if err != nil {
			return s, Results{}, err
		}
		query = page.SearchDefault
	}
	res, err := s.Search(ctx, query)
	return s, res, err
}
