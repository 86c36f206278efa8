package controller

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/i18n"
	"github.com/ziadkadry99/soassoc/internal/markup"
	"github.com/ziadkadry99/soassoc/internal/question"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
)

// State is the load state of a session.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Page is the rendered page question.
type Page struct {
	ID            int
	Title         string
	Body          template.HTML
	Tags          template.HTML
	Link          string
	Score         int
	AnswerCount   int
	ViewCount     int
	SearchDefault string
}

// Session is one page view. It owns the page question and the results
// region and is safe for concurrent use.
type Session struct {
	c          *Controller
	questionID int

	mu       sync.Mutex
	state    State
	question *question.Question
	err      error
	loading  chan struct{} // closed when the in-flight Init finishes
	gen      uint64
	cancel   context.CancelFunc
	results  Results
}

// QuestionID returns the id the session was opened for.
func (s *Session) QuestionID() int {
	return s.questionID
}

// State returns the current load state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that failed the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Question returns the loaded question.
func (s *Session) Question() (question.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.question == nil {
		return question.Question{}, false
	}
	return *s.question, true
}

// Init loads the page question from the source site. On success the
// session is Ready; otherwise it is Failed and stays so. Concurrent calls
// share one fetch: later callers wait for the first to finish.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	for s.state == Loading && s.loading != nil {
		wait := s.loading
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
	}
	if s.state != Loading {
		state, err := s.state, s.err
		s.mu.Unlock()
		if state == Failed {
			return err
		}
		return nil
	}
	done := make(chan struct{})
	s.loading = done
	s.mu.Unlock()

	logger := s.c.log.WithField("question_id", s.questionID)
	q := stackexchange.QuestionQuery(s.c.opts.SourceSite)
	items, err := s.c.source.Questions(ctx, strconv.Itoa(s.questionID), q)
	if err == nil && len(items) == 0 {
		err = ErrNoQuestion
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(done)
	s.loading = nil
	if err != nil {
		s.state = Failed
		s.err = fmt.Errorf("loading question %d: %w", s.questionID, err)
		logger.WithError(err).Warn("question load failed")
		return s.err
	}

	first := items[0]
	s.question = &first
	s.state = Ready
	logger.Debug("question loaded")
	return nil
}

// Page renders the page question: plain title, highlighted body, tag list
// and the default search query.
func (s *Session) Page() (Page, error) {
	q, ok := s.Question()
	if !ok {
		return Page{}, ErrNotReady
	}
	title := markup.StripHTML(q.Title)
	return Page{
		ID:            q.ID,
		Title:         title,
		Body:          markup.HighlightHTML(q.Body),
		Tags:          markup.TagList(q.Tags),
		Link:          q.Link,
		Score:         q.Score,
		AnswerCount:   q.AnswerCount,
		ViewCount:     q.ViewCount,
		SearchDefault: title,
	}, nil
}

// Results returns a snapshot of the results region.
func (s *Session) Results() Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results.clone()
}

// Search clears the results region, queries the search engine and fills
// the region with candidate cards, or with a single message when nothing
// was found or candidates could not be loaded. The returned Results is the
// region after this search applied its output.
//
// With DiscardStaleResults a newer search cancels this one and this call
// returns ErrStale without touching the region.
func (s *Session) Search(ctx context.Context, query string) (Results, error) {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return Results{}, ErrNotReady
	}
	discard := s.c.opts.DiscardStaleResults
	if discard && s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.results = Results{Generation: gen, Query: query}
	sourceID := s.question.ID
	s.mu.Unlock()
	defer cancel()

	logger := s.c.log.WithFields(log.Fields{
		"question_id": sourceID,
		"generation":  gen,
	})
	logger.WithField("query", query).Debug("search started")

	entries, err := s.run(ctx, sourceID, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if discard && gen != s.gen {
		logger.Debug("search superseded")
		return Results{}, ErrStale
	}
	if gen == s.gen {
		s.cancel = nil
	}
	s.results.Entries = append(s.results.Entries, entries...)
	if err != nil {
		logger.WithError(err).Warn("search failed")
		return s.results.clone(), err
	}
	logger.WithField("entries", len(entries)).Debug("search finished")
	return s.results.clone(), nil
}

// Associate runs the associate action of the card for candidateID in the
// current results.
func (s *Session) Associate(ctx context.Context, candidateID int) error {
	s.mu.Lock()
	card := s.results.Card(candidateID)
	s.mu.Unlock()
	if card == nil {
		return ErrUnknownCandidate
	}
	return card.Associate(ctx)
}

// run performs the search and candidate pipeline and returns the entries
// to append. A failing step yields its visible message plus the error.
func (s *Session) run(ctx context.Context, sourceID int, query string) ([]Entry, error) {
	loc := s.c.loc

	res, err := s.c.engine.Search(ctx, query)
	if err != nil {
		return []Entry{{Message: loc.HTML(i18n.NotFoundInGoogle)}}, fmt.Errorf("searching %q: %w", query, err)
	}
	if !res.Found() {
		return []Entry{{Message: loc.HTML(i18n.NotFoundInGoogle)}}, nil
	}

	ids := question.JoinIDs(question.CandidateIDs(res.Items))
	items, err := s.c.source.Questions(ctx, ids, stackexchange.QuestionQuery(s.c.opts.TargetSite))
	if err != nil {
		return []Entry{{Message: loc.HTML(i18n.CandidatesFailed)}}, fmt.Errorf("loading candidates %q: %w", ids, err)
	}

	cards := make([]*Card, 0, len(items))
	for _, item := range items {
		cards = append(cards, s.newCard(sourceID, item))
	}
	for _, card := range cards {
		card.Body = markup.HighlightHTML(string(card.Body))
	}

	entries := make([]Entry, 0, len(cards))
	for _, card := range cards {
		entries = append(entries, Entry{Card: card})
	}
	return entries, nil
}

func (s *Session) newCard(sourceID int, item question.Question) *Card {
	candidateID := item.ID
	card := &Card{
		ID:          candidateID,
		SourceID:    sourceID,
		Title:       markup.StripHTML(item.Title),
		Body:        template.HTML(item.Body),
		Tags:        markup.TagList(item.Tags),
		Link:        item.Link,
		Score:       item.Score,
		AnswerCount: item.AnswerCount,
		ViewCount:   item.ViewCount,
		Class:       CardClass(candidateID),
	}
	card.associate = func(ctx context.Context) error {
		if s.c.associate == nil {
			return ErrNoAssociator
		}
		return s.c.associate(ctx, sourceID, candidateID)
	}
	return card
}
