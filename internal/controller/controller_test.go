package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/soassoc/internal/i18n"
	"github.com/ziadkadry99/soassoc/internal/question"
	"github.com/ziadkadry99/soassoc/internal/search"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
)

type sourceCall struct {
	ids string
	q   stackexchange.Query
}

type fakeSource struct {
	mu    sync.Mutex
	calls []sourceCall
	fn    func(ids string, q stackexchange.Query) ([]question.Question, error)
}

func (f *fakeSource) Questions(_ context.Context, ids string, q stackexchange.Query) ([]question.Question, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sourceCall{ids: ids, q: q})
	f.mu.Unlock()
	return f.fn(ids, q)
}

func (f *fakeSource) callsFor(site string) []sourceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sourceCall
	for _, c := range f.calls {
		if c.q.Site == site {
			out = append(out, c)
		}
	}
	return out
}

type fakeEngine func(ctx context.Context, query string) (*search.Result, error)

func (f fakeEngine) Search(ctx context.Context, query string) (*search.Result, error) {
	return f(ctx, query)
}

func hits(ids ...int) *search.Result {
	res := &search.Result{Items: []search.Item{}}
	for _, id := range ids {
		link := "https://ru.stackoverflow.com/users/1/someone"
		if id >= 0 {
			link = fmt.Sprintf("https://ru.stackoverflow.com/questions/%d/slug", id)
		}
		res.Items = append(res.Items, search.Item{Link: link})
	}
	return res
}

// catalog answers every lookup with one question per requested id. The
// page question is 42.
func catalog(ids string, q stackexchange.Query) ([]question.Question, error) {
	out := []question.Question{}
	for _, id := range question.SplitIDs(ids) {
		if id == 42 {
			out = append(out, question.Question{ID: 42, Title: "<b>Foo</b> bar", Body: "<p>body</p>", Tags: []string{"a", "b"}})
			continue
		}
		out = append(out, question.Question{
			ID:    id,
			Title: fmt.Sprintf("Candidate <i>%d</i>", id),
			Body:  fmt.Sprintf("<p>candidate %d</p><pre>x := %d</pre>", id, id),
			Tags:  []string{"go"},
		})
	}
	return out, nil
}

var testOptions = Options{
	SourceSite:          "stackoverflow",
	TargetSite:          "ru.stackoverflow",
	DiscardStaleResults: true,
}

func newController(t *testing.T, src *fakeSource, engine search.Engine, opts Options, associate AssociateFunc) *Controller {
	t.Helper()
	return New(src, engine, associate, i18n.MustNew("en"), opts, nil)
}

func readySession(t *testing.T, c *Controller) *Session {
	t.Helper()
	s := c.NewSession(42)
	require.NoError(t, s.Init(context.Background()))
	require.Equal(t, Ready, s.State())
	return s
}

func cardClasses(r Results) []string {
	var out []string
	for _, c := range r.Cards() {
		out = append(out, c.Class)
	}
	return out
}

func TestInitAndPage(t *testing.T) {
	src := &fakeSource{fn: catalog}
	c := newController(t, src, fakeEngine(nil), testOptions, nil)
	s := readySession(t, c)

	calls := src.callsFor("stackoverflow")
	require.Len(t, calls, 1)
	assert.Equal(t, "42", calls[0].ids)
	assert.Equal(t, "activity", calls[0].q.Sort)
	assert.Equal(t, "desc", calls[0].q.Order)
	assert.True(t, calls[0].q.IncludeBody)
	assert.False(t, calls[0].q.IncludeFiltersApplied)

	page, err := s.Page()
	require.NoError(t, err)
	assert.Equal(t, 42, page.ID)
	assert.Equal(t, "Foo bar", page.Title)
	assert.Equal(t, "Foo bar", page.SearchDefault)
	assert.Equal(t, 2, strings.Count(string(page.Tags), `class="post-tag"`))
	assert.Contains(t, string(page.Body), "<p>body</p>")
}

func TestInitFailure(t *testing.T) {
	boom := errors.New("api down")
	src := &fakeSource{fn: func(string, stackexchange.Query) ([]question.Question, error) { return nil, boom }}
	c := newController(t, src, fakeEngine(nil), testOptions, nil)

	s := c.NewSession(42)
	err := s.Init(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Failed, s.State())
	assert.ErrorIs(t, s.Err(), boom)

	// Failed is terminal.
	require.ErrorIs(t, s.Init(context.Background()), boom)
	assert.Len(t, src.callsFor("stackoverflow"), 1)

	_, err = s.Page()
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = s.Search(context.Background(), "foo")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestConcurrentInitFetchesOnce(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	src := &fakeSource{fn: func(ids string, q stackexchange.Query) ([]question.Question, error) {
		once.Do(func() { close(started) })
		<-release
		return catalog(ids, q)
	}}
	c := newController(t, src, fakeEngine(nil), testOptions, nil)
	s := c.NewSession(42)

	const callers = 5
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() { errs <- s.Init(context.Background()) }()
	}
	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, Ready, s.State())
	assert.Len(t, src.callsFor("stackoverflow"), 1)
}

func TestInitWaitHonorsContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{fn: func(ids string, q stackexchange.Query) ([]question.Question, error) {
		close(started)
		<-release
		return catalog(ids, q)
	}}
	c := newController(t, src, fakeEngine(nil), testOptions, nil)
	s := c.NewSession(42)

	first := make(chan error, 1)
	go func() { first <- s.Init(context.Background()) }()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Init(ctx), context.Canceled)

	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, Ready, s.State())
}

func TestInitNoSuchQuestion(t *testing.T) {
	src := &fakeSource{fn: func(string, stackexchange.Query) ([]question.Question, error) {
		return []question.Question{}, nil
	}}
	c := newController(t, src, fakeEngine(nil), testOptions, nil)

	s := c.NewSession(7)
	require.ErrorIs(t, s.Init(context.Background()), ErrNoQuestion)
	assert.Equal(t, Failed, s.State())
}

func TestSearchBeforeInit(t *testing.T) {
	called := false
	engine := fakeEngine(func(context.Context, string) (*search.Result, error) {
		called = true
		return hits(1), nil
	})
	c := newController(t, &fakeSource{fn: catalog}, engine, testOptions, nil)

	_, err := c.NewSession(42).Search(context.Background(), "foo")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, called)
}

func TestSearchWithoutItems(t *testing.T) {
	src := &fakeSource{fn: catalog}
	engine := fakeEngine(func(context.Context, string) (*search.Result, error) {
		return &search.Result{}, nil
	})
	c := newController(t, src, engine, testOptions, nil)
	s := readySession(t, c)

	res, err := s.Search(context.Background(), "foo")
	require.NoError(t, err)
	require.Len(t, res.Messages(), 1)
	assert.Contains(t, string(res.Messages()[0]), "found")
	assert.Empty(t, res.Cards())
	assert.Empty(t, src.callsFor("ru.stackoverflow"))
}

func TestSearchAbsentResponse(t *testing.T) {
	engine := fakeEngine(func(context.Context, string) (*search.Result, error) { return nil, nil })
	c := newController(t, &fakeSource{fn: catalog}, engine, testOptions, nil)
	s := readySession(t, c)

	res, err := s.Search(context.Background(), "foo")
	require.NoError(t, err)
	assert.Len(t, res.Messages(), 1)
	assert.Empty(t, res.Cards())
}

func TestSearchEngineErrorShowsNotFound(t *testing.T) {
	engine := fakeEngine(func(context.Context, string) (*search.Result, error) {
		return nil, &search.APIError{StatusCode: 403}
	})
	c := newController(t, &fakeSource{fn: catalog}, engine, testOptions, nil)
	s := readySession(t, c)

	res, err := s.Search(context.Background(), "foo")
	var apiErr *search.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Len(t, res.Messages(), 1)
}

func TestSearchBuildsCards(t *testing.T) {
	src := &fakeSource{fn: catalog}
	var gotQuery string
	engine := fakeEngine(func(_ context.Context, q string) (*search.Result, error) {
		gotQuery = q
		return hits(1, 2, 1), nil
	})
	c := newController(t, src, engine, testOptions, nil)
	s := readySession(t, c)

	res, err := s.Search(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", gotQuery)

	calls := src.callsFor("ru.stackoverflow")
	require.Len(t, calls, 1)
	assert.Equal(t, "1;2", calls[0].ids)
	assert.Equal(t, "activity", calls[0].q.Sort)
	assert.True(t, calls[0].q.IncludeBody)

	assert.Equal(t, []string{"soint-1", "soint-2"}, cardClasses(res))
	assert.Empty(t, res.Messages())

	card := res.Cards()[0]
	assert.Equal(t, "Candidate 1", card.Title)
	assert.Equal(t, 42, card.SourceID)
	assert.Contains(t, string(card.Body), "prettyprint")
	assert.Contains(t, string(card.Tags), ">go</a>")

	assert.Equal(t, res.Entries, s.Results().Entries)
}

func TestSearchEmptyCandidateSet(t *testing.T) {
	src := &fakeSource{fn: catalog}
	engine := fakeEngine(func(context.Context, string) (*search.Result, error) {
		return hits(-1, -1), nil
	})
	c := newController(t, src, engine, testOptions, nil)
	s := readySession(t, c)

	res, err := s.Search(context.Background(), "foo")
	require.NoError(t, err)
	assert.Empty(t, res.Entries)

	calls := src.callsFor("ru.stackoverflow")
	require.Len(t, calls, 1)
	assert.Equal(t, "", calls[0].ids)
}

func TestCandidateFetchFailure(t *testing.T) {
	fail := false
	src := &fakeSource{fn: func(ids string, q stackexchange.Query) ([]question.Question, error) {
		if fail && q.Site == "ru.stackoverflow" {
			return nil, errors.New("quota")
		}
		return catalog(ids, q)
	}}
	engine := fakeEngine(func(context.Context, string) (*search.Result, error) { return hits(3), nil })
	c := newController(t, src, engine, testOptions, nil)
	s := readySession(t, c)

	_, err := s.Search(context.Background(), "first")
	require.NoError(t, err)

	fail = true
	res, err := s.Search(context.Background(), "second")
	require.Error(t, err)
	assert.Empty(t, res.Cards(), "region keeps only what the current search put there")
	require.Len(t, res.Messages(), 1)
	assert.Contains(t, string(res.Messages()[0]), "candidate")
}

func TestCardAssociate(t *testing.T) {
	type pair struct{ source, candidate int }
	var got []pair
	associate := func(_ context.Context, source, candidate int) error {
		got = append(got, pair{source, candidate})
		return nil
	}
	engine := fakeEngine(func(context.Context, string) (*search.Result, error) { return hits(5, 6), nil })
	c := newController(t, &fakeSource{fn: catalog}, engine, testOptions, associate)
	s := readySession(t, c)

	res, err := s.Search(context.Background(), "foo")
	require.NoError(t, err)

	require.NoError(t, res.Cards()[1].Associate(context.Background()))
	require.NoError(t, s.Associate(context.Background(), 5))
	assert.Equal(t, []pair{{42, 6}, {42, 5}}, got)

	assert.ErrorIs(t, s.Associate(context.Background(), 99), ErrUnknownCandidate)
}

func TestCardAssociateDisabled(t *testing.T) {
	engine := fakeEngine(func(context.Context, string) (*search.Result, error) { return hits(5), nil })
	c := newController(t, &fakeSource{fn: catalog}, engine, testOptions, nil)
	s := readySession(t, c)

	_, err := s.Search(context.Background(), "foo")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Associate(context.Background(), 5), ErrNoAssociator)
}

// blockingEngine holds search "A" until release is closed; every other
// query returns immediately. "A" resolves to candidate 10, others to 20.
func blockingEngine(started, release chan struct{}, honorCancel bool) fakeEngine {
	return func(ctx context.Context, q string) (*search.Result, error) {
		if q != "A" {
			return hits(20), nil
		}
		close(started)
		if honorCancel {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else {
			<-release
		}
		return hits(10), nil
	}
}

func runOverlapping(t *testing.T, s *Session, release chan struct{}, started chan struct{}) (Results, error) {
	t.Helper()
	var wg sync.WaitGroup
	var errA error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errA = s.Search(context.Background(), "A")
	}()
	<-started

	_, errB := s.Search(context.Background(), "B")
	require.NoError(t, errB)

	close(release)
	wg.Wait()
	return s.Results(), errA
}

func TestOverlappingSearchesCompletionOrder(t *testing.T) {
	opts := testOptions
	opts.DiscardStaleResults = false
	started, release := make(chan struct{}), make(chan struct{})
	c := newController(t, &fakeSource{fn: catalog}, blockingEngine(started, release, true), opts, nil)
	s := readySession(t, c)

	res, errA := runOverlapping(t, s, release, started)
	require.NoError(t, errA)
	assert.Equal(t, []string{"soint-20", "soint-10"}, cardClasses(res))
}

func TestOverlappingSearchesDiscardStale(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	c := newController(t, &fakeSource{fn: catalog}, blockingEngine(started, release, true), testOptions, nil)
	s := readySession(t, c)

	res, errA := runOverlapping(t, s, release, started)
	assert.ErrorIs(t, errA, ErrStale)
	assert.Equal(t, []string{"soint-20"}, cardClasses(res))
	assert.Equal(t, uint64(2), res.Generation)
}

func TestOverlappingSearchesDiscardStaleWithoutCancel(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	src := &fakeSource{fn: catalog}
	c := newController(t, src, blockingEngine(started, release, false), testOptions, nil)
	s := readySession(t, c)

	res, errA := runOverlapping(t, s, release, started)
	assert.ErrorIs(t, errA, ErrStale)
	assert.Equal(t, []string{"soint-20"}, cardClasses(res))
}

func TestLookupSearchesTitle(t *testing.T) {
	var gotQuery string
	engine := fakeEngine(func(_ context.Context, q string) (*search.Result, error) {
		gotQuery = q
		return hits(8), nil
	})
	c := newController(t, &fakeSource{fn: catalog}, engine, testOptions, nil)

	s, res, err := c.Lookup(context.Background(), 42, "")
	require.NoError(t, err)
	assert.Equal(t, Ready, s.State())
	assert.Equal(t, "Foo bar", gotQuery)
	assert.Equal(t, []string{"soint-8"}, cardClasses(res))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "failed", Failed.String())
}
