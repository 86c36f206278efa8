package stackexchange

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/soassoc/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().StackExchange
	cfg.APIURL = srv.URL
	cfg.Key = "app-key"
	cfg.RequestsPerSecond = 0
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg, nil)
}

func TestQuestions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/questions/42", r.URL.Path)
		assert.Equal(t, "stackoverflow", r.URL.Query().Get("site"))
		assert.Equal(t, "app-key", r.URL.Query().Get("key"))
		_, _ = io.WriteString(w, `{"items":[{"question_id":42,"title":"<b>Foo</b> bar","body":"<p>x</p>","tags":["a","b"],"link":"https://stackoverflow.com/questions/42/foo"}],"quota_max":300,"quota_remaining":299}`)
	})

	items, err := c.Questions(context.Background(), "42", QuestionQuery("stackoverflow"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 42, items[0].ID)
	assert.Equal(t, "<b>Foo</b> bar", items[0].Title)
	assert.Equal(t, []string{"a", "b"}, items[0].Tags)
}

func TestQuestionsEmptyIDsSkipsRequest(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `{"items":[{"question_id":1}]}`)
	})

	items, err := c.Questions(context.Background(), "", QuestionQuery("ru.stackoverflow"))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestQuestionsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error_id":400,"error_name":"bad_parameter","error_message":"ids"}`)
	})

	_, err := c.Questions(context.Background(), "1", QuestionQuery("ru.stackoverflow"))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad_parameter", apiErr.Name)
	assert.Contains(t, err.Error(), "fetching questions 1 on ru.stackoverflow")
}

func TestQuestionsNonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	})

	_, err := c.Questions(context.Background(), "1", QuestionQuery("ru.stackoverflow"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "gateway down")
}

func TestBackoffIsRecorded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[],"backoff":10}`)
	})

	_, err := c.Questions(context.Background(), "1", QuestionQuery("ru.stackoverflow"))
	require.NoError(t, err)

	c.mu.Lock()
	until := time.Until(c.notBefore)
	c.mu.Unlock()
	assert.Greater(t, until, 5*time.Second)

	// A pending backoff makes the next call wait; a cancelled context aborts it.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Questions(ctx, "1", QuestionQuery("ru.stackoverflow"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAddComment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts/77/comments/add", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hello", r.PostForm.Get("body"))
		assert.Equal(t, "tok", r.PostForm.Get("access_token"))
		assert.Equal(t, "app-key", r.PostForm.Get("key"))
		assert.Equal(t, "ru.stackoverflow", r.PostForm.Get("site"))
		assert.Equal(t, "false", r.PostForm.Get("preview"))
		_, _ = io.WriteString(w, `{"items":[{"post_id":77},{"comment_id":901,"post_id":77}]}`)
	})

	id, err := c.AddComment(context.Background(), 77, "hello", "ru.stackoverflow", "tok")
	require.NoError(t, err)
	assert.Equal(t, 901, id)
}

func TestAddCommentWithoutCommentID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[]}`)
	})

	id, err := c.AddComment(context.Background(), 77, "hello", "ru.stackoverflow", "tok")
	require.NoError(t, err)
	assert.Equal(t, -1, id)
}

func TestAnswers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/answers/5;6", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "votes", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "es.stackoverflow", q.Get("site"))
		assert.Equal(t, config.DefaultConfig().StackExchange.AnswersFilter, q.Get("filter"))
		_, _ = io.WriteString(w, `{"items":[{"answer_id":5,"question_id":1,"score":3}],"has_more":true}`)
	})

	resp, err := c.Answers(context.Background(), "5;6", "es.stackoverflow", "")
	require.NoError(t, err)
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Score)
}

func TestMe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		values, _ := url.ParseQuery(r.URL.RawQuery)
		assert.Equal(t, "tok", values.Get("access_token"))
		_, _ = io.WriteString(w, `{"items":[{"account_id":11,"user_id":22,"display_name":"Ann"}]}`)
	})

	u, err := c.Me(context.Background(), "stackoverflow", "tok")
	require.NoError(t, err)
	assert.Equal(t, 11, u.AccountID)
	assert.Equal(t, "Ann", u.DisplayName)
}
