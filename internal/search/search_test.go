package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/soassoc/internal/config"
	"github.com/ziadkadry99/soassoc/internal/question"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.SearchConfig{
		APIURL:   srv.URL,
		APIKey:   "gkey",
		EngineID: "cx1",
		Timeout:  5 * time.Second,
	}, nil)
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "gkey", q.Get("key"))
		assert.Equal(t, "cx1", q.Get("cx"))
		assert.Equal(t, "foo bar", q.Get("q"))
		_, _ = io.WriteString(w, `{"items":[
			{"link":"https://ru.stackoverflow.com/questions/1/a"},
			{"link":"https://ru.stackoverflow.com/questions/2/b"},
			{"link":"https://ru.stackoverflow.com/questions/1/a?page=2"}
		]}`)
	})

	res, err := c.Search(context.Background(), "foo bar")
	require.NoError(t, err)
	require.True(t, res.Found())
	assert.Equal(t, "1;2", question.JoinIDs(question.CandidateIDs(res.Items)))
}

func TestSearchWithoutItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"searchInformation":{"totalResults":"0"}}`)
	})

	res, err := c.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.False(t, res.Found())
}

func TestSearchEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	res, err := c.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.False(t, res.Found())
}

func TestSearchAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"quota exceeded","status":"PERMISSION_DENIED"}}`)
	})

	_, err := c.Search(context.Background(), "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "quota exceeded", apiErr.Message)
}
