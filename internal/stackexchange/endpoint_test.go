package stackexchange

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterFor(t *testing.T) {
	tests := []struct {
		name   string
		q      Query
		custom string
		want   string
	}{
		{"body", Query{IncludeBody: true}, "!custom", FilterWithBody},
		{"no body", Query{}, "!custom", FilterDefault},
		{"filters applied", Query{IncludeBody: true, IncludeFiltersApplied: true}, "!custom", "!custom"},
		{"filters applied without custom", Query{IncludeFiltersApplied: true, IncludeBody: true}, "", FilterWithBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterFor(tt.q, tt.custom))
		})
	}
}

func TestEndpoint(t *testing.T) {
	tmpl := Endpoint("https://api.stackexchange.com/2.2/", "k3y", "", QuestionQuery("ru.stackoverflow"))
	require.True(t, strings.HasPrefix(tmpl, "https://api.stackexchange.com/2.2/questions/{id}?"), tmpl)

	u, err := url.Parse(WithIDs(tmpl, "1;2"))
	require.NoError(t, err)
	assert.Equal(t, "/2.2/questions/1;2", u.Path)

	q := u.Query()
	assert.Equal(t, "activity", q.Get("sort"))
	assert.Equal(t, "desc", q.Get("order"))
	assert.Equal(t, "ru.stackoverflow", q.Get("site"))
	assert.Equal(t, FilterWithBody, q.Get("filter"))
	assert.Equal(t, "k3y", q.Get("key"))
}

func TestEndpointWithoutKey(t *testing.T) {
	tmpl := Endpoint("http://api", "", "", QuestionQuery("stackoverflow"))
	assert.NotContains(t, tmpl, "key=")
}

func TestWithIDsEscapesSegments(t *testing.T) {
	got := WithIDs("http://api/questions/{id}?site=x", "1;a/b")
	assert.Equal(t, "http://api/questions/1;a%2Fb?site=x", got)
}
