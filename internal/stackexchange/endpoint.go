package stackexchange

import (
	"net/url"
	"strings"
)

// IDPlaceholder is substituted with the joined ids by WithIDs.
const IDPlaceholder = "{id}"

// Built-in filters of the API.
const (
	FilterDefault  = "default"
	FilterWithBody = "withbody"
)

// Query selects how questions are looked up.
type Query struct {
	Site  string
	Sort  string
	Order string
	// IncludeBody asks for question bodies.
	IncludeBody bool
	// IncludeFiltersApplied selects the configured custom filter.
	IncludeFiltersApplied bool
}

// QuestionQuery is the lookup used for the page question and its candidates.
func QuestionQuery(site string) Query {
	return Query{
		Site:        site,
		Sort:        "activity",
		Order:       "desc",
		IncludeBody: true,
	}
}

// FilterFor resolves the filter parameter for q. custom is the configured
// filter, used only when IncludeFiltersApplied is set.
func FilterFor(q Query, custom string) string {
	switch {
	case q.IncludeFiltersApplied && custom != "":
		return custom
	case q.IncludeBody:
		return FilterWithBody
	default:
		return FilterDefault
	}
}

// Endpoint builds the question lookup URL template with IDPlaceholder in
// the path.
func Endpoint(apiURL, key, customFilter string, q Query) string {
	v := url.Values{}
	v.Set("order", q.Order)
	v.Set("sort", q.Sort)
	v.Set("site", q.Site)
	v.Set("filter", FilterFor(q, customFilter))
	if key != "" {
		v.Set("key", key)
	}
	return strings.TrimRight(apiURL, "/") + "/questions/" + IDPlaceholder + "?" + v.Encode()
}

// WithIDs substitutes joined ids ("1;2;3") into an Endpoint template. Each
// id is path escaped; the separators are kept.
func WithIDs(tmpl, ids string) string {
	parts := strings.Split(ids, ";")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.ReplaceAll(tmpl, IDPlaceholder, strings.Join(parts, ";"))
}
