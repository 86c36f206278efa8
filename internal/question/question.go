// Package question holds the question record shared by the API clients and
// the page controller, plus candidate id extraction from search results.
package question

import (
	"net/url"
	"strconv"
	"strings"
)

// InvalidID is returned by ParseID when no question id can be found.
const InvalidID = -1

// Question is a Q&A record as returned by the question API. Title and Body
// are raw markup.
type Question struct {
	ID          int      `json:"question_id"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Tags        []string `json:"tags"`
	Link        string   `json:"link"`
	Score       int      `json:"score"`
	AnswerCount int      `json:"answer_count"`
	ViewCount   int      `json:"view_count"`
	IsAnswered  bool     `json:"is_answered"`
	Owner       Owner    `json:"owner"`
}

// Owner is the author of a question.
type Owner struct {
	DisplayName string `json:"display_name"`
	Link        string `json:"link"`
}

// Linker is anything exposing a link URL a question id can be parsed from.
type Linker interface {
	URL() string
}

// ParseID extracts the question id from a question link such as
// https://ru.stackoverflow.com/questions/12345/some-slug or /q/12345.
// It returns InvalidID when the link does not point at a question.
func ParseID(link string) int {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return InvalidID
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] != "questions" && segments[i] != "q" {
			continue
		}
		id, err := strconv.Atoi(segments[i+1])
		if err != nil || id <= 0 {
			return InvalidID
		}
		return id
	}
	return InvalidID
}

// CandidateIDs parses an id from every item's link and returns the unique
// ids in first-seen order. Unparsable links are skipped.
func CandidateIDs[T Linker](items []T) []int {
	var ids []int
	for _, item := range items {
		id := ParseID(item.URL())
		if id < 0 {
			continue
		}

		seen := false
		for _, added := range ids {
			if added == id {
				seen = true
				break
			}
		}
		if seen {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// JoinIDs joins ids with semicolons, the form the question API expects in
// its {id} path segment. An empty slice yields an empty string.
func JoinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ";")
}

// SplitIDs is the inverse of JoinIDs. Malformed entries are dropped.
func SplitIDs(joined string) []int {
	var ids []int
	for _, part := range strings.Split(joined, ";") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
