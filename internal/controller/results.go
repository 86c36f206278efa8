package controller

import (
	"context"
	"html/template"
	"strconv"
)

// CardClass is the css class carried by the card of a candidate.
func CardClass(candidateID int) string {
	return "soint-" + strconv.Itoa(candidateID)
}

// Card is a candidate question rendered for association. It owns the
// action linking the page question to the candidate.
type Card struct {
	ID          int
	SourceID    int
	Title       string
	Body        template.HTML
	Tags        template.HTML
	Link        string
	Score       int
	AnswerCount int
	ViewCount   int
	Class       string

	associate func(ctx context.Context) error
}

// Associate links the page question to this candidate.
func (c *Card) Associate(ctx context.Context) error {
	return c.associate(ctx)
}

// Entry is one element of the results region: either a message or a card.
type Entry struct {
	Message template.HTML
	Card    *Card
}

// Results is the results region of a session.
type Results struct {
	// Generation is the search that last cleared the region.
	Generation uint64
	Query      string
	Entries    []Entry
}

// Cards returns the cards in region order.
func (r Results) Cards() []*Card {
	var out []*Card
	for _, e := range r.Entries {
		if e.Card != nil {
			out = append(out, e.Card)
		}
	}
	return out
}

// Messages returns the messages in region order.
func (r Results) Messages() []template.HTML {
	var out []template.HTML
	for _, e := range r.Entries {
		if e.Card == nil {
			out = append(out, e.Message)
		}
	}
	return out
}

// Card returns the card for candidateID, or nil.
func (r Results) Card(candidateID int) *Card {
	for _, e := range r.Entries {
		if e.Card != nil && e.Card.ID == candidateID {
			return e.Card
		}
	}
	return nil
}

func (r Results) clone() Results {
	out := r
	out.Entries = append([]Entry(nil), r.Entries...)
	return out
}
