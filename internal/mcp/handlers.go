package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/soassoc/internal/association"
	"github.com/ziadkadry99/soassoc/internal/controller"
	"github.com/ziadkadry99/soassoc/internal/markup"
	"github.com/ziadkadry99/soassoc/internal/question"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
)

const excerptLength = 300

func questionID(request mcp.CallToolRequest) (int, error) {
	id := request.GetInt("question_id", 0)
	if id <= 0 {
		return 0, errors.New("missing required parameter: question_id")
	}
	return id, nil
}

// handleGetQuestion loads one question and renders it as Markdown.
func (s *Server) handleGetQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := questionID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	site := request.GetString("site", s.ctrl.Options().SourceSite)

	items, err := s.source.Questions(ctx, strconv.Itoa(id), stackexchange.QuestionQuery(site))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading question failed: %v", err)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("question %d not found on %s", id, site)), nil
	}

	md, err := formatQuestion(items[0])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(md), nil
}

// handleFindCandidates runs one page search and lists the candidates.
func (s *Server) handleFindCandidates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := questionID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, res, err := s.ctrl.Lookup(ctx, id, request.GetString("query", ""))
	if sess.State() != controller.Ready {
		return mcp.NewToolResultError(fmt.Sprintf("loading question failed: %v", sess.Err())), nil
	}
	if err != nil && len(res.Entries) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatResults(id, res)), nil
}

// handleGetAssociation reports the stored association of a question.
func (s *Server) handleGetAssociation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := questionID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.associations.GetBySource(ctx, id)
	if errors.Is(err, association.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("Question %d has no association.", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading association failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Question %d is associated with %d (comment %d, %s).",
		a.SourceID, a.CandidateID, a.CommentID, a.CreatedAt.Format("2006-01-02"),
	)), nil
}

func formatQuestion(q question.Question) (string, error) {
	body, err := markup.ToMarkdown(q.Body, linkDomain(q.Link))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", markup.StripHTML(q.Title))
	if q.Link != "" {
		fmt.Fprintf(&b, "%s\n\n", q.Link)
	}
	fmt.Fprintf(&b, "Score: %d | Answers: %d | Views: %d\n", q.Score, q.AnswerCount, q.ViewCount)
	if len(q.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(q.Tags, ", "))
	}
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String(), nil
}

func formatResults(sourceID int, res controller.Results) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidates for question %d (query %q):\n\n", sourceID, res.Query)

	for _, msg := range res.Messages() {
		fmt.Fprintf(&b, "%s\n", markup.StripHTML(string(msg)))
	}
	for i, card := range res.Cards() {
		fmt.Fprintf(&b, "## %d. %s\n", i+1, card.Title)
		fmt.Fprintf(&b, "- ID: %d\n", card.ID)
		if card.Link != "" {
			fmt.Fprintf(&b, "- Link: %s\n", card.Link)
		}
		fmt.Fprintf(&b, "- Score: %d, answers: %d, views: %d\n", card.Score, card.AnswerCount, card.ViewCount)
		fmt.Fprintf(&b, "\n%s\n\n", markup.Excerpt(string(card.Body), excerptLength))
	}
	return b.String()
}

func linkDomain(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
