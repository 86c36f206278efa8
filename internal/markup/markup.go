// Package markup renders question markup: plain text titles, tag lists,
// server-side highlighting of code blocks and Markdown conversion.
package markup

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()

	mdConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
)

// StripHTML removes all tags from s and decodes entities, yielding plain
// text suitable for a heading or an input value.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// TagList renders the tag-list fragment for a question: one post-tag link
// per tag, in order.
func TagList(tags []string) template.HTML {
	var b strings.Builder
	b.WriteString(`<div class="tags">`)
	for _, tag := range tags {
		esc := template.HTMLEscapeString(tag)
		fmt.Fprintf(&b, `<a class="post-tag" rel="tag" href="https://stackoverflow.com/questions/tagged/%s">%s</a>`,
			template.URLQueryEscaper(tag), esc)
	}
	b.WriteString(`</div>`)
	return template.HTML(b.String())
}

// ToMarkdown converts question HTML to Markdown. Links are resolved against
// domain when it is non-empty.
func ToMarkdown(body, domain string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if domain != "" {
		opts = append(opts, converter.WithDomain(domain))
	}
	md, err := mdConverter.ConvertString(body, opts...)
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// Excerpt returns the first n runes of the plain text of body.
func Excerpt(body string, n int) string {
	text := strings.Join(strings.Fields(StripHTML(body)), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
