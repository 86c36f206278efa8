package markup

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// PrettyClass is added to every <pre> block.
const PrettyClass = "prettyprint"

// highlightedAttr marks blocks that already went through Highlight.
const highlightedAttr = "data-highlighted"

const styleName = "github"

var formatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

// Highlight adds the prettyprint class to every <pre> in fragment and
// replaces its code with syntax highlighted markup. The language comes from
// a lang-* class on the block or its <code> child, else it is guessed.
// Blocks already highlighted are left alone, so Highlight is idempotent.
func Highlight(fragment string) (string, error) {
	if !strings.Contains(fragment, "<pre") {
		return fragment, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parsing fragment: %w", err)
	}

	var firstErr error
	doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		pre.AddClass(PrettyClass)
		if _, done := pre.Attr(highlightedAttr); done {
			return
		}

		code := pre.Text()
		lexer := lexerFor(pre, code)

		var b strings.Builder
		if err := highlightTo(&b, lexer, code); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		pre.AddClass("chroma")
		pre.SetAttr(highlightedAttr, lexer.Config().Name)
		pre.SetHtml("<code>" + b.String() + "</code>")
	})
	if firstErr != nil {
		return "", firstErr
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("rendering fragment: %w", err)
	}
	return out, nil
}

// HighlightHTML is Highlight for trusted template HTML. On failure the
// input is returned unchanged.
func HighlightHTML(fragment string) template.HTML {
	out, err := Highlight(fragment)
	if err != nil {
		return template.HTML(fragment)
	}
	return template.HTML(out)
}

// WriteCSS writes the stylesheet for highlighted blocks.
func WriteCSS(w io.Writer) error {
	return formatter.WriteCSS(w, styles.Get(styleName))
}

func highlightTo(w io.Writer, lexer chroma.Lexer, code string) error {
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("tokenising code: %w", err)
	}
	return formatter.Format(w, styles.Get(styleName), it)
}

func lexerFor(pre *goquery.Selection, code string) chroma.Lexer {
	for _, sel := range []*goquery.Selection{pre, pre.Find("code").First()} {
		class, _ := sel.Attr("class")
		for _, c := range strings.Fields(class) {
			name := strings.TrimPrefix(strings.TrimPrefix(c, "lang-"), "language-")
			if name == c {
				continue
			}
			if l := lexers.Get(name); l != nil {
				return l
			}
		}
	}
	if l := lexers.Analyse(code); l != nil {
		return l
	}
	return lexers.Fallback
}
