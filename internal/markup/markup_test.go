package markup

import (
	"bytes"
	"strings"
	"testing"
)

func TestStripHTML(t *testing.T) {
	tests := []struct{ in, want string }{
		{"<b>Foo</b> bar", "Foo bar"},
		{"plain", "plain"},
		{"Why &quot;x&quot; &amp; y?", `Why "x" & y?`},
		{"<script>alert(1)</script>Title", "Title"},
		{"  <i>padded</i>  ", "padded"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTagList(t *testing.T) {
	got := string(TagList([]string{"a", "b"}))
	if n := strings.Count(got, `class="post-tag"`); n != 2 {
		t.Fatalf("expected 2 tag entries, got %d in %s", n, got)
	}
	if strings.Index(got, ">a</a>") > strings.Index(got, ">b</a>") {
		t.Errorf("tags out of order: %s", got)
	}
}

func TestTagListEscapes(t *testing.T) {
	got := string(TagList([]string{"c++", "<x>"}))
	if strings.Contains(got, "<x>") {
		t.Errorf("tag not escaped: %s", got)
	}
	if !strings.Contains(got, "tagged/c%2B%2B") {
		t.Errorf("tag link not query escaped: %s", got)
	}
}

func TestTagListEmpty(t *testing.T) {
	if got := string(TagList(nil)); got != `<div class="tags"></div>` {
		t.Errorf("got %q", got)
	}
}

func TestHighlightAddsClass(t *testing.T) {
	in := `<p>text</p><pre><code>fmt.Println("hi")</code></pre><pre>plain</pre>`
	out, err := Highlight(in)
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if n := strings.Count(out, PrettyClass); n != 2 {
		t.Errorf("expected 2 prettyprint blocks, got %d: %s", n, out)
	}
	if !strings.Contains(out, "<p>text</p>") {
		t.Errorf("surrounding markup lost: %s", out)
	}
	if !strings.Contains(out, "Println") {
		t.Errorf("code lost: %s", out)
	}
}

func TestHighlightUsesLangClass(t *testing.T) {
	out, err := Highlight(`<pre class="lang-go"><code>package main</code></pre>`)
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if !strings.Contains(out, `data-highlighted="Go"`) {
		t.Errorf("expected Go lexer: %s", out)
	}
	if !strings.Contains(out, `class="`) || !strings.Contains(out, "chroma") {
		t.Errorf("expected chroma classes: %s", out)
	}
}

func TestHighlightIdempotent(t *testing.T) {
	once, err := Highlight(`<pre class="lang-go"><code>x := 1</code></pre>`)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Highlight(once)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Errorf("second pass changed output:\n%s\n%s", once, twice)
	}
}

func TestHighlightWithoutPre(t *testing.T) {
	in := "<p>no code</p>"
	out, err := Highlight(in)
	if err != nil || out != in {
		t.Errorf("Highlight(%q) = %q, %v", in, out, err)
	}
}

func TestWriteCSS(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSS(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), ".chroma") {
		t.Errorf("stylesheet missing chroma rules")
	}
}

func TestToMarkdown(t *testing.T) {
	md, err := ToMarkdown(`<p>Hello <strong>world</strong></p><pre><code>x = 1</code></pre>`, "")
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	if !strings.Contains(md, "**world**") {
		t.Errorf("bold not converted: %q", md)
	}
	if !strings.Contains(md, "x = 1") {
		t.Errorf("code lost: %q", md)
	}
}

func TestToMarkdownResolvesLinks(t *testing.T) {
	md, err := ToMarkdown(`<a href="/questions/1">q</a>`, "https://ru.stackoverflow.com")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "https://ru.stackoverflow.com/questions/1") {
		t.Errorf("link not resolved: %q", md)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("<p>one   two</p>", 50); got != "one two" {
		t.Errorf("got %q", got)
	}
	if got := Excerpt("<p>abcdef</p>", 3); got != "abc…" {
		t.Errorf("got %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Title\n\n```go\nfunc main() {}\n```\n")
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, `<h1 id="title">Title</h1>`) {
		t.Errorf("heading missing: %s", s)
	}
	if !strings.Contains(s, "<pre") || !strings.Contains(s, "func") {
		t.Errorf("code block missing: %s", s)
	}
}

func TestInlineMarkdown(t *testing.T) {
	out, err := InlineMarkdown("Nothing **found**")
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "Nothing <strong>found</strong>" {
		t.Errorf("got %q", out)
	}
}
