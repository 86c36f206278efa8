// Package i18n holds the localized UI strings and help pages.
package i18n

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/soassoc/internal/markup"
)

// DefaultLocale backs every missing key.
const DefaultLocale = "en"

// Message keys used outside templates.
const (
	NotFoundInGoogle  = "not_found_in_google"
	LoadFailed        = "load_failed"
	QuestionNotFound  = "question_not_found"
	CandidatesFailed  = "candidates_failed"
	Association       = "association"
	AlreadyAssociated = "already_associated"
	NotReady          = "not_ready"
)

//go:embed locales/*.yml help/*.md
var files embed.FS

// Localizer resolves message keys for one locale, falling back to English.
type Localizer struct {
	locale   string
	messages map[string]string
	fallback map[string]string
}

// New loads the given locale. Unknown locales fall back to English.
func New(locale string) (*Localizer, error) {
	fallback, err := load(DefaultLocale)
	if err != nil {
		return nil, err
	}
	l := &Localizer{locale: DefaultLocale, messages: fallback, fallback: fallback}
	if locale == "" || locale == DefaultLocale {
		return l, nil
	}

	messages, err := load(locale)
	if err != nil {
		if _, statErr := fs.Stat(files, localePath(locale)); statErr != nil {
			return l, nil
		}
		return nil, err
	}
	l.locale = locale
	l.messages = messages
	return l, nil
}

// MustNew is New for embedded locales known to parse.
func MustNew(locale string) *Localizer {
	l, err := New(locale)
	if err != nil {
		panic(err)
	}
	return l
}

// Locales lists the embedded locales.
func Locales() []string {
	entries, _ := fs.ReadDir(files, "locales")
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(out)
	return out
}

// Locale returns the resolved locale.
func (l *Localizer) Locale() string {
	return l.locale
}

// T returns the message for key formatted with args. Missing keys render as
// the key itself.
func (l *Localizer) T(key string, args ...any) string {
	msg, ok := l.messages[key]
	if !ok {
		msg, ok = l.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// HTML renders the message as inline Markdown.
func (l *Localizer) HTML(key string, args ...any) template.HTML {
	msg := l.T(key, args...)
	out, err := markup.InlineMarkdown(msg)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(msg))
	}
	return out
}

// Help renders the help page for the locale.
func (l *Localizer) Help() (template.HTML, error) {
	data, err := files.ReadFile("help/" + l.locale + ".md")
	if err != nil {
		data, err = files.ReadFile("help/" + DefaultLocale + ".md")
		if err != nil {
			return "", fmt.Errorf("reading help page: %w", err)
		}
	}
	return markup.Markdown(string(data))
}

func localePath(locale string) string {
	return "locales/" + locale + ".yml"
}

func load(locale string) (map[string]string, error) {
	data, err := files.ReadFile(localePath(locale))
	if err != nil {
		return nil, fmt.Errorf("reading locale %s: %w", locale, err)
	}
	var messages map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parsing locale %s: %w", locale, err)
	}
	return messages, nil
}
