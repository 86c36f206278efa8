package i18n

import (
	"strings"
	"testing"
)

func TestLocalesParse(t *testing.T) {
	locales := Locales()
	if len(locales) < 2 {
		t.Fatalf("expected several locales, got %v", locales)
	}
	for _, loc := range locales {
		l, err := New(loc)
		if err != nil {
			t.Errorf("locale %s: %v", loc, err)
			continue
		}
		if l.Locale() != loc {
			t.Errorf("Locale() = %q, want %q", l.Locale(), loc)
		}
	}
}

func TestEveryLocaleHasCoreKeys(t *testing.T) {
	keys := []string{NotFoundInGoogle, LoadFailed, CandidatesFailed, Association, AlreadyAssociated}
	for _, loc := range Locales() {
		msgs, err := load(loc)
		if err != nil {
			t.Fatal(err)
		}
		for _, k := range keys {
			if msgs[k] == "" {
				t.Errorf("locale %s missing %s", loc, k)
			}
		}
	}
}

func TestTFallsBackToEnglish(t *testing.T) {
	l := MustNew("ja")
	if got := l.T("views"); got != "views" {
		t.Errorf("T(views) = %q, want english fallback", got)
	}
	if got := l.T("no_such_key"); got != "no_such_key" {
		t.Errorf("missing key should render as itself, got %q", got)
	}
}

func TestTFormats(t *testing.T) {
	l := MustNew("en")
	if got := l.T(LoadFailed, 42); !strings.Contains(got, "42") {
		t.Errorf("T(load_failed, 42) = %q", got)
	}
}

func TestUnknownLocaleUsesEnglish(t *testing.T) {
	l, err := New("xx")
	if err != nil {
		t.Fatal(err)
	}
	if l.Locale() != DefaultLocale {
		t.Errorf("Locale() = %q", l.Locale())
	}
}

func TestHTMLRendersMarkdown(t *testing.T) {
	l := MustNew("en")
	got := string(l.HTML(NotFoundInGoogle))
	if !strings.Contains(got, "<strong>found</strong>") || strings.HasPrefix(got, "<p>") {
		t.Errorf("HTML(not_found_in_google) = %q", got)
	}
}

func TestRussianAssociationTag(t *testing.T) {
	if got := MustNew("ru").T(Association); got != "ассоциация" {
		t.Errorf("got %q", got)
	}
}

func TestHelp(t *testing.T) {
	for _, loc := range []string{"en", "ru", "pt"} {
		out, err := MustNew(loc).Help()
		if err != nil {
			t.Fatalf("%s: %v", loc, err)
		}
		if !strings.Contains(string(out), "<h1") {
			t.Errorf("%s: help page not rendered: %s", loc, out)
		}
	}
}
