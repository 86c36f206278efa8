package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Description: "Importing views", Out: &buf}
	r.Start(2)
	r.Update(1, "a.csv")
	r.Update(2, "b.csv")
	r.Finish()

	want := "Importing views: 2 files\n[1/2] a.csv\n[2/2] b.csv\nImporting views: done\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("x").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNewReporterTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	r, ok := NewReporter("x").(*TerminalReporter)
	if !ok {
		t.Fatal("expected TerminalReporter")
	}
	if !strings.EqualFold(r.Description, "x") {
		t.Errorf("Description = %q", r.Description)
	}
}
