package question

import (
	"fmt"
	"testing"
)

type link string

func (l link) URL() string { return string(l) }

func linksFor(ids ...int) []link {
	out := make([]link, 0, len(ids))
	for _, id := range ids {
		if id < 0 {
			out = append(out, link("https://ru.stackoverflow.com/users/17/someone"))
			continue
		}
		out = append(out, link(fmt.Sprintf("https://ru.stackoverflow.com/questions/%d/slug", id)))
	}
	return out
}

func TestParseID(t *testing.T) {
	tests := []struct {
		link string
		want int
	}{
		{"https://ru.stackoverflow.com/questions/12345/kak-sdelat", 12345},
		{"https://ru.stackoverflow.com/questions/12345", 12345},
		{"http://stackoverflow.com/questions/42/", 42},
		{"https://ru.stackoverflow.com/q/777", 777},
		{"/questions/9/slug", 9},
		{"https://ru.stackoverflow.com/questions/tagged/go", InvalidID},
		{"https://ru.stackoverflow.com/users/1/name", InvalidID},
		{"https://ru.stackoverflow.com/questions/-4/x", InvalidID},
		{"", InvalidID},
		{"::not a url", InvalidID},
	}
	for _, tt := range tests {
		if got := ParseID(tt.link); got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.link, got, tt.want)
		}
	}
}

func TestCandidateIDsDeduplicates(t *testing.T) {
	got := JoinIDs(CandidateIDs(linksFor(5, 3, 5, 7, 3)))
	if got != "5;3;7" {
		t.Errorf("got %q, want %q", got, "5;3;7")
	}
}

func TestCandidateIDsDropsUnparsable(t *testing.T) {
	got := JoinIDs(CandidateIDs(linksFor(5, -1, 3)))
	if got != "5;3" {
		t.Errorf("got %q, want %q", got, "5;3")
	}
}

func TestCandidateIDsEmpty(t *testing.T) {
	if got := JoinIDs(CandidateIDs([]link{})); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
	if got := JoinIDs(CandidateIDs(linksFor(-1, -1))); got != "" {
		t.Errorf("all unparsable: got %q, want empty string", got)
	}
}

func TestCandidateIDsKeepsFirstSeenOrder(t *testing.T) {
	got := CandidateIDs(linksFor(9, 1, 9, 1, 2, 9))
	want := []int{9, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSplitIDs(t *testing.T) {
	got := SplitIDs("1; 2;x;;3")
	if JoinIDs(got) != "1;2;3" {
		t.Errorf("SplitIDs = %v", got)
	}
	if SplitIDs("") != nil {
		t.Error("SplitIDs(\"\") should be nil")
	}
}
