package view

import (
	"testing"

	"github.com/mlowell/hubmirror/internal/item"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"open issue", Status{State: item.StateOpen, Type: item.TypeIssue}},
		{" MERGED PULL_REQUEST ", Status{State: item.StateMerged, Type: item.TypePullRequest}},
		{"closed pr", Status{State: item.StateClosed, Type: item.TypePullRequest}},
		{"gibberish", Status{}},
		{"too many words here", Status{}},
		{"", Status{}},
	}
	for _, tt := range tests {
		if got := ParseStatus(tt.raw); got != tt.want {
			t.Fatalf("ParseStatus(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestFilter_CloneIsDeep(t *testing.T) {
	f := Filter{
		Labels:     []string{"bug"},
		Milestones: []string{"v1.0"},
		Status:     []Status{{State: item.StateOpen, Type: item.TypeIssue}},
	}
	dup := f.Clone()
	dup.Labels[0] = "changed"
	dup.Milestones[0] = "changed"
	dup.Status[0] = Status{}

	if f.Labels[0] != "bug" || f.Milestones[0] != "v1.0" {
		t.Fatalf("Clone shares slices with the original: %+v", f)
	}
	if f.Status[0].State != item.StateOpen {
		t.Fatalf("Clone shares status slice with the original: %+v", f.Status)
	}
}

func TestFilter_EffectiveLabels(t *testing.T) {
	f := Filter{
		Labels:           []string{"bug", "p1", "ui"},
		DeselectedLabels: []string{"p1"},
	}
	got := f.EffectiveLabels()
	if len(got) != 2 || got[0] != "bug" || got[1] != "ui" {
		t.Fatalf("EffectiveLabels() = %v, want [bug ui]", got)
	}

	// No deselections returns the selection as-is.
	f = Filter{Labels: []string{"bug"}}
	if got := f.EffectiveLabels(); len(got) != 1 || got[0] != "bug" {
		t.Fatalf("EffectiveLabels() = %v, want [bug]", got)
	}
}
