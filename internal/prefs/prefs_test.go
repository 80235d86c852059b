package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mlowell/hubmirror/internal/view"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p := Load("")
	f := p.Filter()
	want := view.DefaultFilter()
	if f.Sort != want.Sort || f.Type != want.Type || f.ItemsPerPage != want.ItemsPerPage {
		t.Fatalf("filter from defaults = %+v, want %+v", f, want)
	}
}

func TestLoad_CorruptFileDegradesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("sort_field = [not toml"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// A hand-edited or stale prefs file must never prevent startup.
	p := Load(path)
	if p.Filter().Sort != view.DefaultFilter().Sort {
		t.Fatalf("corrupt prefs produced sort %+v, want default", p.Filter().Sort)
	}
}

func TestSaveAndLoad_RoundTripsFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")

	f := view.DefaultFilter()
	f.Sort = view.Sort{Active: view.SortByStatus, Direction: view.Ascending}
	f.Type = view.TypeIssuesOnly
	f.Labels = []string{"bug", "p1"}
	f.Milestones = []string{"v1.0"}
	f.Status = []view.Status{view.ParseStatus("open issue")}
	f.ItemsPerPage = 50

	if err := Save(path, FromFilter(f)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got := Load(path).Filter()
	if got.Sort != f.Sort {
		t.Fatalf("Sort = %+v, want %+v", got.Sort, f.Sort)
	}
	if got.Type != f.Type {
		t.Fatalf("Type = %q, want %q", got.Type, f.Type)
	}
	if len(got.Labels) != 2 || got.Labels[0] != "bug" {
		t.Fatalf("Labels = %v, want [bug p1]", got.Labels)
	}
	if len(got.Status) != 1 || got.Status[0].String() != "open issue" {
		t.Fatalf("Status = %v, want [open issue]", got.Status)
	}
	if got.ItemsPerPage != 50 {
		t.Fatalf("ItemsPerPage = %d, want 50", got.ItemsPerPage)
	}
}

func TestFilter_UnrecognizedEnumValuesDoNotCrash(t *testing.T) {
	p := Prefs{
		SortDirection: "sideways",
		TypeFilter:    "gadget",
		Statuses:      []string{"quantum issue", "open issue"},
	}

	f := p.Filter()
	if f.Sort.Direction != view.DefaultFilter().Sort.Direction {
		t.Fatalf("Direction = %q, want default for unknown value", f.Sort.Direction)
	}
	if f.Type != view.DefaultFilter().Type {
		t.Fatalf("Type = %q, want default for unknown value", f.Type)
	}
	// The bogus status parses to a selection that matches nothing; the
	// valid one survives.
	if len(f.Status) != 2 {
		t.Fatalf("Status = %v, want both entries retained", f.Status)
	}
	if f.Status[1].String() != "open issue" {
		t.Fatalf("Status[1] = %q, want open issue", f.Status[1])
	}
}
