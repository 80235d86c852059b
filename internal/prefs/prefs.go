// Package prefs handles hubmirror view preferences persistence.
// Preferences are stored in ~/.config/hubmirror/prefs.toml and restore
// the last session's filter selections on startup.
package prefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/mlowell/hubmirror/internal/view"
)

// Prefs holds the persisted view state.
type Prefs struct {
	SortField     string   `toml:"sort_field"`
	SortDirection string   `toml:"sort_direction"`
	TypeFilter    string   `toml:"type_filter"`
	Statuses      []string `toml:"statuses"`
	Labels        []string `toml:"labels"`
	Milestones    []string `toml:"milestones"`
	ItemsPerPage  int      `toml:"items_per_page"`
}

const defaultPrefsPath = "~/.config/hubmirror/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path. Any failure degrades to
// defaults; stale or hand-edited files must never prevent startup.
func Load(path string) Prefs {
	// The zero Prefs resolves to the default filter via Filter().
	var fallback Prefs

	resolved, err := resolvePath(path)
	if err != nil {
		return fallback
	}

	file, err := os.Open(resolved)
	if err != nil {
		return fallback
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fallback
	}

	prefs := fallback
	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return fallback
	}
	return prefs
}

// Save writes preferences to the given path, creating directories as
// needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// FromFilter captures a filter's persistable fields.
func FromFilter(f view.Filter) Prefs {
	p := Prefs{
		SortField:     string(f.Sort.Active),
		SortDirection: string(f.Sort.Direction),
		TypeFilter:    string(f.Type),
		Labels:        append([]string(nil), f.Labels...),
		Milestones:    append([]string(nil), f.Milestones...),
		ItemsPerPage:  f.ItemsPerPage,
	}
	for _, s := range f.Status {
		p.Statuses = append(p.Statuses, s.String())
	}
	return p
}

// Filter reconstructs a filter from the persisted state. Unrecognized
// enum values from stale sessions parse to selections that match
// nothing extra; they never fail.
func (p Prefs) Filter() view.Filter {
	f := view.DefaultFilter()
	if field := strings.TrimSpace(p.SortField); field != "" {
		f.Sort.Active = view.SortField(field)
	}
	switch view.Direction(p.SortDirection) {
	case view.Ascending, view.Descending:
		f.Sort.Direction = view.Direction(p.SortDirection)
	}
	switch view.TypeFilter(p.TypeFilter) {
	case view.TypeAll, view.TypeIssuesOnly, view.TypePullsOnly:
		f.Type = view.TypeFilter(p.TypeFilter)
	}
	for _, raw := range p.Statuses {
		f.Status = append(f.Status, view.ParseStatus(raw))
	}
	f.Labels = append([]string(nil), p.Labels...)
	f.Milestones = append([]string(nil), p.Milestones...)
	if p.ItemsPerPage > 0 {
		f.ItemsPerPage = p.ItemsPerPage
	}
	return f
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
