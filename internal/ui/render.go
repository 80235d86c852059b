package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/mlowell/hubmirror/internal/item"
	"github.com/mlowell/hubmirror/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("25")).Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(6)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	groupStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("109")).MarginTop(1)

	stateStyles = map[item.State]lipgloss.Style{
		item.StateOpen:   lipgloss.NewStyle().Foreground(lipgloss.Color("77")),
		item.StateClosed: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		item.StateMerged: lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
	}
)

// View renders the whole dashboard frame.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.grouping {
		b.WriteString(m.renderGrouped())
	} else {
		b.WriteString(m.renderTable(m.page))
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	parts := []string{headerStyle.Render("hubmirror"), mutedStyle.Render(m.repoLabel())}

	if m.loading != nil && m.loading() {
		parts = append(parts, m.spin.View()+mutedStyle.Render("loading"))
	}
	storeMeta := m.session.Store().Meta()
	switch {
	case storeMeta.IsOffline():
		parts = append(parts, errorStyle.Render("OFFLINE"))
	case storeMeta.Partial:
		parts = append(parts, warnStyle.Render("partially stale"))
	case !storeMeta.LastUpdated.IsZero():
		parts = append(parts, mutedStyle.Render("updated "+storeMeta.LastUpdated.Format("15:04:05")))
	}

	if m.searching {
		parts = append(parts, "/"+m.search.View())
	} else if q := m.view.Filter().Title; q != "" {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("search: %q", q)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderTable(items []item.Item) string {
	if len(items) == 0 {
		return mutedStyle.Render("  no items match the current filter")
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString(m.renderRow(it))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderRow(it item.Item) string {
	state := stateStyles[it.State]
	badge := stateBadge(it)
	title := it.Title
	if maxTitle := m.width - 40; maxTitle > 10 {
		title = truncate(title, maxTitle)
	}
	cols := []string{
		idStyle.Render(fmt.Sprintf("#%d", it.ID)),
		state.Render(badge),
		titleStyle.Render(title),
	}
	if it.ReviewDecision != "" {
		cols = append(cols, mutedStyle.Render(string(it.ReviewDecision)))
	}
	if len(it.Labels) > 0 {
		cols = append(cols, mutedStyle.Render("["+strings.Join(it.Labels, ", ")+"]"))
	}
	if !it.Milestone.IsSentinel() {
		cols = append(cols, mutedStyle.Render(it.Milestone.Title))
	}
	if !it.UpdatedAt.IsZero() {
		cols = append(cols, mutedStyle.Render(it.UpdatedAt.Format("2006-01-02")))
	}
	return "  " + strings.Join(cols, " ")
}

// truncate shortens s to at most max runes, ellipsizing on a rune
// boundary so a multi-byte character is never split.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

func stateBadge(it item.Item) string {
	kind := "issue"
	if it.Type == item.TypePullRequest {
		kind = "pr"
		if it.IsDraft {
			kind = "draft"
		}
	}
	return fmt.Sprintf("%-6s %-6s", kind, it.State)
}

// renderGrouped partitions the full matched set (not just the current
// page) by the active dimension. Empty groups eligible for the hidden
// list are collapsed to a single count line.
func (m Model) renderGrouped() string {
	if m.groupsErr != nil {
		return errorStyle.Render("  grouping unavailable: " + m.groupsErr.Error())
	}
	strategy, err := view.StrategyFor(m.dimension, m.session, m.view)
	if err != nil {
		return errorStyle.Render("  " + err.Error())
	}
	matched := m.view.Matched()

	var b strings.Builder
	hidden := 0
	for _, g := range m.groups {
		bucket := strategy.DataForGroup(matched, g)
		if len(bucket) == 0 && strategy.InHiddenList(g) {
			hidden++
			continue
		}
		b.WriteString(groupStyle.Render(fmt.Sprintf("%s (%d)", g.Name(), len(bucket))))
		b.WriteString("\n")
		b.WriteString(m.renderTable(bucket))
		b.WriteString("\n")
	}
	if hidden > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("\n  %d empty groups hidden", hidden)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderFooter() string {
	index, count, total := m.view.PageInfo()
	f := m.view.Filter()
	left := fmt.Sprintf("page %d/%d  %d items  sort:%s %s  type:%s",
		index+1, count, total, f.Sort.Active, f.Sort.Direction, f.Type)
	if labels := f.EffectiveLabels(); len(labels) > 0 {
		left += "  label:" + strings.Join(labels, ",")
	}
	help := "q quit  / search  s sort  d dir  t type  f label  g/m group  h/l page  +/- size  r refresh"
	return mutedStyle.Render(left + "\n" + help)
}
