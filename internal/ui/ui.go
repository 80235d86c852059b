// Package ui renders the hubmirror dashboard: the mirrored item table
// with its filter, sort, grouping, and pagination controls.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlowell/hubmirror/internal/item"
	"github.com/mlowell/hubmirror/internal/mirror"
	"github.com/mlowell/hubmirror/internal/view"
)

// Options configure the dashboard.
type Options struct {
	Context context.Context
	Session *mirror.Session
	View    *view.View
	Loading func() bool
}

// Run starts the dashboard and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := newModel(opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := program.Run()
	if err != nil && opts.Context.Err() != nil {
		// Cancellation is a normal shutdown, not a failure.
		return nil
	}
	return err
}

type pageMsg []item.Item

type tickMsg time.Time

type groupsMsg struct {
	groups []view.Group
	err    error
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx     context.Context
	session *mirror.Session
	view    *view.View
	loading func() bool

	width  int
	height int

	page []item.Item

	search    textinput.Model
	searching bool

	spin spinner.Model

	grouping  bool
	dimension view.Dimension
	groups    []view.Group
	groupsErr error
}

func newModel(opts Options) Model {
	search := textinput.New()
	search.Placeholder = "search"
	search.CharLimit = 120
	search.Width = 32

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		ctx:     opts.Context,
		session: opts.Session,
		view:    opts.View,
		loading: opts.Loading,
		search:  search,
		spin:    spin,
		page:    opts.View.Page(),
	}
}

// Init starts the frame ticker, the spinner, and the view subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.spin.Tick, m.waitForUpdate())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForUpdate blocks on the view's coalescing update stream.
func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case page := <-m.view.Updates():
			return pageMsg(page)
		}
	}
}

func (m Model) fetchGroups() tea.Cmd {
	session := m.session
	v := m.view
	dim := m.dimension
	ctx := m.ctx
	return func() tea.Msg {
		strategy, err := view.StrategyFor(dim, session, v)
		if err != nil {
			return groupsMsg{err: err}
		}
		groups, err := strategy.Groups(ctx)
		return groupsMsg{groups: groups, err: err}
	}
}

// Update handles input and data refresh messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.page = m.view.Page()
		return m, m.tick()

	case pageMsg:
		m.page = []item.Item(msg)
		return m, m.waitForUpdate()

	case groupsMsg:
		m.groups = msg.groups
		m.groupsErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.searching = true
		m.search.SetValue(m.view.Filter().Title)
		m.search.Focus()
		return m, textinput.Blink

	case "s":
		f := m.view.Filter()
		f.Sort.Active = nextSortField(f.Sort.Active)
		m.view.Replace(f)
		return m, nil

	case "d":
		f := m.view.Filter()
		if f.Sort.Direction == view.Ascending {
			f.Sort.Direction = view.Descending
		} else {
			f.Sort.Direction = view.Ascending
		}
		m.view.Replace(f)
		return m, nil

	case "t":
		f := m.view.Filter()
		f.Type = nextTypeFilter(f.Type)
		m.view.Replace(f)
		return m, nil

	case "left", "h":
		index, _, _ := m.view.PageInfo()
		if index > 0 {
			m.view.SetPage(index - 1)
		}
		return m, nil

	case "right", "l":
		index, count, _ := m.view.PageInfo()
		if index+1 < count {
			m.view.SetPage(index + 1)
		}
		return m, nil

	case "+", "=":
		f := m.view.Filter()
		f.ItemsPerPage += 10
		m.view.Replace(f)
		return m, nil

	case "-":
		f := m.view.Filter()
		if f.ItemsPerPage > 10 {
			f.ItemsPerPage -= 10
			m.view.Replace(f)
		}
		return m, nil

	case "f":
		f := m.view.Filter()
		f.Labels = nextLabelSelection(selectableLabels(m.session.Labels(), f.HiddenLabels), f.Labels)
		m.view.Replace(f)
		return m, nil

	case "g":
		if m.grouping && m.dimension == view.GroupByAssignee {
			m.grouping = false
			return m, nil
		}
		m.grouping = true
		m.dimension = view.GroupByAssignee
		return m, m.fetchGroups()

	case "m":
		if m.grouping && m.dimension == view.GroupByMilestone {
			m.grouping = false
			return m, nil
		}
		m.grouping = true
		m.dimension = view.GroupByMilestone
		return m, m.fetchGroups()

	case "r":
		session := m.session
		ctx := m.ctx
		return m, func() tea.Msg {
			_ = session.SyncItems(ctx)
			return nil
		}
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		f := m.view.Filter()
		f.Title = m.search.Value()
		m.view.Replace(f)
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func nextSortField(f view.SortField) view.SortField {
	switch f {
	case view.SortByID:
		return view.SortByDate
	case view.SortByDate:
		return view.SortByStatus
	case view.SortByStatus:
		return view.SortByTitle
	default:
		return view.SortByID
	}
}

// selectableLabels removes hidden labels from the catalog without
// dropping them from the filter model itself.
func selectableLabels(catalog, hidden []string) []string {
	if len(hidden) == 0 {
		return catalog
	}
	hide := make(map[string]struct{}, len(hidden))
	for _, name := range hidden {
		hide[name] = struct{}{}
	}
	out := make([]string, 0, len(catalog))
	for _, name := range catalog {
		if _, ok := hide[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// nextLabelSelection cycles the required-label filter through the synced
// label catalog: none, each label in turn, back to none.
func nextLabelSelection(catalog, current []string) []string {
	if len(catalog) == 0 {
		return nil
	}
	if len(current) == 0 {
		return []string{catalog[0]}
	}
	for i, name := range catalog {
		if name == current[0] {
			if i+1 < len(catalog) {
				return []string{catalog[i+1]}
			}
			return nil
		}
	}
	return []string{catalog[0]}
}

func nextTypeFilter(t view.TypeFilter) view.TypeFilter {
	switch t {
	case view.TypeAll:
		return view.TypeIssuesOnly
	case view.TypeIssuesOnly:
		return view.TypePullsOnly
	default:
		return view.TypeAll
	}
}

func (m Model) repoLabel() string {
	return fmt.Sprintf("%s/%s", m.session.Owner, m.session.Repo)
}
