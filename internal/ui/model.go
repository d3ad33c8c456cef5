package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipper/internal/catalog"
	"clipper/internal/classify"
	"clipper/internal/clipboard"
	"clipper/internal/highlight"
	"clipper/internal/history"
	"clipper/internal/preview"
	"clipper/internal/wipe"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	copyTimeout   = 5 * time.Second
	wipeTimeout   = 10 * time.Second
	maxTitleWidth = 200
)

type Loader interface {
	Load(ctx context.Context) (catalog.Listing, error)
}

type Copier interface {
	CopyToClipboard(ctx context.Context, e history.Entry) error
}

type Exporter interface {
	Export(it catalog.Item) (string, error)
}

// Options wires the model to its collaborators. Exporter and Changes may be
// nil.
type Options struct {
	Catalog       Loader
	Writer        Copier
	Exporter      Exporter
	Wiper         wipe.Wiper
	Style         wipe.Style
	ConfirmWindow time.Duration
	Changes       <-chan struct{}
	Now           func() time.Time
}

// Model owns the wipe state machine and the current listing. Everything
// that touches the store runs in a tea.Cmd and reports back as a message.
type Model struct {
	loader   Loader
	writer   Copier
	exporter Exporter
	wiper    wipe.Wiper
	fsm      *wipe.Machine
	style    wipe.Style
	changes  <-chan struct{}
	now      func() time.Time

	list     list.Model
	viewport viewport.Model
	help     help.Model
	spinner  spinner.Model
	search   textinput.Model
	keys     keyMap

	width  int
	height int

	loading       bool
	reloadPending bool
	generation    int
	rendering     bool
	renderNonce   int
	focusOnList   bool
	searchMode    bool
	searchQuery   string

	listing    catalog.Listing
	selectedID string
	rendered   map[string]string
	matchLines []int
	matchCount int
	matchIndex int

	status   string
	err      error
	quitting bool
}

type loadedMsg struct {
	gen     int
	listing catalog.Listing
	err     error
}
type renderMsg struct {
	entryID  string
	cacheKey string
	rendered string
	nonce    int
}
type copyMsg struct {
	entry history.Entry
	err   error
}
type exportMsg struct {
	path string
	err  error
}
type confirmTickMsg struct{ deadline time.Time }
type wipedMsg struct{ err error }
type historyChangedMsg struct{}

type clipItem struct {
	it    catalog.Item
	title string
}

func (i clipItem) Title() string       { return i.title }
func (i clipItem) Description() string { return preview.Description(i.it) }
func (i clipItem) FilterValue() string { return i.title }

func newClipItem(it catalog.Item) clipItem {
	return clipItem{it: it, title: preview.Title(it, maxTitleWidth)}
}

// searchText is what "/" matches against: the full text for text entries,
// the list title otherwise.
func (i clipItem) searchText() string {
	if i.it.Category() == classify.Text {
		return string(i.it.Data)
	}
	return i.title + " " + i.it.Entry.Preview()
}

func NewModel(opts Options) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 40, 20)
	l.Title = "Clipboard history"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)
	vp.SetContent("Loading clipboard history...")

	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Points

	ti := textinput.New()
	ti.Placeholder = "Search history..."
	ti.Prompt = "/ "
	ti.CharLimit = 256

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fsm := wipe.New(opts.Wiper, opts.ConfirmWindow)
	fsm.SetClock(now)

	style := opts.Style
	if style.Name == "" {
		style = wipe.ButtonStyle
	}

	return Model{
		loader:   opts.Catalog,
		writer:   opts.Writer,
		exporter: opts.Exporter,
		wiper:    opts.Wiper,
		fsm:      fsm,
		style:    style,
		changes:  opts.Changes,
		now:      now,

		list:     l,
		viewport: vp,
		help:     h,
		spinner:  sp,
		search:   ti,
		keys:     defaultKeys(),

		loading:     true,
		generation:  1,
		focusOnList: true,
		rendered:    make(map[string]string),
		matchIndex:  -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(m.generation), m.watchCmd())
}

func (m Model) loadCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		listing, err := m.loader.Load(context.Background())
		return loadedMsg{gen: gen, listing: listing, err: err}
	}
}

func (m Model) watchCmd() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return historyChangedMsg{}
	}
}

func (m Model) copyCmd(e history.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
		defer cancel()
		return copyMsg{entry: e, err: m.writer.CopyToClipboard(ctx, e)}
	}
}

func (m Model) exportCmd(it catalog.Item) tea.Cmd {
	if m.exporter == nil {
		return nil
	}
	return func() tea.Msg {
		path, err := m.exporter.Export(it)
		return exportMsg{path: path, err: err}
	}
}

func (m Model) wipeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), wipeTimeout)
		defer cancel()
		return wipedMsg{err: m.wiper.Wipe(ctx)}
	}
}

// confirmTick wakes at most once a second so the countdown label stays
// current, and finally at the deadline itself.
func (m Model) confirmTick(deadline time.Time) tea.Cmd {
	wait := deadline.Sub(m.now())
	if wait > time.Second {
		wait = time.Second
	}
	if wait <= 0 {
		wait = time.Millisecond
	}
	return tea.Tick(wait, func(time.Time) tea.Msg { return confirmTickMsg{deadline: deadline} })
}

// reload starts a new listing. Loads never overlap because the catalog's
// stager has a single owner; a request during a load is replayed after it.
func (m *Model) reload() tea.Cmd {
	if m.loading {
		m.reloadPending = true
		return nil
	}
	m.loading = true
	m.generation++
	return tea.Batch(m.spinner.Tick, m.loadCmd(m.generation))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		cmds = append(cmds, m.renderSelected(true))

	case loadedMsg:
		if msg.gen != m.generation {
			break
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Load failed: " + msg.err.Error()
		} else {
			m.applyListing(msg.listing)
			cmds = append(cmds, m.renderSelected(true))
		}
		if m.reloadPending {
			m.reloadPending = false
			cmds = append(cmds, m.reload())
		}

	case historyChangedMsg:
		if p := m.fsm.State().Phase; p != wipe.Wiping && p != wipe.Wiped {
			cmds = append(cmds, m.reload())
		}
		cmds = append(cmds, m.watchCmd())

	case renderMsg:
		if msg.nonce != m.renderNonce {
			break
		}
		m.rendering = false
		m.rendered[msg.cacheKey] = msg.rendered
		if m.selectedID == msg.entryID {
			m.setViewportFromRendered(msg.rendered, true)
		}

	case copyMsg:
		if msg.err != nil {
			m.err = msg.err
			slog.Warn("copy failed", "id", msg.entry.ID(), "err", msg.err)
			switch {
			case errors.Is(msg.err, clipboard.ErrToolNotFound):
				m.status = "Could not copy: clipboard tool not found"
			case errors.Is(msg.err, clipboard.ErrSinkUnavailable):
				m.status = "Could not copy: clipboard unavailable"
			default:
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.err = nil
			m.status = fmt.Sprintf("Copied #%s to clipboard", msg.entry.ID())
		}

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported: " + msg.path
		}

	case confirmTickMsg:
		st := m.fsm.State()
		if !m.now().Before(msg.deadline) {
			if m.fsm.Expire(msg.deadline) {
				m.status = "Wipe cancelled"
			}
		} else if st.Phase == wipe.Confirming && st.Deadline.Equal(msg.deadline) {
			cmds = append(cmds, m.confirmTick(msg.deadline))
		}

	case wipedMsg:
		if m.fsm.Resolve(msg.err).Phase == wipe.Wiped {
			slog.Info("history wiped")
			m.quitting = true
			return m, tea.Quit
		}
		if msg.err != nil {
			m.err = msg.err
			m.status = "Could not clear history: " + msg.err.Error()
			slog.Error("wipe failed", "err", msg.err)
		}

	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearch(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Esc):
			if m.searchQuery != "" {
				m.searchQuery = ""
				m.search.SetValue("")
				m.applyItems()
				return m, m.renderSelected(false)
			}
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Search):
			m.searchMode = true
			m.search.SetValue(m.searchQuery)
			m.search.CursorEnd()
			return m, m.search.Focus()
		case key.Matches(msg, m.keys.Tab):
			m.focusOnList = !m.focusOnList
			return m, nil
		case key.Matches(msg, m.keys.FocusLeft):
			m.focusOnList = true
			return m, nil
		case key.Matches(msg, m.keys.FocusRight):
			m.focusOnList = false
			return m, nil
		case key.Matches(msg, m.keys.PageUp):
			if !m.focusOnList {
				m.viewport.HalfViewUp()
			}
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			if !m.focusOnList {
				m.viewport.HalfViewDown()
			}
			return m, nil
		case key.Matches(msg, m.keys.NextMatch):
			m.jumpToMatch(1)
			return m, nil
		case key.Matches(msg, m.keys.PrevMatch):
			m.jumpToMatch(-1)
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			it, ok := m.selectedItem()
			if !ok {
				return m, nil
			}
			m.status = fmt.Sprintf("Copying #%s...", it.Entry.ID())
			return m, m.copyCmd(it.Entry)
		case key.Matches(msg, m.keys.Export):
			it, ok := m.selectedItem()
			if !ok {
				return m, nil
			}
			return m, m.exportCmd(it)
		case key.Matches(msg, m.keys.Refresh):
			return m, m.reload()
		case key.Matches(msg, m.keys.Wipe):
			return m, m.triggerWipe()
		}

		if m.focusOnList {
			prev := m.selectedID
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			cmds = append(cmds, cmd)
			m.selectedID = m.currentSelectedID()
			if m.selectedID != prev {
				cmds = append(cmds, m.renderSelected(false))
			}
		} else {
			switch msg.String() {
			case "up", "k":
				m.viewport.LineUp(1)
			case "down", "j":
				m.viewport.LineDown(1)
			}
		}
	}

	if m.loading {
		var spin tea.Cmd
		m.spinner, spin = m.spinner.Update(msg)
		cmds = append(cmds, spin)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.searchQuery = ""
		m.search.SetValue("")
		m.search.Blur()
		m.applyItems()
		return m, m.renderSelected(false)
	case "enter":
		m.searchMode = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	query := strings.TrimSpace(m.search.Value())
	if query == m.searchQuery {
		return m, cmd
	}
	m.searchQuery = query
	m.applyItems()
	return m, tea.Batch(cmd, m.renderSelected(false))
}

func (m *Model) triggerWipe() tea.Cmd {
	switch m.fsm.Trigger() {
	case wipe.ActionArm:
		m.status = ""
		return m.confirmTick(m.fsm.State().Deadline)
	case wipe.ActionWipe:
		m.status = "Clearing history..."
		return m.wipeCmd()
	default:
		return nil
	}
}

func (m *Model) applyListing(l catalog.Listing) {
	m.listing = l
	m.rendered = make(map[string]string)
	m.err = l.StoreErr
	switch {
	case l.StoreErr != nil:
		m.status = "History unavailable"
	case l.Skipped > 0:
		m.status = fmt.Sprintf("%d entries (%d skipped)", len(l.Items), l.Skipped)
	default:
		m.status = fmt.Sprintf("%d entries", len(l.Items))
	}
	m.applyItems()
}

// applyItems rebuilds the visible rows from the listing and the search
// query, keeping the selection when the selected entry is still shown.
func (m *Model) applyItems() {
	items := make([]list.Item, 0, len(m.listing.Items))
	for _, it := range m.listing.Items {
		ci := newClipItem(it)
		if m.searchQuery != "" && !highlight.Contains(ci.searchText(), m.searchQuery) {
			continue
		}
		items = append(items, ci)
	}
	m.list.SetItems(items)

	if len(items) == 0 {
		m.selectedID = ""
		return
	}
	selectIdx := 0
	for idx, item := range items {
		if item.(clipItem).it.Entry.Line == m.selectedID {
			selectIdx = idx
			break
		}
	}
	m.list.Select(selectIdx)
	m.selectedID = items[selectIdx].(clipItem).it.Entry.Line
}

func (m *Model) currentSelectedID() string {
	item, ok := m.list.SelectedItem().(clipItem)
	if !ok {
		return ""
	}
	return item.it.Entry.Line
}

func (m *Model) selectedItem() (catalog.Item, bool) {
	item, ok := m.list.SelectedItem().(clipItem)
	if !ok || m.selectedID == "" {
		return catalog.Item{}, false
	}
	return item.it, true
}

func (m *Model) renderSelected(force bool) tea.Cmd {
	it, ok := m.selectedItem()
	if !ok {
		m.viewport.SetContent(m.emptyText())
		m.clearMatches()
		return nil
	}

	cacheKey := fmt.Sprintf("%s|w=%d", it.Entry.Line, m.viewport.Width)
	if !force {
		if rendered, ok := m.rendered[cacheKey]; ok {
			m.setViewportFromRendered(rendered, true)
			return nil
		}
	}
	m.rendering = true
	m.renderNonce++
	nonce := m.renderNonce
	m.viewport.SetContent("Rendering preview...")
	wrap := m.viewport.Width - 2
	md := preview.Markdown(it)
	entryID := it.Entry.Line
	return func() tea.Msg {
		return renderMsg{
			entryID:  entryID,
			cacheKey: cacheKey,
			rendered: preview.Render(md, wrap),
			nonce:    nonce,
		}
	}
}

func (m *Model) setViewportFromRendered(rendered string, gotoTop bool) {
	content := rendered
	if m.searchQuery != "" {
		res := highlight.Mark(rendered, m.searchQuery, func(s string) string { return searchMatchStyle.Render(s) })
		content = res.Text
		m.matchCount = res.Count
		m.matchLines = res.Lines
		m.matchIndex = -1
	} else {
		m.clearMatches()
	}

	m.viewport.SetContent(content)
	if gotoTop {
		m.viewport.GotoTop()
		if len(m.matchLines) > 0 {
			m.matchIndex = 0
			m.viewport.SetYOffset(m.clampViewportOffset(m.matchLines[0]))
		}
	}
}

func (m *Model) clearMatches() {
	m.matchLines = nil
	m.matchCount = 0
	m.matchIndex = -1
}

func (m *Model) jumpToMatch(delta int) {
	if len(m.matchLines) == 0 {
		if m.searchQuery != "" {
			m.status = "No matches in preview"
		}
		return
	}
	switch {
	case m.matchIndex < 0 || m.matchIndex >= len(m.matchLines):
		m.matchIndex = 0
	case delta > 0:
		m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
	case delta < 0:
		m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
	}
	m.viewport.SetYOffset(m.clampViewportOffset(m.matchLines[m.matchIndex]))
	m.status = fmt.Sprintf("Match %d/%d", m.matchIndex+1, m.matchCount)
}

func (m *Model) clampViewportOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

func (m Model) emptyText() string {
	if m.loading && len(m.listing.Items) == 0 {
		return "Loading clipboard history..."
	}
	if m.searchQuery != "" && len(m.listing.Items) > 0 {
		return "No entries matched your search."
	}
	text := emptyTitleStyle.Render("Clipper is empty") + "\ncopy to show here"
	if m.listing.StoreErr != nil {
		text += "\n\nhistory unavailable: " + m.listing.StoreErr.Error()
	}
	return text
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, right := m.paneWidths()

	bodyHeight := m.height - 2
	if bodyHeight < 8 {
		bodyHeight = 8
	}

	m.list.SetSize(left-2, bodyHeight-2)
	m.viewport.Width = right - 2
	m.viewport.Height = bodyHeight - 2
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	left, right := m.paneWidths()
	leftPane := panelStyle(m.focusOnList).Width(left).Height(m.height - 2).Render(m.list.View())
	rightPane := panelStyle(!m.focusOnList).Width(right).Height(m.height - 2).Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	helpView := m.help.View(m.keys)
	if m.searchMode {
		helpView = m.search.View() + "  " + helpView
	} else if m.searchQuery != "" {
		helpView = "search: " + m.searchQuery + "  " + helpView
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusLine(),
		body,
		helpView,
	)
}

func (m Model) statusLine() string {
	button := m.wipeButton()
	status := ""
	if m.loading {
		status = m.spinner.View() + " loading..."
	}
	if it, ok := m.selectedItem(); ok {
		status += fmt.Sprintf("  #%s  %s", it.Entry.ID(), it.Class.MIME)
	}
	if m.searchQuery != "" {
		if m.matchCount > 0 {
			status += fmt.Sprintf("  [match %d/%d]", max(m.matchIndex+1, 1), m.matchCount)
		} else {
			status += "  [match 0]"
		}
	}
	if m.rendering {
		status += "  [rendering]"
	}
	if s := strings.TrimSpace(m.status); s != "" {
		status += "  " + shorten(s, 80)
	}
	status = strings.TrimSpace(status)

	gap := m.width - lipgloss.Width(button) - 2
	if gap < 1 {
		gap = 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		statusStyle.Width(gap).MaxHeight(1).Render(shorten(status, gap)),
		button,
	)
}

func (m Model) wipeButton() string {
	st := m.fsm.State()
	label := m.style.Label(st, m.now())
	if st.Phase == wipe.Idle {
		return buttonStyle.Render(label)
	}
	return confirmButtonStyle.Render(label)
}

func (m *Model) paneWidths() (int, int) {
	left := m.width * 2 / 5
	if left < 32 {
		left = 32
	}
	if left > m.width-32 {
		left = m.width - 32
	}
	if left < 20 {
		left = 20
	}
	right := m.width - left - 1
	if right < 20 {
		right = 20
	}
	return left, right
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:max(n, 0)])
	}
	return string(r[:n-3]) + "..."
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	searchMatchStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("16")).
				Background(lipgloss.Color("220"))
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)
	confirmButtonStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("231")).
				Background(lipgloss.Color("160")).
				Padding(0, 1)
	emptyTitleStyle = lipgloss.NewStyle().Bold(true)
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}
