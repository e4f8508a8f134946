package model

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/electr1fy0/bluenote/logger"
	"github.com/electr1fy0/bluenote/notes"
	"github.com/electr1fy0/bluenote/storage"
)

const previewLen = 60

func (i listItem) FilterValue() string { return i.title }

func (i listItem) Title() string { return i.title }

func (i listItem) Description() string {
	preview := strings.Join(strings.Fields(i.description), " ")
	if r := []rune(preview); len(r) > previewLen {
		preview = string(r[:previewLen]) + "..."
	}
	return fmt.Sprintf("%s • %s", i.updatedAt.Format("2006-01-02 15:04"), preview)
}

// New builds the UI. A session restored as authenticated opens on the notes list.
func New(d Deps) Model {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.ExportRoot == "" {
		d.ExportRoot = "."
	}

	si := textinput.New()
	si.Placeholder = "search notes..."
	si.CharLimit = 100
	si.Width = 40
	si.Prompt = "/ "

	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 80, 20)
	l.Title = "My Notes"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		state:         stateLogin,
		ctx:           d.Ctx,
		notes:         d.Notes,
		auth:          d.Auth,
		authenticator: d.Authenticator,
		limits:        d.Limits,
		debounce:      d.SearchDebounce,
		exportRoot:    d.ExportRoot,
		log:           d.Log,
		searchInput:   si,
		list:          l,
		spinner:       sp,
		titleInput:    newTitleInput(d.Limits.MaxTitle),
		descInput:     newDescInput(d.Limits.MaxDescription, 80),
	}
	m.resetLogin()

	if m.auth.State().IsAuthenticated {
		m.state = stateList
		m.refreshList()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetWidth(msg.Width - 4)
		m.list.SetHeight(msg.Height - 8)
		m.descInput.SetWidth(max(msg.Width-8, 20))

		if m.state == stateView {
			if n, ok := m.notes.Get(m.current); ok {
				m.viewContent = renderNoteBody(n.Description, m.width)
			}
		}
		return m, nil
	case loginResultMsg:
		return m.handleLoginResult(msg)
	case searchDebounceMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.notes.SetSearchQuery(msg.query)
		m.refreshList()
		return m, nil
	case editorFinishedMsg:
		return m.handleEditorFinished(msg)
	case spinner.TickMsg:
		if !m.auth.State().IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// every screen but login needs a session
	if m.state != stateLogin && !m.auth.State().IsAuthenticated {
		m.resetLogin()
		m.state = stateLogin
	}

	switch m.state {
	case stateLogin:
		return m.updateLogin(msg)
	case stateSearch:
		return m.updateSearch(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	case stateList:
		return m.updateList(msg)
	case stateView:
		return m.updateView(msg)
	case stateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

// updateList handles the app's keys before the list does; d is also the
// list's next-page key.
func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "/":
			m.state = stateSearch
			cmd := m.searchInput.Focus()
			return m, cmd
		case "c":
			if m.notes.SearchQuery() != "" || m.searchInput.Value() != "" {
				m.clearSearch()
				m.status = "Cleared search"
				m.lastError = ""
			}
			return m, nil
		case "a":
			return m.openEditor("")
		case "e":
			if it, ok := m.list.SelectedItem().(listItem); ok {
				return m.openEditor(it.id)
			}
			return m, nil
		case "enter":
			if it, ok := m.list.SelectedItem().(listItem); ok {
				m.openView(it.id)
			}
			return m, nil
		case "d":
			if it, ok := m.list.SelectedItem().(listItem); ok {
				m.confirmDelete(it.id, it.title)
			}
			return m, nil
		case "x":
			if err := m.exportNotes(); err != nil {
				m.status = "Export failed: " + err.Error()
				m.lastError = err.Error()
				m.log.Error("export failed", "err", err)
			}
			return m, nil
		case "L":
			m.confirmMsg = "Are you sure you want to logout? (y/N)"
			m.confirmReturn = stateList
			m.confirmAction = func(m *Model) { m.logout() }
			m.state = stateConfirm
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateSearch schedules a debounced query on every edit of the input.
// Each keystroke bumps searchSeq, which cancels any tick still pending.
func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			m.searchSeq++
			m.notes.SetSearchQuery(m.searchInput.Value())
			m.searchInput.Blur()
			m.refreshList()
			m.state = stateList
			m.status = fmt.Sprintf("Search: '%s' (%d results)", m.searchInput.Value(), len(m.list.Items()))
			m.lastError = ""
			return m, nil
		case "esc":
			m.clearSearch()
			m.searchInput.Blur()
			m.state = stateList
			return m, nil
		}
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		m.searchSeq++
		return m, tea.Batch(cmd, debounceSearch(m.debounce, m.searchSeq, after))
	}
	return m, cmd
}

func debounceSearch(d time.Duration, seq int, query string) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq, query: query}
	})
}

func (m *Model) clearSearch() {
	m.searchSeq++
	m.searchInput.SetValue("")
	m.notes.SetSearchQuery("")
	m.refreshList()
}

func (m Model) updateView(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch k.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "b", "esc":
		m.state = stateList
	case "e":
		return m.openEditor(m.current)
	case "d":
		if n, ok := m.notes.Get(m.current); ok {
			m.confirmDelete(n.ID, n.Title)
			m.confirmReturn = stateView
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch k.String() {
	case "y", "Y":
		m.state = stateList
		if m.confirmAction != nil {
			m.confirmAction(&m)
		}
		m.confirmAction = nil
	case "n", "N", "esc":
		m.state = m.confirmReturn
		m.confirmAction = nil
	}
	return m, nil
}

func (m *Model) openView(id string) {
	n, ok := m.notes.Get(id)
	if !ok {
		m.status = "Note not found"
		m.lastError = notes.ErrNoteNotFound.Error()
		m.refreshList()
		return
	}
	m.current = n.ID
	m.viewContent = renderNoteBody(n.Description, m.width)
	m.state = stateView
}

func (m *Model) confirmDelete(id, title string) {
	m.confirmMsg = fmt.Sprintf("Delete note '%s'? (y/N)", title)
	m.confirmReturn = stateList
	m.confirmAction = func(m *Model) {
		if err := m.notes.Delete(id); err != nil {
			m.status = "Note not found: " + title
			m.lastError = err.Error()
		} else {
			m.status = "Deleted: " + title
			m.lastError = ""
			m.log.Debug("note deleted", "id", id)
		}
		m.refreshList()
	}
	m.state = stateConfirm
}

// logout ends the session and drops every note, as the home screen does.
func (m *Model) logout() {
	m.auth.Logout()
	m.notes.Clear()
	m.searchSeq++
	m.searchInput.SetValue("")
	m.refreshList()
	m.resetLogin()
	m.state = stateLogin
	m.status = "Logged out"
	m.lastError = ""
	m.log.Info("logged out")
}

func (m *Model) exportNotes() error {
	dir := filepath.Join(m.exportRoot, fmt.Sprintf("bluenote_export_%d", time.Now().Unix()))
	count, err := storage.ExportMarkdown(dir, m.notes.Notes())
	if err != nil {
		return err
	}

	m.status = fmt.Sprintf("Exported %d notes to %s/", count, dir)
	m.lastError = ""
	return nil
}

// refreshList loads the filtered view into the list.
func (m *Model) refreshList() {
	filtered := m.notes.Filtered()
	items := make([]list.Item, 0, len(filtered))
	for _, n := range filtered {
		items = append(items, listItem{
			id:          n.ID,
			title:       n.Title,
			description: n.Description,
			updatedAt:   n.UpdatedAt,
		})
	}
	m.list.SetItems(items)

	count := m.notes.Len()
	suffix := "s"
	if count == 1 {
		suffix = ""
	}
	m.list.Title = fmt.Sprintf("My Notes (%d note%s)", count, suffix)
}

func isNotFound(err error) bool {
	return errors.Is(err, notes.ErrNoteNotFound)
}
