package model

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/electr1fy0/bluenote/utils"
	"github.com/electr1fy0/bluenote/validation"
)

func newTitleInput(limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Enter note title"
	ti.CharLimit = limit
	ti.Width = 50
	return ti
}

func newDescInput(limit, width int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Enter note description"
	ta.CharLimit = limit
	ta.ShowLineNumbers = false
	ta.SetWidth(max(width-4, 20))
	ta.SetHeight(8)
	return ta
}

// openEditor shows the form for a new note (id == "") or an existing one.
func (m Model) openEditor(id string) (tea.Model, tea.Cmd) {
	m.editID = id
	m.titleInput = newTitleInput(m.limits.MaxTitle)
	m.descInput = newDescInput(m.limits.MaxDescription, m.width)
	m.formErrs = nil

	if id != "" {
		n, ok := m.notes.Get(id)
		if !ok {
			m.status = "Note not found"
			m.lastError = "note not found"
			m.state = stateList
			m.refreshList()
			return m, nil
		}
		m.titleInput.SetValue(n.Title)
		m.descInput.SetValue(n.Description)
	}

	m.editFocus = focusFirst
	m.descInput.Blur()
	m.state = stateEdit
	cmd := m.titleInput.Focus()
	return m, cmd
}

func (m Model) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.state = stateList
			m.status = "Discarded changes"
			m.lastError = ""
			return m, nil
		case "tab", "shift+tab":
			cmd := m.toggleEditFocus()
			return m, cmd
		case "ctrl+s":
			return m.saveNote()
		case "ctrl+e":
			cmd, path, err := utils.EditorCommand(m.descInput.Value())
			if err != nil {
				m.status = "Editor failed: " + err.Error()
				m.lastError = err.Error()
				return m, nil
			}
			return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
				return editorFinishedMsg{path: path, err: err}
			})
		}
	}

	var cmd tea.Cmd
	if m.editFocus == focusFirst {
		before := m.titleInput.Value()
		m.titleInput, cmd = m.titleInput.Update(msg)
		if m.titleInput.Value() != before {
			m.formErrs = withoutField(m.formErrs, "title")
		}
	} else {
		before := m.descInput.Value()
		m.descInput, cmd = m.descInput.Update(msg)
		if m.descInput.Value() != before {
			m.formErrs = withoutField(m.formErrs, "description")
		}
	}
	return m, cmd
}

func (m *Model) toggleEditFocus() tea.Cmd {
	if m.editFocus == focusFirst {
		m.editFocus = focusSecond
		m.titleInput.Blur()
		return m.descInput.Focus()
	}
	m.editFocus = focusFirst
	m.descInput.Blur()
	return m.titleInput.Focus()
}

// saveNote validates the form and stores the trimmed values.
func (m Model) saveNote() (tea.Model, tea.Cmd) {
	title, description := m.titleInput.Value(), m.descInput.Value()
	if errs := validation.NoteFieldErrors(title, description); len(errs) > 0 {
		m.formErrs = errs
		return m, nil
	}
	if err := validation.ValidateNoteLength(title, description, m.limits); err != nil {
		m.formErrs = []error{err}
		return m, nil
	}
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)

	if m.editID == "" {
		n := m.notes.Add(title, description)
		m.status = "Added note: " + n.Title
		m.log.Debug("note added", "id", n.ID)
	} else {
		n, err := m.notes.Update(m.editID, title, description)
		if err != nil {
			m.status = "Note not found"
			m.lastError = err.Error()
			if !isNotFound(err) {
				m.log.Error("update failed", "id", m.editID, "err", err)
			}
			m.state = stateList
			m.refreshList()
			return m, nil
		}
		m.status = "Saved " + n.Title
		m.log.Debug("note updated", "id", n.ID)
	}

	m.lastError = ""
	m.formErrs = nil
	m.state = stateList
	m.refreshList()
	return m, nil
}

func (m Model) handleEditorFinished(msg editorFinishedMsg) (tea.Model, tea.Cmd) {
	text, readErr := utils.ReadEdited(msg.path)
	if msg.err != nil {
		m.status = "Editor failed: " + msg.err.Error()
		m.lastError = msg.err.Error()
		return m, nil
	}
	if readErr != nil {
		m.status = "Editor failed: " + readErr.Error()
		m.lastError = readErr.Error()
		return m, nil
	}

	if m.state == stateEdit {
		m.descInput.SetValue(text)
		m.formErrs = withoutField(m.formErrs, "description")
	}
	return m, nil
}
