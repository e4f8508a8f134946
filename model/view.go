package model

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/electr1fy0/bluenote/validation"
)

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("bluenote"))
	s.WriteString("\n\n")

	switch m.state {
	case stateLogin:
		m.viewLogin(&s)
	case stateList, stateSearch:
		m.viewList(&s)
	case stateView:
		m.viewNote(&s)
	case stateEdit:
		m.viewEdit(&s)
	case stateConfirm:
		s.WriteString(warningStyle.Render(m.confirmMsg))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("y: confirm  n/esc: cancel"))
	}

	return s.String()
}

func (m Model) viewLogin(s *strings.Builder) {
	st := m.auth.State()

	s.WriteString("Sign in to continue\n\n")
	s.WriteString(labelStyle.Render("Username"))
	s.WriteString("\n")
	s.WriteString(m.userInput.View())
	writeFieldError(s, m.loginErrs, "username")
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Password"))
	s.WriteString("\n")
	s.WriteString(m.pwInput.View())
	writeFieldError(s, m.loginErrs, "password")
	s.WriteString("\n")

	if st.IsLoading {
		s.WriteString(m.spinner.View() + " Signing in...\n")
	}
	if st.Error != "" {
		s.WriteString(errorStyle.Render(st.Error))
		s.WriteString("\n")
	} else if m.status != "" {
		s.WriteString(helpStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("tab: switch field  enter: sign in  ctrl+c: quit"))
}

func (m Model) viewList(s *strings.Builder) {
	if st := m.auth.State(); st.User != nil {
		s.WriteString(fmt.Sprintf("Hello, %s!\n\n", st.User.Username))
	}

	if m.state == stateSearch {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	} else if q := m.notes.SearchQuery(); strings.TrimSpace(q) != "" {
		s.WriteString(helpStyle.Render(fmt.Sprintf("search: '%s'", q)))
		s.WriteString("\n\n")
	}

	if len(m.list.Items()) == 0 {
		s.WriteString(m.list.Title)
		s.WriteString("\n\n")
		if strings.TrimSpace(m.notes.SearchQuery()) != "" {
			s.WriteString("No matching notes\n")
			s.WriteString(helpStyle.Render("Try adjusting your search terms"))
		} else {
			s.WriteString("No notes yet\n")
			s.WriteString(helpStyle.Render("Create your first note to get started"))
		}
		s.WriteString("\n\n")
	} else {
		s.WriteString(m.list.View())
		s.WriteString("\n")
	}

	if m.state == stateSearch {
		s.WriteString(helpStyle.Render("enter: done  esc: clear"))
	} else {
		helpParts := []string{"a:add", "enter:view", "e:edit", "d:delete", "/:search"}
		if m.notes.SearchQuery() != "" {
			helpParts = append(helpParts, "c:clear search")
		}
		helpParts = append(helpParts, "x:export", "L:logout", "q:quit")
		s.WriteString(helpStyle.Render(strings.Join(helpParts, "  ")))
	}

	m.writeStatus(s)
}

func (m Model) viewNote(s *strings.Builder) {
	n, ok := m.notes.Get(m.current)
	if !ok {
		s.WriteString(errorStyle.Render("Note not found"))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("b: back"))
		return
	}

	s.WriteString(titleStyle.Render(n.Title))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Updated: " + n.UpdatedAt.Format("2006-01-02 15:04")))
	s.WriteString("\n\n")
	s.WriteString(m.viewContent)
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("e:edit  d:delete  b:back  q:quit"))
	m.writeStatus(s)
}

func (m Model) viewEdit(s *strings.Builder) {
	if m.editID == "" {
		s.WriteString(titleStyle.Render("New Note"))
	} else {
		s.WriteString(titleStyle.Render("Edit Note"))
	}
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Title"))
	s.WriteString(helpStyle.Render(counter(m.titleInput.Value(), m.limits.MaxTitle)))
	s.WriteString("\n")
	s.WriteString(m.titleInput.View())
	writeFieldError(s, m.formErrs, "title")
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Description"))
	s.WriteString(helpStyle.Render(counter(m.descInput.Value(), m.limits.MaxDescription)))
	s.WriteString("\n")
	s.WriteString(m.descInput.View())
	writeFieldError(s, m.formErrs, "description")
	s.WriteString("\n\n")

	s.WriteString(helpStyle.Render("tab: switch field  ctrl+s: save  ctrl+e: $EDITOR  esc: cancel"))
	m.writeStatus(s)
}

func (m Model) writeStatus(s *strings.Builder) {
	if m.status == "" {
		return
	}
	s.WriteString("\n")
	if m.lastError != "" {
		s.WriteString(errorStyle.Render(m.status))
	} else {
		s.WriteString(successStyle.Render(m.status))
	}
}

func writeFieldError(s *strings.Builder, errs []error, field string) {
	err := fieldError(errs, field)
	if err == nil {
		return
	}
	s.WriteString("\n")
	s.WriteString(errorStyle.Render(validation.Message(err)))
}

func counter(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%d/%d)", utf8.RuneCountInString(value), limit)
}
