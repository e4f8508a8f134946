package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electr1fy0/bluenote/auth"
	"github.com/electr1fy0/bluenote/notes"
	"github.com/electr1fy0/bluenote/validation"
)

type fakeAuthenticator struct {
	calls atomic.Int32
}

func (f *fakeAuthenticator) Login(_ context.Context, creds auth.Credentials) (auth.User, error) {
	f.calls.Add(1)
	if creds.Username == "test" && creds.Password == "password123" {
		return auth.User{ID: auth.DemoUserID, Username: creds.Username}, nil
	}
	return auth.User{}, auth.ErrInvalidCredentials
}

type harness struct {
	t     *testing.T
	m     Model
	notes *notes.Store
	auth  *auth.Store
	authn *fakeAuthenticator
}

func newHarness(t *testing.T, opts ...func(*Deps)) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		notes: notes.NewStore(),
		auth:  auth.NewStore(),
		authn: &fakeAuthenticator{},
	}
	d := Deps{
		Notes:          h.notes,
		Auth:           h.auth,
		Authenticator:  h.authn,
		Limits:         validation.Limits{MaxTitle: 100, MaxDescription: 500},
		SearchDebounce: time.Millisecond,
		ExportRoot:     t.TempDir(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	h.m = New(d)
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	m, ok := next.(Model)
	require.True(h.t, ok)
	h.m = m
	return cmd
}

func (h *harness) key(k string) tea.Cmd {
	h.t.Helper()
	switch k {
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "tab":
		return h.send(tea.KeyMsg{Type: tea.KeyTab})
	case "ctrl+s":
		return h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	case "down":
		return h.send(tea.KeyMsg{Type: tea.KeyDown})
	case "backspace":
		return h.send(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// runLogin executes the batched login command and feeds back its result.
func (h *harness) runLogin(cmd tea.Cmd) {
	h.t.Helper()
	require.NotNil(h.t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(h.t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if res, ok := c().(loginResultMsg); ok {
			h.send(res)
			return
		}
	}
	h.t.Fatal("no login result in batch")
}

func (h *harness) login() {
	h.t.Helper()
	h.typeText("test")
	h.key("tab")
	h.typeText("password123")
	h.runLogin(h.key("enter"))
	require.Equal(h.t, stateList, h.m.state)
}

func (h *harness) addNote(title, description string) {
	h.t.Helper()
	h.key("a")
	require.Equal(h.t, stateEdit, h.m.state)
	h.typeText(title)
	h.key("tab")
	h.typeText(description)
	h.key("ctrl+s")
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t)
		h.typeText("test")
		h.key("enter") // moves to the empty password field
		assert.Equal(t, focusSecond, h.m.loginFocus)

		h.typeText("password123")
		cmd := h.key("enter")
		st := h.auth.State()
		assert.True(t, st.IsLoading)
		assert.Contains(t, h.m.View(), "Signing in...")

		h.runLogin(cmd)
		st = h.auth.State()
		require.True(t, st.IsAuthenticated)
		assert.False(t, st.IsLoading)
		assert.Equal(t, "test", st.User.Username)
		assert.Equal(t, stateList, h.m.state)
		assert.Contains(t, h.m.View(), "Hello, test!")
		assert.Contains(t, h.m.View(), "No notes yet")
	})

	t.Run("wrong password", func(t *testing.T) {
		h := newHarness(t)
		h.typeText("test")
		h.key("tab")
		h.typeText("nope")
		h.runLogin(h.key("enter"))

		st := h.auth.State()
		assert.False(t, st.IsAuthenticated)
		assert.False(t, st.IsLoading)
		assert.Nil(t, st.User)
		assert.Equal(t, auth.MsgInvalidCredentials, st.Error)
		assert.Equal(t, stateLogin, h.m.state)
		assert.Empty(t, h.m.pwInput.Value())
		assert.Contains(t, h.m.View(), auth.MsgInvalidCredentials)
	})

	t.Run("empty fields never reach the authenticator", func(t *testing.T) {
		h := newHarness(t)
		h.key("tab")
		h.typeText("password123")
		cmd := h.key("enter")

		assert.Nil(t, cmd)
		assert.NotNil(t, fieldError(h.m.loginErrs, "username"))
		assert.Nil(t, fieldError(h.m.loginErrs, "password"))
		assert.Equal(t, 1, strings.Count(h.m.View(), validation.MsgRequired))
		assert.Zero(t, h.authn.calls.Load())
		assert.False(t, h.auth.State().IsLoading)
	})

	t.Run("typing clears the field error", func(t *testing.T) {
		h := newHarness(t)
		h.key("tab")
		h.typeText("x")
		h.key("enter")
		require.Len(t, h.m.loginErrs, 1)

		h.key("tab")
		h.typeText("t")
		assert.Empty(t, h.m.loginErrs)
	})

	t.Run("every empty field is marked", func(t *testing.T) {
		h := newHarness(t)
		h.key("enter") // moves to the password field
		assert.Nil(t, h.key("enter"))

		require.Len(t, h.m.loginErrs, 2)
		assert.Equal(t, 2, strings.Count(h.m.View(), validation.MsgRequired))

		// typing in one field leaves the other field's message
		h.typeText("p")
		assert.Nil(t, fieldError(h.m.loginErrs, "password"))
		assert.NotNil(t, fieldError(h.m.loginErrs, "username"))
		assert.Equal(t, 1, strings.Count(h.m.View(), validation.MsgRequired))
	})

	t.Run("second submit while loading is ignored", func(t *testing.T) {
		h := newHarness(t)
		h.typeText("test")
		h.key("tab")
		h.typeText("password123")
		require.NotNil(t, h.key("enter"))
		assert.Nil(t, h.key("enter"))
	})
}

func TestRestoredSessionOpensList(t *testing.T) {
	h := newHarness(t, func(d *Deps) {
		d.Auth.Restore(auth.Session{User: &auth.User{ID: "1", Username: "test"}, IsAuthenticated: true})
		d.Notes.Restore([]notes.Note{{ID: "n1", Title: "Groceries", Description: "milk"}})
	})

	assert.Equal(t, stateList, h.m.state)
	assert.Len(t, h.m.list.Items(), 1)
	assert.Contains(t, h.m.View(), "Groceries")
	assert.Contains(t, h.m.View(), "My Notes (1 note)")
}

func TestAddNote(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.addNote("Groceries", "milk and eggs")
	assert.Equal(t, stateList, h.m.state)
	require.Equal(t, 1, h.notes.Len())
	n := h.notes.Notes()[0]
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, "milk and eggs", n.Description)
	assert.Equal(t, "Added note: Groceries", h.m.status)

	h.addNote("Todo", "call bob")
	got := h.notes.Notes()
	require.Len(t, got, 2)
	assert.Equal(t, "Todo", got[0].Title)
	assert.Contains(t, h.m.View(), "My Notes (2 notes)")
}

func TestAddNoteValidation(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.key("a")
	h.key("tab")
	h.typeText("no title")
	h.key("ctrl+s")

	assert.Equal(t, stateEdit, h.m.state)
	assert.NotNil(t, fieldError(h.m.formErrs, "title"))
	assert.Nil(t, fieldError(h.m.formErrs, "description"))
	assert.Contains(t, h.m.View(), validation.MsgTitleRequired)
	assert.Zero(t, h.notes.Len())

	h.key("tab")
	h.typeText("   ")
	h.key("ctrl+s")
	assert.NotNil(t, fieldError(h.m.formErrs, "title"))

	h.key("esc")
	assert.Equal(t, stateList, h.m.state)
	assert.Zero(t, h.notes.Len())
}

func TestAddNoteMarksEveryEmptyField(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.key("a")
	h.key("ctrl+s")

	require.Len(t, h.m.formErrs, 2)
	view := h.m.View()
	assert.Contains(t, view, validation.MsgTitleRequired)
	assert.Contains(t, view, validation.MsgDescriptionRequired)

	h.typeText("Groceries")
	assert.Nil(t, fieldError(h.m.formErrs, "title"))
	assert.NotNil(t, fieldError(h.m.formErrs, "description"))
	assert.NotContains(t, h.m.View(), validation.MsgTitleRequired)
}

func TestEditNote(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.addNote("Groceries", "milk")

	h.key("e")
	require.Equal(t, stateEdit, h.m.state)
	assert.Equal(t, "Groceries", h.m.titleInput.Value())
	assert.Contains(t, h.m.View(), "Edit Note")

	h.typeText("!")
	h.key("ctrl+s")
	assert.Equal(t, "Groceries!", h.notes.Notes()[0].Title)
	assert.Equal(t, 1, h.notes.Len())
}

func TestEditMissingNote(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.addNote("Groceries", "milk")

	id := h.notes.Notes()[0].ID
	h.key("e")
	require.NoError(t, h.notes.Delete(id))
	h.key("ctrl+s")

	assert.Equal(t, stateList, h.m.state)
	assert.Equal(t, "Note not found", h.m.status)
	assert.NotEmpty(t, h.m.lastError)
	assert.Zero(t, h.notes.Len())
}

func TestSearchDebounce(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.addNote("Groceries", "milk")
	h.addNote("Todo", "call alice")

	h.key("/")
	require.Equal(t, stateSearch, h.m.state)
	h.typeText("ali")
	stale := h.m.searchSeq
	h.typeText("c")

	// an older tick loses to the latest keystroke
	h.send(searchDebounceMsg{seq: stale, query: "ali"})
	assert.Empty(t, h.notes.SearchQuery())
	assert.Len(t, h.m.list.Items(), 2)

	h.send(searchDebounceMsg{seq: h.m.searchSeq, query: "alic"})
	assert.Equal(t, "alic", h.notes.SearchQuery())
	require.Len(t, h.m.list.Items(), 1)
	assert.Equal(t, "Todo", h.m.list.Items()[0].(listItem).title)

	h.key("esc")
	assert.Equal(t, stateList, h.m.state)
	assert.Empty(t, h.notes.SearchQuery())
	assert.Len(t, h.m.list.Items(), 2)
}

func TestDebounceSearchTick(t *testing.T) {
	msg := debounceSearch(time.Millisecond, 7, "milk")()
	assert.Equal(t, searchDebounceMsg{seq: 7, query: "milk"}, msg)
}

func TestSearchEnterAppliesImmediately(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.addNote("Groceries", "milk")
	h.addNote("Todo", "call alice")

	h.key("/")
	h.typeText("zzz")
	seq := h.m.searchSeq
	h.key("enter")

	assert.Equal(t, stateList, h.m.state)
	assert.Equal(t, "zzz", h.notes.SearchQuery())
	assert.Empty(t, h.m.list.Items())
	assert.Contains(t, h.m.View(), "No matching notes")

	// the tick scheduled before enter no longer applies
	h.send(searchDebounceMsg{seq: seq, query: "zz"})
	assert.Equal(t, "zzz", h.notes.SearchQuery())

	h.key("c")
	assert.Empty(t, h.notes.SearchQuery())
	assert.Len(t, h.m.list.Items(), 2)
}

func TestDeleteNote(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.addNote("Groceries", "milk")

	h.key("d")
	require.Equal(t, stateConfirm, h.m.state)
	assert.Contains(t, h.m.View(), "Delete note 'Groceries'?")

	h.key("n")
	assert.Equal(t, stateList, h.m.state)
	assert.Equal(t, 1, h.notes.Len())

	h.key("d")
	h.key("y")
	assert.Equal(t, stateList, h.m.state)
	assert.Zero(t, h.notes.Len())
	assert.Equal(t, "Deleted: Groceries", h.m.status)
}

func TestDeleteTargetsHighlightedNoteOnMultiPageList(t *testing.T) {
	seeded := make([]notes.Note, 0, 12)
	for i := 11; i >= 0; i-- {
		seeded = append(seeded, notes.Note{ID: fmt.Sprintf("id-%02d", i), Title: fmt.Sprintf("note %02d", i), Description: "body"})
	}
	h := newHarness(t, func(d *Deps) {
		d.Auth.Restore(auth.Session{User: &auth.User{ID: "1", Username: "test"}, IsAuthenticated: true})
		d.Notes.Restore(seeded)
	})
	h.send(tea.WindowSizeMsg{Width: 80, Height: 20})
	require.Greater(t, h.m.list.Paginator.TotalPages, 1)

	h.key("down")
	highlighted, ok := h.m.list.SelectedItem().(listItem)
	require.True(t, ok)
	require.Equal(t, "note 10", highlighted.title)
	page := h.m.list.Paginator.Page

	h.key("d")
	require.Equal(t, stateConfirm, h.m.state)
	assert.Equal(t, "Delete note 'note 10'? (y/N)", h.m.confirmMsg)
	assert.Equal(t, page, h.m.list.Paginator.Page)

	h.key("y")
	_, ok = h.notes.Get(highlighted.id)
	assert.False(t, ok)
	assert.Equal(t, 11, h.notes.Len())
	_, ok = h.notes.Get("id-11")
	assert.True(t, ok)
}

func TestViewNote(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.addNote("Groceries", "milk")

	h.key("enter")
	require.Equal(t, stateView, h.m.state)
	assert.NotEmpty(t, h.m.viewContent)
	assert.Contains(t, h.m.View(), "Groceries")

	h.key("b")
	assert.Equal(t, stateList, h.m.state)
}

func TestLogoutClearsNotes(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.addNote("Groceries", "milk")

	h.key("L")
	require.Equal(t, stateConfirm, h.m.state)
	h.key("y")

	assert.Equal(t, stateLogin, h.m.state)
	assert.False(t, h.auth.State().IsAuthenticated)
	assert.Nil(t, h.auth.State().User)
	assert.Zero(t, h.notes.Len())
	assert.Empty(t, h.m.userInput.Value())
}

func TestExportNotes(t *testing.T) {
	root := t.TempDir()
	h := newHarness(t, func(d *Deps) { d.ExportRoot = root })
	h.login()
	h.addNote("Groceries", "milk")

	h.key("x")
	assert.Empty(t, h.m.lastError)
	assert.True(t, strings.HasPrefix(h.m.status, "Exported 1 notes"), h.m.status)

	files, err := filepath.Glob(filepath.Join(root, "bluenote_export_*", "*.md"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "# Groceries\n\nmilk\n", string(data))
}

func TestSessionLossReturnsToLogin(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.auth.Logout()
	h.key("a")
	assert.Equal(t, stateLogin, h.m.state)
}
