package model

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/electr1fy0/bluenote/auth"
	"github.com/electr1fy0/bluenote/logger"
	"github.com/electr1fy0/bluenote/notes"
	"github.com/electr1fy0/bluenote/validation"
)

type state int

const (
	stateLogin state = iota
	stateList
	stateSearch
	stateView
	stateEdit
	stateConfirm
)

// which input has focus on the login and edit screens
const (
	focusFirst = iota
	focusSecond
)

// Authenticator performs the login round trip.
type Authenticator interface {
	Login(ctx context.Context, creds auth.Credentials) (auth.User, error)
}

// Deps is everything the UI needs from the rest of the program.
type Deps struct {
	Ctx           context.Context
	Notes         *notes.Store
	Auth          *auth.Store
	Authenticator Authenticator
	Limits        validation.Limits
	// SearchDebounce delays applying a typed query until typing pauses.
	SearchDebounce time.Duration
	// ExportRoot is where export directories are created.
	ExportRoot string
	Log        *logger.Logger
}

type listItem struct {
	id          string
	title       string
	description string
	updatedAt   time.Time
}

type loginResultMsg struct {
	user auth.User
	err  error
}

type searchDebounceMsg struct {
	seq   int
	query string
}

type editorFinishedMsg struct {
	path string
	err  error
}

type Model struct {
	state state

	width  int
	height int

	ctx           context.Context
	notes         *notes.Store
	auth          *auth.Store
	authenticator Authenticator
	limits        validation.Limits
	debounce      time.Duration
	exportRoot    string
	log           *logger.Logger

	userInput  textinput.Model
	pwInput    textinput.Model
	loginFocus int
	loginErrs  []error
	spinner    spinner.Model

	list list.Model

	searchInput textinput.Model
	// searchSeq identifies the latest scheduled search; older ticks are dropped.
	searchSeq int

	current     string
	viewContent string

	editID     string
	titleInput textinput.Model
	descInput  textarea.Model
	editFocus  int
	formErrs   []error

	confirmMsg    string
	confirmAction func(*Model)
	confirmReturn state

	status    string
	lastError string
}

// fieldError returns the error reported for field, or nil.
func fieldError(errs []error, field string) error {
	for _, err := range errs {
		if validation.Field(err) == field {
			return err
		}
	}
	return nil
}

func withoutField(errs []error, field string) []error {
	return slices.DeleteFunc(slices.Clone(errs), func(err error) bool {
		return validation.Field(err) == field
	})
}
