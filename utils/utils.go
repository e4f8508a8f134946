package utils

import (
	"os"
	"os/exec"
	"strings"
)

// ResolveEditor picks $EDITOR, then nvim, then vi, then ed.
// The result may carry arguments, e.g. "code --wait".
func ResolveEditor(getenv func(string) string, lookPath func(string) (string, error)) []string {
	if ed := strings.Fields(getenv("EDITOR")); len(ed) > 0 {
		return ed
	}
	// prefer nvim if available
	for _, name := range []string{"nvim", "vi"} {
		if p, err := lookPath(name); err == nil {
			return []string{p}
		}
	}
	return []string{"ed"}
}

// EditorCommand writes initial to a temp file and returns the editor command
// for it together with the file path. Pass the path to ReadEdited afterwards.
func EditorCommand(initial string) (*exec.Cmd, string, error) {
	tmp, err := os.CreateTemp("", "bluenote-*.md")
	if err != nil {
		return nil, "", err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(initial); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return nil, "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, "", err
	}

	ed := ResolveEditor(os.Getenv, exec.LookPath)
	args := append(ed[1:], tmpName)
	cmd := exec.Command(ed[0], args...) //nolint:gosec // the user's own editor
	return cmd, tmpName, nil
}

// ReadEdited returns the edited text and removes the temp file.
func ReadEdited(path string) (string, error) {
	defer func() { _ = os.Remove(path) }()

	b, err := os.ReadFile(path) //nolint:gosec // path came from EditorCommand
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}
