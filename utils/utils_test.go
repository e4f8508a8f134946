package utils

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEditor(t *testing.T) {
	found := func(names ...string) func(string) (string, error) {
		return func(name string) (string, error) {
			for _, n := range names {
				if n == name {
					return "/usr/bin/" + name, nil
				}
			}
			return "", errors.New("not found")
		}
	}
	env := func(v string) func(string) string {
		return func(string) string { return v }
	}

	assert.Equal(t, []string{"code", "--wait"}, ResolveEditor(env("code --wait"), found("nvim")))
	assert.Equal(t, []string{"/usr/bin/nvim"}, ResolveEditor(env(""), found("nvim", "vi")))
	assert.Equal(t, []string{"/usr/bin/vi"}, ResolveEditor(env("  "), found("vi")))
	assert.Equal(t, []string{"ed"}, ResolveEditor(env(""), found()))
}

func TestEditorCommand_RoundTrip(t *testing.T) {
	t.Setenv("EDITOR", "true")

	cmd, path, err := EditorCommand("Milk, eggs\n")
	require.NoError(t, err)
	assert.Equal(t, path, cmd.Args[len(cmd.Args)-1])
	require.NoError(t, cmd.Run())

	got, err := ReadEdited(path)
	require.NoError(t, err)
	assert.Equal(t, "Milk, eggs", got)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
