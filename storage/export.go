package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/natefinch/atomic"

	"github.com/electr1fy0/bluenote/notes"
)

// ExportMarkdown writes one markdown file per note into dir and returns how
// many were written.
func ExportMarkdown(dir string, ns []notes.Note) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	count := 0
	for _, n := range ns {
		path := filepath.Join(dir, exportName(n))
		if err := atomic.WriteFile(path, strings.NewReader(NoteMarkdown(n))); err != nil {
			return count, fmt.Errorf("export %q: %w", n.Title, err)
		}
		count++
	}
	return count, nil
}

// NoteMarkdown renders a note as a markdown document.
func NoteMarkdown(n notes.Note) string {
	return fmt.Sprintf("# %s\n\n%s\n", n.Title, n.Description)
}

// exportName is "<slug>-<first 8 chars of id>.md" so equal titles do not collide.
func exportName(n notes.Note) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(n.Title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "note"
	}

	id := n.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return slug + "-" + id + ".md"
}
