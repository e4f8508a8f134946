package notes

import (
	"strings"
	"time"
)

// Note is a user-authored title and description with lifecycle timestamps.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// matches reports whether the lower-cased query occurs in the title or description.
func (n Note) matches(lowerQuery string) bool {
	return strings.Contains(strings.ToLower(n.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(n.Description), lowerQuery)
}

// Filter returns the notes whose title or description contains query,
// ignoring case, in their original order. A blank query keeps every note.
func Filter(notes []Note, query string) []Note {
	out := make([]Note, 0, len(notes))
	if strings.TrimSpace(query) == "" {
		return append(out, notes...)
	}

	q := strings.ToLower(query)
	for _, n := range notes {
		if n.matches(q) {
			out = append(out, n)
		}
	}
	return out
}
