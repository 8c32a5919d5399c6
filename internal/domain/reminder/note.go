// internal/domain/reminder/note.go
package reminder

import (
	"time"

	"ecommify/internal/domain/day"
)

// Note is free text pinned to a single calendar date. Notes never recur.
type Note struct {
	ID        string
	Content   string
	Date      day.Date
	CreatedBy string
	CreatedAt time.Time
}

func NotesOn(ns []Note, d day.Date) []Note {
	var out []Note
	for _, n := range ns {
		if n.Date == d {
			out = append(out, n)
		}
	}
	return out
}
