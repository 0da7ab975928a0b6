package session

import (
	"strings"
	"unicode/utf8"
)

// Position is a zero-based line and rune column.
type Position struct {
	Line   int
	Column int
}

// Widget is the text input the session edits through.
type Widget interface {
	Value() string
	// SetValue replaces the content. It must not fire the change listener.
	SetValue(text string)
	Cursor() Position
	SetCursor(Position)
	// OnChange registers the listener for user edits. It may be called from
	// any goroutine.
	OnChange(func())
}

// ClampPosition moves p inside text: the line is clamped to the existing
// lines and the column to that line's rune length.
func ClampPosition(text string, p Position) Position {
	lines := strings.Split(text, "\n")
	line := clampInt(p.Line, 0, len(lines)-1)
	col := clampInt(p.Column, 0, utf8.RuneCountInString(lines[line]))
	return Position{Line: line, Column: col}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
