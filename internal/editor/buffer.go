// Package editor implements the modal text editor behind the shell's vim
// builtin, built on bubbletea. Editing operates on an in-memory line buffer;
// the caller decides what to do with the result.
package editor

import (
	"strings"
	"unicode"
)

// Buffer is a line-oriented text buffer. It always holds at least one line,
// possibly empty. Rows and columns are zero-based; a column may equal the
// line length, meaning the position just past the last rune.
type Buffer struct {
	lines [][]rune
}

// NewBuffer splits content into lines. A trailing newline does not produce
// an extra empty last line.
func NewBuffer(content []byte) *Buffer {
	text := strings.TrimSuffix(string(content), "\n")
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	return &Buffer{lines: lines}
}

// Bytes joins the lines with newlines. A buffer holding one empty line
// yields nil so an untouched empty file stays empty.
func (b *Buffer) Bytes() []byte {
	if b.LineCount() == 1 && len(b.lines[0]) == 0 {
		return nil
	}
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = string(l)
	}
	return []byte(strings.Join(parts, "\n"))
}

// LineCount returns the number of lines, always at least one.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns row's text, or "" when row is out of range.
func (b *Buffer) Line(row int) string {
	if row < 0 || row >= len(b.lines) {
		return ""
	}
	return string(b.lines[row])
}

// LineLen returns the rune length of row.
func (b *Buffer) LineLen(row int) int {
	if row < 0 || row >= len(b.lines) {
		return 0
	}
	return len(b.lines[row])
}

func (b *Buffer) clamp(row, col int) (int, int) {
	if row < 0 {
		row = 0
	}
	if row >= len(b.lines) {
		row = len(b.lines) - 1
	}
	if col < 0 {
		col = 0
	}
	if col > len(b.lines[row]) {
		col = len(b.lines[row])
	}
	return row, col
}

// InsertRune inserts r at (row, col).
func (b *Buffer) InsertRune(row, col int, r rune) {
	row, col = b.clamp(row, col)
	line := b.lines[row]
	line = append(line, 0)
	copy(line[col+1:], line[col:])
	line[col] = r
	b.lines[row] = line
}

// DeleteRune removes the rune at (row, col) and returns it. It returns false
// when the position holds no rune.
func (b *Buffer) DeleteRune(row, col int) (rune, bool) {
	if row < 0 || row >= len(b.lines) || col < 0 || col >= len(b.lines[row]) {
		return 0, false
	}
	line := b.lines[row]
	r := line[col]
	b.lines[row] = append(line[:col], line[col+1:]...)
	return r, true
}

// SplitLine breaks row at col, pushing the tail onto a new following line.
func (b *Buffer) SplitLine(row, col int) {
	row, col = b.clamp(row, col)
	line := b.lines[row]
	tail := make([]rune, len(line)-col)
	copy(tail, line[col:])
	b.lines[row] = line[:col]

	b.lines = append(b.lines, nil)
	copy(b.lines[row+2:], b.lines[row+1:])
	b.lines[row+1] = tail
}

// JoinLine appends row+1 onto row and returns the column where the join
// happened. It returns -1 when there is no following line.
func (b *Buffer) JoinLine(row int) int {
	if row < 0 || row+1 >= len(b.lines) {
		return -1
	}
	col := len(b.lines[row])
	b.lines[row] = append(b.lines[row], b.lines[row+1]...)
	b.lines = append(b.lines[:row+1], b.lines[row+2:]...)
	return col
}

// InsertLine inserts text as a new line at row, shifting the rest down.
func (b *Buffer) InsertLine(row int, text string) {
	if row < 0 {
		row = 0
	}
	if row > len(b.lines) {
		row = len(b.lines)
	}
	b.lines = append(b.lines, nil)
	copy(b.lines[row+1:], b.lines[row:])
	b.lines[row] = []rune(text)
}

// DeleteLine removes row and returns its text. Deleting the only line
// leaves a single empty one.
func (b *Buffer) DeleteLine(row int) string {
	if row < 0 || row >= len(b.lines) {
		return ""
	}
	text := string(b.lines[row])
	if len(b.lines) == 1 {
		b.lines[0] = nil
		return text
	}
	b.lines = append(b.lines[:row], b.lines[row+1:]...)
	return text
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// NextWord returns the position of the next word start after (row, col),
// crossing line boundaries.
func (b *Buffer) NextWord(row, col int) (int, int) {
	row, col = b.clamp(row, col)
	line := b.lines[row]

	// Leave the current word, then skip separators.
	for col < len(line) && isWordRune(line[col]) {
		col++
	}
	for {
		for col < len(line) && !isWordRune(line[col]) {
			col++
		}
		if col < len(line) {
			return row, col
		}
		if row+1 >= len(b.lines) {
			return row, max(0, len(line)-1)
		}
		row++
		line = b.lines[row]
		col = 0
		if len(line) == 0 || isWordRune(line[0]) {
			return row, 0
		}
	}
}

// PrevWord returns the position of the previous word start before (row, col).
func (b *Buffer) PrevWord(row, col int) (int, int) {
	row, col = b.clamp(row, col)
	for {
		col--
		for col < 0 {
			if row == 0 {
				return 0, 0
			}
			row--
			col = len(b.lines[row]) - 1
			if col < 0 {
				continue
			}
		}
		line := b.lines[row]
		if col < len(line) && isWordRune(line[col]) {
			for col > 0 && isWordRune(line[col-1]) {
				col--
			}
			return row, col
		}
	}
}

// Search finds pattern at or after (row, col), wrapping around to the top.
// It returns false when the pattern occurs nowhere.
func (b *Buffer) Search(pattern string, row, col int) (int, int, bool) {
	if pattern == "" {
		return 0, 0, false
	}
	row, col = b.clamp(row, col)

	for offset := 0; offset <= len(b.lines); offset++ {
		r := (row + offset) % len(b.lines)
		line := string(b.lines[r])
		from := 0
		if offset == 0 {
			from = col
			if from > len(line) {
				from = len(line)
			}
		}
		if idx := strings.Index(line[byteIndex(line, from):], pattern); idx >= 0 {
			byteOff := byteIndex(line, from) + idx
			return r, len([]rune(line[:byteOff])), true
		}
	}
	return 0, 0, false
}

// byteIndex converts a rune offset into a byte offset within s.
func byteIndex(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(s)
}
