package editor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// feed drives key names ("i", "esc", "enter", ...) or literal text through
// the model. Names recognized by bubbletea become special keys; everything
// else is typed rune by rune.
func feed(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			for _, r := range k {
				next, _ := m.Update(keyRunes(string(r)))
				m = next.(Model)
			}
			continue
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestInsertText(t *testing.T) {
	m := newModel("t", nil)
	m = feed(t, m, "i", "hello", "esc")

	if got := string(m.buf.Bytes()); got != "hello" {
		t.Errorf("buffer = %q, want hello", got)
	}
	if !m.dirty {
		t.Error("buffer not marked dirty after insert")
	}
}

func TestInsertSplitsLines(t *testing.T) {
	m := newModel("t", []byte("ahead"))
	m = feed(t, m, "i", "x") // cursor at 0, insert before
	m = feed(t, m, "enter", "esc")

	if got := string(m.buf.Bytes()); got != "x\nahead" {
		t.Errorf("buffer = %q, want x\\nahead", got)
	}
}

func TestDeleteCharAndLine(t *testing.T) {
	m := newModel("t", []byte("abc\ndef"))
	m = feed(t, m, "x")
	if got := m.buf.Line(0); got != "bc" {
		t.Errorf("line after x = %q, want bc", got)
	}

	m = feed(t, m, "dd")
	if got := string(m.buf.Bytes()); got != "def" {
		t.Errorf("buffer after dd = %q, want def", got)
	}
}

func TestYankAndPasteLine(t *testing.T) {
	m := newModel("t", []byte("one\ntwo"))
	m = feed(t, m, "yy", "j", "p")

	if got := string(m.buf.Bytes()); got != "one\ntwo\none" {
		t.Errorf("buffer = %q, want one\\ntwo\\none", got)
	}
}

func TestDeletedLineIsPasteable(t *testing.T) {
	m := newModel("t", []byte("one\ntwo"))
	m = feed(t, m, "dd", "p")

	if got := string(m.buf.Bytes()); got != "two\none" {
		t.Errorf("buffer = %q, want two\\none", got)
	}
}

func TestMotions(t *testing.T) {
	m := newModel("t", []byte("alpha beta\ngamma"))

	m = feed(t, m, "w")
	if m.row != 0 || m.col != 6 {
		t.Errorf("after w: (%d,%d), want (0,6)", m.row, m.col)
	}
	m = feed(t, m, "w")
	if m.row != 1 || m.col != 0 {
		t.Errorf("after second w: (%d,%d), want (1,0)", m.row, m.col)
	}
	m = feed(t, m, "b")
	if m.row != 0 || m.col != 6 {
		t.Errorf("after b: (%d,%d), want (0,6)", m.row, m.col)
	}
	m = feed(t, m, "$")
	if m.col != 9 {
		t.Errorf("after $: col %d, want 9", m.col)
	}
	m = feed(t, m, "0")
	if m.col != 0 {
		t.Errorf("after 0: col %d, want 0", m.col)
	}
	m = feed(t, m, "G")
	if m.row != 1 {
		t.Errorf("after G: row %d, want 1", m.row)
	}
}

func TestCursorClampsOnShorterLine(t *testing.T) {
	m := newModel("t", []byte("a long line\nhi"))
	m = feed(t, m, "$", "j")

	if m.row != 1 || m.col != 1 {
		t.Errorf("cursor = (%d,%d), want (1,1)", m.row, m.col)
	}
}

func TestOpenLineBelowAndAbove(t *testing.T) {
	m := newModel("t", []byte("mid"))
	m = feed(t, m, "o", "below", "esc")
	m = feed(t, m, "k", "O", "above", "esc")

	if got := string(m.buf.Bytes()); got != "above\nmid\nbelow" {
		t.Errorf("buffer = %q, want above\\nmid\\nbelow", got)
	}
}

func TestWriteQuitSaves(t *testing.T) {
	m := newModel("t", nil)
	m = feed(t, m, "i", "data", "esc", ":wq", "enter")

	if !m.saved {
		t.Error("wq did not mark the buffer saved")
	}
	if !m.done {
		t.Error("wq did not leave the editor")
	}
	if got := string(m.buf.Bytes()); got != "data" {
		t.Errorf("buffer = %q, want data", got)
	}
}

func TestQuitRefusedWhenDirty(t *testing.T) {
	m := newModel("t", nil)
	m = feed(t, m, "i", "data", "esc", ":q", "enter")

	if m.done {
		t.Error("q left the editor despite unsaved changes")
	}
	if !strings.Contains(m.status, "unsaved") {
		t.Errorf("status = %q, want unsaved warning", m.status)
	}

	m = feed(t, m, ":q!", "enter")
	if !m.done {
		t.Error("q! did not leave the editor")
	}
	if m.saved {
		t.Error("q! marked the buffer saved")
	}
}

func TestSearch(t *testing.T) {
	m := newModel("t", []byte("hay\nhay needle hay\nneedle"))
	m = feed(t, m, "/needle", "enter")

	if m.row != 1 || m.col != 4 {
		t.Errorf("cursor after search = (%d,%d), want (1,4)", m.row, m.col)
	}

	m = feed(t, m, "n")
	if m.row != 2 || m.col != 0 {
		t.Errorf("cursor after n = (%d,%d), want (2,0)", m.row, m.col)
	}

	// Wraps back to the first hit.
	m = feed(t, m, "n")
	if m.row != 1 || m.col != 4 {
		t.Errorf("cursor after wrap = (%d,%d), want (1,4)", m.row, m.col)
	}
}

func TestBackspaceJoinsLines(t *testing.T) {
	m := newModel("t", []byte("ab\ncd"))
	m = feed(t, m, "j", "i", "backspace", "esc")

	if got := string(m.buf.Bytes()); got != "abcd" {
		t.Errorf("buffer = %q, want abcd", got)
	}
}

func TestViewShowsModeAndName(t *testing.T) {
	m := newModel("notes.txt", []byte("hello"))
	view := m.View()
	if !strings.Contains(view, "NORMAL") {
		t.Errorf("view missing mode: %q", view)
	}
	if !strings.Contains(view, "notes.txt") {
		t.Errorf("view missing file name: %q", view)
	}

	m = feed(t, m, "i")
	if !strings.Contains(m.View(), "INSERT") {
		t.Error("view missing INSERT after i")
	}
}

func TestBufferRoundTrip(t *testing.T) {
	tests := []string{
		"",
		"one line",
		"two\nlines",
		"trailing\nempty\n\nmiddle",
	}
	for _, text := range tests {
		b := NewBuffer([]byte(text))
		if got := string(b.Bytes()); got != text {
			t.Errorf("round trip %q = %q", text, got)
		}
	}
}

func TestBufferSplitAndJoin(t *testing.T) {
	b := NewBuffer([]byte("abcdef"))
	b.SplitLine(0, 3)
	if b.Line(0) != "abc" || b.Line(1) != "def" {
		t.Errorf("after split: %q / %q", b.Line(0), b.Line(1))
	}
	if col := b.JoinLine(0); col != 3 {
		t.Errorf("JoinLine() = %d, want 3", col)
	}
	if b.Line(0) != "abcdef" || b.LineCount() != 1 {
		t.Errorf("after join: %q, %d lines", b.Line(0), b.LineCount())
	}
}

func TestBufferDeleteOnlyLine(t *testing.T) {
	b := NewBuffer([]byte("solo"))
	if got := b.DeleteLine(0); got != "solo" {
		t.Errorf("DeleteLine() = %q, want solo", got)
	}
	if b.LineCount() != 1 || b.Line(0) != "" {
		t.Errorf("buffer not left with one empty line: %d lines", b.LineCount())
	}
}
