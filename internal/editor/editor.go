package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type mode int

const (
	modeNormal mode = iota
	modeInsert
	modeCommand
)

func (m mode) String() string {
	switch m {
	case modeInsert:
		return "INSERT"
	case modeCommand:
		return "COMMAND"
	default:
		return "NORMAL"
	}
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("7"))
	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("10")).
			Bold(true).
			Padding(0, 1)
	msgStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

// Model is the editor state. It satisfies tea.Model.
type Model struct {
	name string
	buf  *Buffer

	mode     mode
	row, col int
	top      int // first visible buffer row

	width, height int

	cmdline textinput.Model
	pending string // first key of a two-key command, "d" or "y"

	yank       []string
	yankIsLine bool

	search string
	status string

	dirty bool
	saved bool
	done  bool
}

func newModel(name string, content []byte) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256

	return Model{
		name:    name,
		buf:     NewBuffer(content),
		cmdline: ti,
		width:   80,
		height:  24,
	}
}

// Run edits content under the given display name and blocks until the user
// leaves the editor. It reports the final content and whether it was saved.
func Run(name string, content []byte) ([]byte, bool, error) {
	p := tea.NewProgram(newModel(name, content), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("editor: %w", err)
	}
	m := final.(Model)
	return m.buf.Bytes(), m.saved, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.scroll(), nil

	case tea.KeyMsg:
		switch m.mode {
		case modeInsert:
			return m.updateInsert(msg)
		case modeCommand:
			return m.updateCommand(msg)
		default:
			return m.updateNormal(msg)
		}
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	m.status = ""

	// Second key of a pending dd or yy.
	if m.pending != "" {
		pending := m.pending
		m.pending = ""
		if key == pending {
			line := m.buf.Line(m.row)
			m.yank = []string{line}
			m.yankIsLine = true
			if pending == "d" {
				m.buf.DeleteLine(m.row)
				m.dirty = true
				m.row, m.col = m.clampCursor(m.row, m.col)
			}
		}
		return m.scroll(), nil
	}

	switch key {
	case "i":
		m.mode = modeInsert
	case "a":
		m.mode = modeInsert
		if m.col < m.buf.LineLen(m.row) {
			m.col++
		}
	case "o":
		m.buf.InsertLine(m.row+1, "")
		m.row++
		m.col = 0
		m.mode = modeInsert
		m.dirty = true
	case "O":
		m.buf.InsertLine(m.row, "")
		m.col = 0
		m.mode = modeInsert
		m.dirty = true

	case "h", "left":
		if m.col > 0 {
			m.col--
		}
	case "l", "right":
		if m.col < max(0, m.buf.LineLen(m.row)-1) {
			m.col++
		}
	case "j", "down":
		m.row, m.col = m.clampCursor(m.row+1, m.col)
	case "k", "up":
		m.row, m.col = m.clampCursor(m.row-1, m.col)
	case "0":
		m.col = 0
	case "$":
		m.col = max(0, m.buf.LineLen(m.row)-1)
	case "w":
		m.row, m.col = m.buf.NextWord(m.row, m.col)
	case "b":
		m.row, m.col = m.buf.PrevWord(m.row, m.col)
	case "G":
		m.row, m.col = m.clampCursor(m.buf.LineCount()-1, m.col)

	case "x":
		if _, ok := m.buf.DeleteRune(m.row, m.col); ok {
			m.dirty = true
			m.row, m.col = m.clampCursor(m.row, m.col)
		}
	case "d", "y":
		m.pending = key
	case "p":
		if len(m.yank) > 0 {
			m.paste()
		}

	case "/":
		m.mode = modeCommand
		m.cmdline.SetValue("/")
		m.cmdline.Focus()
		m.cmdline.CursorEnd()
	case "n":
		m.findNext()
	case ":":
		m.mode = modeCommand
		m.cmdline.SetValue(":")
		m.cmdline.Focus()
		m.cmdline.CursorEnd()
	}

	return m.scroll(), nil
}

func (m Model) updateInsert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		if m.col > 0 {
			m.col--
		}
	case "enter":
		m.buf.SplitLine(m.row, m.col)
		m.row++
		m.col = 0
		m.dirty = true
	case "backspace":
		if m.col > 0 {
			m.col--
			m.buf.DeleteRune(m.row, m.col)
			m.dirty = true
		} else if m.row > 0 {
			m.row--
			m.col = m.buf.JoinLine(m.row)
			m.dirty = true
		}
	case "tab":
		m.buf.InsertRune(m.row, m.col, '\t')
		m.col++
		m.dirty = true
	default:
		if len(msg.Runes) > 0 && msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				m.buf.InsertRune(m.row, m.col, r)
				m.col++
			}
			m.dirty = true
		}
	}
	return m.scroll(), nil
}

func (m Model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.cmdline.Blur()
		return m, nil
	case "enter":
		line := m.cmdline.Value()
		m.mode = modeNormal
		m.cmdline.Blur()
		return m.runCommand(line)
	}

	var cmd tea.Cmd
	m.cmdline, cmd = m.cmdline.Update(msg)
	// Deleting past the ':' or '/' sigil leaves command mode.
	if m.cmdline.Value() == "" {
		m.mode = modeNormal
		m.cmdline.Blur()
	}
	return m, cmd
}

// runCommand executes an ex-style command line, sigil included.
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(line, "/") {
		m.search = line[1:]
		m.findNext()
		return m.scroll(), nil
	}

	switch strings.TrimSpace(strings.TrimPrefix(line, ":")) {
	case "w":
		m.saved = true
		m.dirty = false
		m.status = "written"
	case "q":
		if m.dirty {
			m.status = "unsaved changes, use :q! or :wq"
			return m, nil
		}
		m.done = true
		return m, tea.Quit
	case "q!":
		m.saved = false
		m.done = true
		return m, tea.Quit
	case "wq", "x":
		m.saved = true
		m.done = true
		return m, tea.Quit
	default:
		m.status = fmt.Sprintf("unknown command %q", line)
	}
	return m, nil
}

// paste inserts the yank register after the cursor, linewise or charwise.
func (m *Model) paste() {
	if m.yankIsLine {
		for i, line := range m.yank {
			m.buf.InsertLine(m.row+1+i, line)
		}
		m.row++
		m.col = 0
	} else {
		for _, line := range m.yank {
			for _, r := range line {
				m.col++
				m.buf.InsertRune(m.row, m.col, r)
			}
		}
	}
	m.dirty = true
}

func (m *Model) findNext() {
	if m.search == "" {
		m.status = "no search pattern"
		return
	}
	row, col, ok := m.buf.Search(m.search, m.row, m.col+1)
	if !ok {
		m.status = fmt.Sprintf("pattern not found: %s", m.search)
		return
	}
	m.row, m.col = row, col
}

// clampCursor keeps the cursor on a real position for normal mode.
func (m Model) clampCursor(row, col int) (int, int) {
	if row < 0 {
		row = 0
	}
	if row >= m.buf.LineCount() {
		row = m.buf.LineCount() - 1
	}
	if maxCol := max(0, m.buf.LineLen(row)-1); col > maxCol {
		col = maxCol
	}
	if col < 0 {
		col = 0
	}
	return row, col
}

// scroll keeps the cursor inside the visible window.
func (m Model) scroll() Model {
	visible := m.textHeight()
	if m.row < m.top {
		m.top = m.row
	}
	if m.row >= m.top+visible {
		m.top = m.row - visible + 1
	}
	return m
}

// textHeight is the window height minus the status and command lines.
func (m Model) textHeight() int {
	return max(1, m.height-2)
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	visible := m.textHeight()
	for i := m.top; i < m.top+visible; i++ {
		if i >= m.buf.LineCount() {
			b.WriteString("~\n")
			continue
		}
		b.WriteString(m.renderLine(i))
		b.WriteByte('\n')
	}

	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	if m.mode == modeCommand {
		b.WriteString(m.cmdline.View())
	} else if m.status != "" {
		b.WriteString(msgStyle.Render(m.status))
	}
	return b.String()
}

// renderLine draws one buffer line, marking the cursor cell in reverse
// video when the cursor sits on it.
func (m Model) renderLine(row int) string {
	line := m.buf.Line(row)
	if row != m.row {
		return line
	}

	runes := []rune(line)
	col := m.col
	if col > len(runes) {
		col = len(runes)
	}
	if col == len(runes) {
		return line + cursorStyle.Render(" ")
	}
	return string(runes[:col]) + cursorStyle.Render(string(runes[col])) + string(runes[col+1:])
}

func (m Model) statusLine() string {
	name := m.name
	if name == "" {
		name = "[no name]"
	}
	flag := ""
	if m.dirty {
		flag = " [+]"
	}
	left := modeStyle.Render(m.mode.String()) + statusStyle.Render(fmt.Sprintf(" %s%s", name, flag))
	right := statusStyle.Render(fmt.Sprintf(" %d:%d ", m.row+1, m.col+1))

	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		pad = 1
	}
	return left + statusStyle.Render(strings.Repeat(" ", pad)) + right
}
