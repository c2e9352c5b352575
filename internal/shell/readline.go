package shell

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readLine reads one command line. On a real terminal it runs in raw mode
// with tab completion and arrow-key history; otherwise it falls back to
// plain buffered reads so the shell stays scriptable. The second return is
// false at end of input.
func (s *Shell) readLine(prompt string) (string, bool) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return s.readLinePlain(prompt)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Warn("failed to enter raw mode", "err", err)
		return s.readLinePlain(prompt)
	}
	defer term.Restore(fd, oldState) //nolint:errcheck

	var line []byte
	histIdx := len(s.history)
	pending := "" // the in-progress line while browsing history

	redraw := func() {
		fmt.Fprintf(s.out, "\r\033[K%s%s", prompt, line)
	}
	redraw()

	buf := make([]byte, 4)
	for {
		n, err := os.Stdin.Read(buf[:1])
		if err != nil || n == 0 {
			return "", false
		}

		switch c := buf[0]; {
		case c == '\r' || c == '\n':
			fmt.Fprint(s.out, "\r\n")
			return string(line), true

		case c == 0x03: // ctrl-c discards the line
			fmt.Fprint(s.out, "^C\r\n")
			line = line[:0]
			histIdx = len(s.history)
			redraw()

		case c == 0x04: // ctrl-d on an empty line ends input
			if len(line) == 0 {
				return "", false
			}

		case c == 0x7f || c == 0x08: // backspace
			if len(line) > 0 {
				line = line[:len(line)-1]
				redraw()
			}

		case c == 0x15: // ctrl-u kills the line
			line = line[:0]
			redraw()

		case c == 0x0c: // ctrl-l clears the screen
			fmt.Fprint(s.out, "\033[2J\033[H")
			redraw()

		case c == '\t':
			line = s.completeLine(line, prompt)
			redraw()

		case c == 0x1b: // escape sequence, arrows only
			if n, _ := os.Stdin.Read(buf[1:3]); n < 2 || buf[1] != '[' {
				continue
			}
			switch buf[2] {
			case 'A': // up
				if histIdx > 0 {
					if histIdx == len(s.history) {
						pending = string(line)
					}
					histIdx--
					line = []byte(s.history[histIdx])
					redraw()
				}
			case 'B': // down
				if histIdx < len(s.history) {
					histIdx++
					if histIdx == len(s.history) {
						line = []byte(pending)
					} else {
						line = []byte(s.history[histIdx])
					}
					redraw()
				}
			}

		case c >= 0x20: // printable, multibyte passes through untouched
			line = append(line, c)
			fmt.Fprintf(s.out, "%c", c)
		}
	}
}

// completeLine applies tab completion to the last token of the line: builtin
// names for the command word, tree paths everywhere else. A single match
// replaces the token, several matches extend to their common prefix or, when
// nothing extends, get listed below the prompt.
func (s *Shell) completeLine(line []byte, prompt string) []byte {
	text := string(line)
	start := strings.LastIndexByte(text, ' ') + 1
	token := text[start:]

	comps := s.Completions(token)
	if start == 0 {
		comps = builtinCompletions(token)
	}
	switch {
	case len(comps) == 0:
		fmt.Fprint(s.out, "\a")
		return line

	case len(comps) == 1:
		return append(line[:start], comps[0]...)

	default:
		if prefix := commonPrefix(comps); len(prefix) > len(token) {
			return append(line[:start], prefix...)
		}
		fmt.Fprint(s.out, "\r\n")
		for _, c := range comps {
			fmt.Fprintf(s.out, "%s  ", c)
		}
		fmt.Fprint(s.out, "\r\n")
		return line
	}
}

func (s *Shell) readLinePlain(prompt string) (string, bool) {
	if s.stdin == nil {
		s.stdin = bufio.NewReader(os.Stdin)
	}
	fmt.Fprint(s.out, prompt)
	line, err := s.stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}
