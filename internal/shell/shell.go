// Package shell implements the interactive command interface over the
// virtual filesystem: a REPL with builtin commands, tab completion against
// the tree, and command history.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"vaultfs/internal/logging"
	"vaultfs/internal/security"
	"vaultfs/internal/state"
	"vaultfs/internal/vfs"
)

var logger = logging.GetLogger().WithPrefix("shell")

// EditorFunc opens an editor over a file's content and returns the edited
// content plus whether the user saved.
type EditorFunc func(name string, content []byte) (edited []byte, saved bool, err error)

// Options configures a Shell. Zero values get sensible defaults.
type Options struct {
	// Manager persists the filesystem; nil disables save.
	Manager *state.Manager
	// Password encrypts snapshots written by the save builtin.
	Password string
	// Output receives all command output. Defaults to os.Stdout.
	Output io.Writer
	// HistorySize caps the command history. Defaults to 500.
	HistorySize int
	// Editor backs the vim builtin; nil disables it.
	Editor EditorFunc
	// Splash suppresses the banner when false.
	Splash bool
}

// Shell holds REPL state: the filesystem, the working directory and the
// command history. It is not safe for concurrent use.
type Shell struct {
	fs       *vfs.VFS
	mgr      *state.Manager
	password string
	editor   EditorFunc

	cwd     string // canonical absolute path
	out     io.Writer
	stdin   *bufio.Reader
	history []string
	histMax int
	splash  bool
	running bool
}

// New returns a shell rooted at "/" over the given filesystem.
func New(fs *vfs.VFS, opts Options) *Shell {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = 500
	}
	return &Shell{
		fs:       fs,
		mgr:      opts.Manager,
		password: opts.Password,
		editor:   opts.Editor,
		cwd:      "/",
		out:      opts.Output,
		histMax:  opts.HistorySize,
		splash:   opts.Splash,
	}
}

// Cwd returns the current working directory path.
func (s *Shell) Cwd() string { return s.cwd }

// History returns the recorded command lines, oldest first.
func (s *Shell) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// fullPath resolves a command argument against the working directory and
// collapses "." and ".." lexically, clamping at the root the way the cd
// builtin of an ordinary shell does. Arguments are sanitized first, so
// characters outside the tree's allow-list never reach an operation.
func (s *Shell) fullPath(arg string) string {
	p := security.SanitizePath(arg)
	if !strings.HasPrefix(p, "/") {
		if s.cwd == "/" {
			p = "/" + p
		} else {
			p = s.cwd + "/" + p
		}
	}

	var stack []string
	for _, comp := range strings.Split(p, "/") {
		switch comp {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, comp)
		}
	}
	return "/" + strings.Join(stack, "/")
}

// addHistory records a command line, skipping blanks and immediate repeats
// and evicting the oldest entry when full.
func (s *Shell) addHistory(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(s.history); n > 0 && s.history[n-1] == line {
		return
	}
	if len(s.history) >= s.histMax {
		s.history = s.history[1:]
	}
	s.history = append(s.history, line)
}

// Execute parses and runs one command line. A blank line is a no-op. The
// returned error is the command's failure, already reported to the output;
// callers only need it for tests.
func (s *Shell) Execute(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	cmd := lookupBuiltin(args[0])
	if cmd == nil {
		err := fmt.Errorf("unknown command %q, type 'help' for a list", args[0])
		fmt.Fprintf(s.out, "error: %v\n", err)
		return err
	}

	if err := cmd.run(s, args[1:]); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return err
	}
	return nil
}

// Run drives the interactive loop until exit or end of input, then saves
// the filesystem if a manager is configured.
func (s *Shell) Run() error {
	if s.splash {
		s.printSplash()
	}

	s.running = true
	for s.running {
		line, ok := s.readLine(s.prompt())
		if !ok {
			fmt.Fprintln(s.out)
			break
		}
		s.addHistory(line)
		s.Execute(line) //nolint:errcheck // reported to the output already
	}

	if s.mgr != nil {
		if err := s.mgr.Save(s.fs, s.password); err != nil {
			logger.Error("failed to save on exit", "err", err)
			return err
		}
		logger.Info("filesystem saved")
	}
	return nil
}

func (s *Shell) prompt() string {
	return promptStyle.Render(s.cwd) + " " + promptTail
}
