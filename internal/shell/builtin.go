package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"vaultfs/internal/errstate"
	"vaultfs/internal/vfs"
)

type builtin struct {
	name  string
	usage string
	help  string
	run   func(s *Shell, args []string) error
}

// builtins is the command table, in help display order. It is populated in
// init because cmdHelp walks the table, which would otherwise be an
// initialization cycle.
var builtins []builtin

func init() {
	builtins = []builtin{
		{"ls", "ls [-l] [dir]", "list directory contents", cmdLs},
		{"cd", "cd [dir]", "change the working directory", cmdCd},
		{"pwd", "pwd", "print the working directory", cmdPwd},
		{"mkdir", "mkdir <dir>", "create a directory", cmdMkdir},
		{"touch", "touch <file>", "create an empty file", cmdTouch},
		{"cat", "cat <file>", "print file contents", cmdCat},
		{"echo", "echo [text] [> file]", "print text, optionally into a file", cmdEcho},
		{"rm", "rm [-r] <path>", "remove a file, or a directory with -r", cmdRm},
		{"mv", "mv <src> <dst>", "move or rename", cmdMv},
		{"cp", "cp <src> <dst>", "copy a file or directory", cmdCp},
		{"rename", "rename <path> <name>", "rename in place", cmdRename},
		{"stat", "stat <path>", "show node details", cmdStat},
		{"vim", "vim <file>", "edit a file", cmdVim},
		{"save", "save", "write the encrypted snapshot now", cmdSave},
		{"err", "err", "show the last recorded error", cmdErr},
		{"clear", "clear", "clear the screen", cmdClear},
		{"help", "help", "show this help", cmdHelp},
		{"history", "history", "show command history", cmdHistory},
		{"exit", "exit", "leave the shell, saving first", cmdExit},
	}
}

func lookupBuiltin(name string) *builtin {
	for i := range builtins {
		if builtins[i].name == name {
			return &builtins[i]
		}
	}
	return nil
}

func cmdLs(s *Shell, args []string) error {
	long := false
	if len(args) > 0 && args[0] == "-l" {
		long = true
		args = args[1:]
	}
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	dir, err := s.fs.Find(s.fullPath(target))
	if err != nil {
		return err
	}
	children, err := s.fs.ListDir(dir)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		fmt.Fprintln(s.out, "(empty directory)")
		return nil
	}

	for _, child := range children {
		name := child.Name()
		if child.IsDir() {
			name = dirStyle.Render(name) + "/"
		}
		if long {
			kind := "-"
			if child.IsDir() {
				kind = "d"
			}
			fmt.Fprintf(s.out, "%s %8s  %s  %s\n",
				kind,
				humanize.Bytes(uint64(child.Size())),
				child.MTime().Format("Jan _2 15:04"),
				name)
		} else {
			fmt.Fprintln(s.out, name)
		}
	}
	return nil
}

func cmdCd(s *Shell, args []string) error {
	target := "/"
	if len(args) > 0 {
		target = args[0]
	}
	path := s.fullPath(target)

	node, err := s.fs.Find(path)
	if err != nil {
		return err
	}
	if !node.IsDir() {
		return fmt.Errorf("not a directory: %s", target)
	}
	s.cwd = path
	return nil
}

func cmdPwd(s *Shell, _ []string) error {
	fmt.Fprintln(s.out, s.cwd)
	return nil
}

func cmdMkdir(s *Shell, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: mkdir <dir>")
	}
	_, err := s.fs.CreateDir(s.fullPath(args[0]))
	return err
}

func cmdTouch(s *Shell, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: touch <file>")
	}
	_, err := s.fs.CreateFile(s.fullPath(args[0]), nil)
	return err
}

func cmdCat(s *Shell, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: cat <file>")
	}
	node, err := s.fs.Find(s.fullPath(args[0]))
	if err != nil {
		return err
	}
	data, err := s.fs.ReadFile(node)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		s.out.Write(data) //nolint:errcheck
		fmt.Fprintln(s.out)
	}
	return nil
}

func cmdEcho(s *Shell, args []string) error {
	// A ">" argument redirects everything before it into a file.
	redirect := -1
	for i, arg := range args {
		if arg == ">" && i+1 < len(args) {
			redirect = i
			break
		}
	}

	if redirect < 0 {
		fmt.Fprintln(s.out, strings.Join(args, " "))
		return nil
	}

	content := []byte(strings.Join(args[:redirect], " "))
	path := s.fullPath(args[redirect+1])

	node, err := s.fs.Find(path)
	if err != nil {
		errstate.Clear()
		_, err = s.fs.CreateFile(path, content)
		return err
	}
	return s.fs.WriteFile(node, content)
}

func cmdRm(s *Shell, args []string) error {
	recursive := false
	if len(args) > 0 && args[0] == "-r" {
		recursive = true
		args = args[1:]
	}
	if len(args) < 1 {
		return errors.New("usage: rm [-r] <path>")
	}
	path := s.fullPath(args[0])

	node, err := s.fs.Find(path)
	if err != nil {
		return err
	}
	if node.IsDir() && !recursive {
		return fmt.Errorf("%s is a directory, use rm -r", args[0])
	}

	// Removing the working directory or an ancestor of it would leave the
	// shell pointing at a detached path.
	if path == s.cwd || strings.HasPrefix(s.cwd, path+"/") {
		s.cwd = vfs.Dirname(path)
	}
	return s.fs.Delete(path)
}

func cmdMv(s *Shell, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: mv <src> <dst>")
	}
	src := s.fullPath(args[0])
	dst := s.fullPath(args[1])

	srcNode, err := s.fs.Find(src)
	if err != nil {
		return err
	}
	// Moving onto an existing directory drops the source inside it. A
	// missing destination is the ordinary case, not a failure to report.
	if dstNode, err := s.fs.Find(dst); err == nil && dstNode.IsDir() {
		dst = s.fullPath(dst + "/" + srcNode.Name())
	} else if err != nil {
		errstate.Clear()
	}
	return s.fs.Move(src, dst)
}

func cmdCp(s *Shell, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: cp <src> <dst>")
	}
	src := s.fullPath(args[0])
	dst := s.fullPath(args[1])

	srcNode, err := s.fs.Find(src)
	if err != nil {
		return err
	}
	if dstNode, err := s.fs.Find(dst); err == nil && dstNode.IsDir() {
		dst = s.fullPath(dst + "/" + srcNode.Name())
	} else if err != nil {
		errstate.Clear()
	}
	return s.copyNode(srcNode, dst)
}

// copyNode duplicates a subtree at dst, file content included.
func (s *Shell) copyNode(src *vfs.Node, dst string) error {
	if !src.IsDir() {
		data, err := s.fs.ReadFile(src)
		if err != nil {
			return err
		}
		_, err = s.fs.CreateFile(dst, data)
		return err
	}

	if _, err := s.fs.CreateDir(dst); err != nil {
		return err
	}
	children, err := s.fs.ListDir(src)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.copyNode(child, dst+"/"+child.Name()); err != nil {
			return err
		}
	}
	return nil
}

func cmdRename(s *Shell, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: rename <path> <name>")
	}
	return s.fs.Rename(s.fullPath(args[0]), args[1])
}

func cmdStat(s *Shell, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: stat <path>")
	}
	path := s.fullPath(args[0])
	node, err := s.fs.Find(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "  name:     %s\n", node.Name())
	fmt.Fprintf(s.out, "  path:     %s\n", path)
	fmt.Fprintf(s.out, "  kind:     %s\n", node.Kind())
	if node.IsDir() {
		fmt.Fprintf(s.out, "  entries:  %d\n", node.Size())
	} else {
		fmt.Fprintf(s.out, "  size:     %s (%d bytes)\n", humanize.Bytes(uint64(node.Size())), node.Size())
	}
	fmt.Fprintf(s.out, "  created:  %s\n", node.CTime().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(s.out, "  modified: %s\n", node.MTime().Format("2006-01-02 15:04:05"))
	return nil
}

func cmdVim(s *Shell, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: vim <file>")
	}
	if s.editor == nil {
		return errors.New("no editor available")
	}
	path := s.fullPath(args[0])

	var content []byte
	node, err := s.fs.Find(path)
	if err == nil {
		if node.IsDir() {
			return fmt.Errorf("%s is a directory", args[0])
		}
		if content, err = s.fs.ReadFile(node); err != nil {
			return err
		}
	} else {
		// The editor creates missing files on save.
		errstate.Clear()
		node = nil
	}

	edited, saved, err := s.editor(vfs.Basename(path), content)
	if err != nil {
		return err
	}
	if !saved {
		return nil
	}

	if node == nil {
		_, err = s.fs.CreateFile(path, edited)
		return err
	}
	return s.fs.WriteFile(node, edited)
}

func cmdSave(s *Shell, _ []string) error {
	if s.mgr == nil {
		return errors.New("no snapshot path configured")
	}
	if err := s.mgr.Save(s.fs, s.password); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "saved")
	return nil
}

func cmdErr(s *Shell, _ []string) error {
	code, msg := errstate.Last()
	if code == errstate.OK {
		fmt.Fprintln(s.out, "no error recorded")
		return nil
	}
	fmt.Fprintf(s.out, "[%s] %s\n", code, msg)
	return nil
}

func cmdClear(s *Shell, _ []string) error {
	fmt.Fprint(s.out, "\033[2J\033[H")
	return nil
}

func cmdHelp(s *Shell, _ []string) error {
	fmt.Fprintln(s.out, "available commands:")
	for _, b := range builtins {
		fmt.Fprintf(s.out, "  %-22s %s\n", b.usage, b.help)
	}
	return nil
}

func cmdHistory(s *Shell, _ []string) error {
	if len(s.history) == 0 {
		fmt.Fprintln(s.out, "(no history)")
		return nil
	}
	for i, line := range s.history {
		fmt.Fprintf(s.out, "%4d  %s\n", i+1, line)
	}
	return nil
}

func cmdExit(s *Shell, _ []string) error {
	s.running = false
	return nil
}
