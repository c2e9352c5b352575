package shell

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green cwd
	dirStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue dirs
	logoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	frameStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("14")).
			Padding(0, 2)
	hintStyle = lipgloss.NewStyle().Faint(true)
)

const promptTail = "vaultfs$ "

const logo = `
██╗   ██╗ █████╗ ██╗   ██╗██╗  ████████╗███████╗███████╗
██║   ██║██╔══██╗██║   ██║██║  ╚══██╔══╝██╔════╝██╔════╝
██║   ██║███████║██║   ██║██║     ██║   █████╗  ███████╗
╚██╗ ██╔╝██╔══██║██║   ██║██║     ██║   ██╔══╝  ╚════██║
 ╚████╔╝ ██║  ██║╚██████╔╝███████╗██║   ██║     ███████║
  ╚═══╝  ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝   ╚═╝     ╚══════╝`

func (s *Shell) printSplash() {
	fmt.Fprintln(s.out, logoStyle.Render(logo))
	fmt.Fprintln(s.out, frameStyle.Render("ENCRYPTED VIRTUAL FILE SYSTEM"))
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, hintStyle.Render("  type 'help' to see available commands"))
	fmt.Fprintln(s.out, hintStyle.Render("  type 'exit' to quit and save"))
	fmt.Fprintln(s.out)
}
