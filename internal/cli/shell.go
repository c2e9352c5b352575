package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vaultfs/internal/config"
	"vaultfs/internal/editor"
	"vaultfs/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "open the interactive shell (the default command)",
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	v, mgr, password, err := initAll()
	if err != nil {
		return err
	}
	cfg := config.Cfg

	sh := shell.New(v, shell.Options{
		Manager:     mgr,
		Password:    password,
		HistorySize: cfg.Shell.HistorySize,
		Splash:      cfg.Shell.Splash,
		Editor:      editor.Run,
	})

	// An interrupt still gets the tree written out before the process dies.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		logger.Warn("caught signal, saving before exit", "signal", s)
		if err := mgr.Save(v, password); err != nil {
			logger.Error("emergency save failed", "err", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()

	return sh.Run()
}
