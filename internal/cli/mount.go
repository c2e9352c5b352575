package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"vaultfs/internal/mount"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "expose the filesystem through FUSE",
	Long: `mount attaches the in-memory tree at the given mountpoint so regular
tools can browse it. The snapshot is written back when the process
receives SIGINT or SIGTERM.`,
	Args: cobra.ExactArgs(1),
	RunE: runMount,
}

func runMount(_ *cobra.Command, args []string) error {
	v, mgr, password, err := initAll()
	if err != nil {
		return err
	}

	mountPoint := filepath.Clean(args[0])
	fs := mount.NewFS(v)
	if err := fs.Mount(mountPoint); err != nil {
		return err
	}
	logger.Info("mounted, press ctrl-c to unmount and save", "mountpoint", mountPoint)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err := fs.Unmount(mountPoint); err != nil {
		logger.Error("unmount failed", "err", err)
	}
	return mgr.Save(v, password)
}
