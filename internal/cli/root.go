// Package cli wires the command line: flags and config loading, password
// prompting, and the shell and mount entry points.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"vaultfs/internal/chacha20"
	"vaultfs/internal/config"
	"vaultfs/internal/logging"
	"vaultfs/internal/state"
	"vaultfs/internal/vfs"
)

var logger = logging.GetLogger().WithPrefix("cli")

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vaultfs",
	Short: "an in-memory filesystem persisted as an encrypted snapshot",
	Long: `vaultfs keeps a whole filesystem tree in memory and persists it as a
single ChaCha20-encrypted snapshot. Running it with no arguments opens
the interactive shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runShell,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default vaultfs.toml)")
	pf.StringP("snapshot", "s", "", "snapshot file path")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("format", "", "snapshot container format (v2 or legacy)")

	viper.BindPFlag("snapshot.path", pf.Lookup("snapshot")) //nolint:errcheck
	viper.BindPFlag("log.level", pf.Lookup("log-level"))    //nolint:errcheck
	viper.BindPFlag("snapshot.format", pf.Lookup("format")) //nolint:errcheck

	rootCmd.AddCommand(shellCmd, mountCmd, versionCmd)
}

// initAll loads the config, applies the log level, prompts for the password
// and loads the snapshot. Everything the subcommands need comes from here.
func initAll() (*vfs.VFS, *state.Manager, string, error) {
	if err := config.Init(cfgFile); err != nil {
		return nil, nil, "", err
	}
	cfg := config.Cfg
	logging.GetLogger().SetLevelName(cfg.Log.Level)

	mgr, err := state.NewManager(cfg.Snapshot.Path, state.Options{
		Legacy:      cfg.Snapshot.Format == config.FormatLegacy,
		BackupCount: cfg.Snapshot.BackupCount,
		Argon2: chacha20.Argon2Params{
			Time:    cfg.Argon2.Time,
			Memory:  cfg.Argon2.Memory,
			Threads: cfg.Argon2.Threads,
		},
	})
	if err != nil {
		return nil, nil, "", err
	}

	password, err := readPassword()
	if err != nil {
		return nil, nil, "", err
	}

	v, err := mgr.Load(password)
	if err != nil {
		if !errors.Is(err, state.ErrBadPassword) {
			return nil, nil, "", err
		}
		logger.Warn("could not decrypt snapshot, starting empty", "err", err)
		v = vfs.New()
	}
	nodes, size := v.Stats()
	logger.Debug("filesystem ready", "nodes", nodes, "bytes", size)
	return v, mgr, password, nil
}

// readPassword takes the password from VAULTFS_PASSWORD when set, otherwise
// prompts without echo. Piped input falls back to a plain line read.
func readPassword() (string, error) {
	if pw, ok := os.LookupEnv("VAULTFS_PASSWORD"); ok {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.New("no password on stdin")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}
