// Package state persists encrypted snapshots of the virtual filesystem.
//
// A v2 snapshot is laid out as:
//
//	[8]  magic "VAULTBX2"
//	[16] argon2id salt
//	[12] nonce
//	[8]  ciphertext length, little endian
//	[..] ciphertext
//
// Legacy snapshots carry only the length and ciphertext, with a fixed nonce
// and a weak password mix. They remain readable, and writable when the
// configuration asks for it, but v2 is the default.
package state

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"vaultfs/internal/chacha20"
	"vaultfs/internal/logging"
	"vaultfs/internal/security"
	"vaultfs/internal/vfs"
)

var logger = logging.GetLogger().WithPrefix("state")

const (
	containerMagic = "VAULTBX2"
	headerSize     = len(containerMagic) + chacha20.SaltSize + chacha20.NonceSize + 8
)

// legacyNonce is the fixed nonce old snapshots were written with.
var legacyNonce = []byte("yunhongisbes")

// ErrBadPassword is returned when a snapshot decrypts to garbage, which is
// indistinguishable from file corruption.
var ErrBadPassword = errors.New("wrong password or corrupt snapshot")

// Options configures a Manager.
type Options struct {
	// Legacy writes snapshots in the pre-v2 container.
	Legacy bool
	// BackupCount is how many timestamped backups to keep.
	BackupCount int
	// Argon2 tunes the v2 key derivation.
	Argon2 chacha20.Argon2Params
}

// Manager loads and saves encrypted snapshots at a fixed path, keeping a
// rotating set of backups beside it.
type Manager struct {
	snapPath    string
	backupDir   string
	backupCount int
	legacy      bool
	argon2      chacha20.Argon2Params
	mu          sync.Mutex
}

// NewManager creates a manager for the given snapshot path. It ensures the
// parent and backup directories exist and that the path is writable.
func NewManager(snapPath string, opts Options) (*Manager, error) {
	logger.Debug("creating state manager", "path", snapPath)

	absPath := snapPath
	if !filepath.IsAbs(snapPath) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		absPath = filepath.Join(cwd, snapPath)
	}

	snapDir := filepath.Dir(absPath)
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", snapDir, err)
	}

	// Probe for write permission without clobbering an existing snapshot.
	f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file %s: %w", absPath, err)
	}
	f.Close()

	backupDir := filepath.Join(snapDir, ".vaultfs-backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", backupDir, err)
	}

	if opts.BackupCount <= 0 {
		opts.BackupCount = 3
	}
	if opts.Argon2 == (chacha20.Argon2Params{}) {
		opts.Argon2 = chacha20.DefaultArgon2Params
	}

	return &Manager{
		snapPath:    absPath,
		backupDir:   backupDir,
		backupCount: opts.BackupCount,
		legacy:      opts.Legacy,
		argon2:      opts.Argon2,
	}, nil
}

// Load reads and decrypts the snapshot. A missing or empty snapshot file is
// not an error; it yields a fresh filesystem with only the root directory.
func (m *Manager) Load(password string) (*vfs.VFS, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Debug("loading snapshot", "path", m.snapPath)

	data, err := os.ReadFile(m.snapPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no snapshot file, starting empty")
			return vfs.New(), nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(data) == 0 {
		logger.Info("empty snapshot file, starting empty")
		return vfs.New(), nil
	}

	plain, err := m.decrypt(data, password)
	if err != nil {
		return nil, err
	}
	defer security.Wipe(plain)

	root, err := vfs.Decode(plain)
	if err != nil {
		// Garbled plaintext means the key was wrong or the file is damaged.
		return nil, fmt.Errorf("%w: %v", ErrBadPassword, err)
	}
	v, err := vfs.FromRoot(root)
	if err != nil {
		return nil, err
	}

	nodes, size := v.Stats()
	logger.Info("snapshot loaded", "nodes", nodes, "bytes", size)
	return v, nil
}

// Save encodes and encrypts the filesystem to the snapshot path, rotating a
// backup of the previous snapshot first and verifying the write after.
func (m *Manager) Save(v *vfs.VFS, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Debug("saving snapshot", "path", m.snapPath)

	if err := m.createBackup(); err != nil {
		logger.Warn("failed to create backup", "err", err)
		// The save itself still goes ahead.
	}

	plain, err := vfs.Encode(v.Root())
	if err != nil {
		return fmt.Errorf("failed to encode filesystem: %w", err)
	}
	defer security.Wipe(plain)

	data, err := m.encrypt(plain, password)
	if err != nil {
		return err
	}

	if err := os.WriteFile(m.snapPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	written, err := os.ReadFile(m.snapPath)
	if err != nil {
		return fmt.Errorf("failed to verify written snapshot: %w", err)
	}
	if !bytes.Equal(written, data) {
		return fmt.Errorf("snapshot readback does not match written data")
	}

	logger.Debug("snapshot saved and verified", "bytes", len(data))
	return nil
}

func (m *Manager) encrypt(plain []byte, password string) ([]byte, error) {
	if m.legacy {
		return m.encryptLegacy(plain, password)
	}

	salt := make([]byte, chacha20.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, chacha20.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key := chacha20.DeriveKeyArgon2(password, salt, m.argon2)
	defer security.Wipe(key)

	c, err := chacha20.New(key, nonce, 0)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+len(plain))
	out = append(out, containerMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(plain)))
	ct := make([]byte, len(plain))
	c.XORKeyStream(ct, plain)
	return append(out, ct...), nil
}

func (m *Manager) encryptLegacy(plain []byte, password string) ([]byte, error) {
	key := chacha20.DeriveKeyLegacy(password)
	defer security.Wipe(key)

	c, err := chacha20.New(key, legacyNonce, 0)
	if err != nil {
		return nil, err
	}

	out := binary.LittleEndian.AppendUint64(nil, uint64(len(plain)))
	ct := make([]byte, len(plain))
	c.XORKeyStream(ct, plain)
	return append(out, ct...), nil
}

// decrypt sniffs the container format off the magic and returns the
// plaintext. The caller owns wiping it.
func (m *Manager) decrypt(data []byte, password string) ([]byte, error) {
	if bytes.HasPrefix(data, []byte(containerMagic)) {
		return m.decryptV2(data, password)
	}
	return m.decryptLegacy(data, password)
}

func (m *Manager) decryptV2(data []byte, password string) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("snapshot too short for header: %d bytes", len(data))
	}
	off := len(containerMagic)
	salt := data[off : off+chacha20.SaltSize]
	off += chacha20.SaltSize
	nonce := data[off : off+chacha20.NonceSize]
	off += chacha20.NonceSize
	ctLen := binary.LittleEndian.Uint64(data[off:])
	off += 8
	if uint64(len(data)-off) != ctLen {
		return nil, fmt.Errorf("snapshot length mismatch: header says %d, have %d", ctLen, len(data)-off)
	}

	key := chacha20.DeriveKeyArgon2(password, salt, m.argon2)
	defer security.Wipe(key)

	c, err := chacha20.New(key, nonce, 0)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, ctLen)
	c.XORKeyStream(plain, data[off:])
	return plain, nil
}

func (m *Manager) decryptLegacy(data []byte, password string) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("snapshot too short for header: %d bytes", len(data))
	}
	ctLen := binary.LittleEndian.Uint64(data)
	if uint64(len(data)-8) != ctLen {
		return nil, fmt.Errorf("snapshot length mismatch: header says %d, have %d", ctLen, len(data)-8)
	}

	key := chacha20.DeriveKeyLegacy(password)
	defer security.Wipe(key)

	c, err := chacha20.New(key, legacyNonce, 0)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, ctLen)
	c.XORKeyStream(plain, data[8:])
	return plain, nil
}

// createBackup copies the current snapshot into the backup directory with a
// timestamped name, then trims old backups.
func (m *Manager) createBackup() error {
	data, err := os.ReadFile(m.snapPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	timestamp := time.Now().Format("20060102-150405.000")
	backupPath := filepath.Join(m.backupDir, fmt.Sprintf("snapshot-%s.bin", timestamp))

	logger.Debug("creating backup", "path", backupPath)
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	return m.cleanupOldBackups()
}

// cleanupOldBackups removes backups beyond the configured count, keeping the
// most recent ones.
func (m *Manager) cleanupOldBackups() error {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return err
	}

	type backup struct {
		path    string
		modTime time.Time
	}

	backups := make([]backup, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".bin" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{
			path:    filepath.Join(m.backupDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	for i := m.backupCount; i < len(backups); i++ {
		logger.Debug("removing old backup", "path", backups[i].path)
		if err := os.Remove(backups[i].path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].path, err)
		}
	}

	return nil
}
