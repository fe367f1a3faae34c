// Package backup provides automatic database backup functionality for byline.
//
// The backup system creates rotating backups of the SQLite database when the
// newest backup is older than a configurable threshold. Backups are named
// after the database file: byline.db.bak.1, byline.db.bak.2, etc., where 1
// is the most recent.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spetersoncode/byline/internal/config"
)

// Manager handles database backup operations.
type Manager struct {
	dbPath    string
	backupDir string
	prefix    string
	cfg       config.BackupConfig
}

// Backup describes a backup file on disk.
type Backup struct {
	Path    string    `json:"path"`
	Number  int       `json:"number"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// NewManager creates a new backup manager.
// dbPath is the path to the database file.
func NewManager(dbPath string, cfg config.BackupConfig) *Manager {
	backupDir := cfg.Path
	if backupDir == "" {
		backupDir = filepath.Dir(dbPath)
	}

	return &Manager{
		dbPath:    dbPath,
		backupDir: backupDir,
		prefix:    filepath.Base(dbPath) + ".bak.",
		cfg:       cfg,
	}
}

// BackupIfNeeded checks if a backup is needed and creates one if so.
// Returns the path to the new backup file if created, or empty string if not needed.
func (m *Manager) BackupIfNeeded() (string, error) {
	if !m.cfg.Enabled {
		return "", nil
	}

	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", nil
	}

	needed, err := m.isBackupNeeded()
	if err != nil {
		return "", fmt.Errorf("checking if backup needed: %w", err)
	}
	if !needed {
		return "", nil
	}

	return m.Create()
}

// Create takes a backup now, rotating older ones.
func (m *Manager) Create() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	if err := m.rotateBackups(); err != nil {
		return "", fmt.Errorf("rotating backups: %w", err)
	}

	backupPath := filepath.Join(m.backupDir, m.prefix+"1")
	if err := copyFile(m.dbPath, backupPath); err != nil {
		return "", fmt.Errorf("copying database: %w", err)
	}

	return backupPath, nil
}

// isBackupNeeded returns true if a new backup should be created.
func (m *Manager) isBackupNeeded() (bool, error) {
	backups, err := m.List()
	if err != nil {
		return false, err
	}
	if len(backups) == 0 {
		return true, nil
	}

	threshold := time.Duration(m.cfg.IntervalHours) * time.Hour
	return time.Since(backups[0].ModTime) > threshold, nil
}

// List returns existing backups, newest first.
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []Backup
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), m.prefix) {
			continue
		}

		num, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), m.prefix))
		if err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat backup file: %w", err)
		}

		backups = append(backups, Backup{
			Path:    filepath.Join(m.backupDir, entry.Name()),
			Number:  num,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// 1 is newest, so ascending order puts newest first
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Number < backups[j].Number
	})

	return backups, nil
}

// rotateBackups renames bak.N to bak.N+1 and deletes those beyond MaxCount.
func (m *Manager) rotateBackups() error {
	backups, err := m.List()
	if err != nil {
		return err
	}

	// Oldest first to avoid overwriting
	for i := len(backups) - 1; i >= 0; i-- {
		b := backups[i]
		newNum := b.Number + 1
		if newNum > m.cfg.MaxCount {
			if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("deleting old backup %s: %w", b.Path, err)
			}
			continue
		}

		newPath := filepath.Join(m.backupDir, m.prefix+strconv.Itoa(newNum))
		if err := os.Rename(b.Path, newPath); err != nil {
			return fmt.Errorf("renaming backup %s to %s: %w", b.Path, newPath, err)
		}
	}

	return nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("syncing destination: %w", err)
	}

	return nil
}

// BackupDir returns the directory where backups are stored.
func (m *Manager) BackupDir() string {
	return m.backupDir
}
