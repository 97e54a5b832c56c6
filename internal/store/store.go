package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirName    = ".eoreview"
	dbFileName = "eoreview.sqlite"
)

// ErrNotFound is returned by KV.Get for keys that were never written.
var ErrNotFound = errors.New("store: key not found")

// Store is the on-disk data directory. It holds the preference database and
// the log directory.
type Store struct {
	Dir string
}

// DiscoverDir walks up from start looking for a .eoreview directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir resolves the data directory: EOREVIEW_DIR, then a .eoreview
// directory above the working directory, then ~/.eoreview.
func DefaultDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("EOREVIEW_DIR")); v != "" {
		return v, nil
	}
	if cwd, err := os.Getwd(); err == nil {
		if found, ok := DiscoverDir(cwd); ok {
			return found, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

// ConfigDir is where config.toml lives. EOREVIEW_CONFIG_DIR overrides it.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("EOREVIEW_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) DBPath() string  { return filepath.Join(s.Dir, dbFileName) }
func (s Store) LogDir() string  { return filepath.Join(s.Dir, "logs") }
func (s Store) PackDir() string { return filepath.Join(s.Dir, "packs") }

// Open creates the directory if needed and opens the preference database.
func (s Store) Open(ctx context.Context) (*SQLite, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return nil, errors.New("store: empty data dir")
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return OpenSQLite(ctx, s.DBPath())
}
