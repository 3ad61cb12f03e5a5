package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultSessionFile is the default name of the session file
const DefaultSessionFile = "session.yaml"

// record is the on-disk form of a session. Expiration is stored in unix
// milliseconds.
type record struct {
	IDToken         string `yaml:"id_token,omitempty"`
	AccessToken     string `yaml:"access_token,omitempty"`
	TokenExpiration int64  `yaml:"token_expiration,omitempty"`
	UserEmail       string `yaml:"user_email,omitempty"`
}

func (r record) session() Session {
	s := Session{
		IDToken:     r.IDToken,
		AccessToken: r.AccessToken,
		Identity:    r.UserEmail,
	}
	if r.TokenExpiration > 0 {
		s.ExpiresAt = time.UnixMilli(r.TokenExpiration)
	}
	return s
}

// FileStore persists the session as a YAML file readable only by the
// current user. It survives process restarts on the same machine.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// GetDefaultSessionPath returns the default path for the session file
// under the OS-specific config directory.
func GetDefaultSessionPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "seatbelt-admin", DefaultSessionFile), nil
}

// NewFileStore returns a store backed by path. An empty path selects the
// default location.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		path, err = GetDefaultSessionPath()
		if err != nil {
			return nil, err
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the file backing the store.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(s Session) error {
	if !s.Complete() {
		return ErrIncompleteSession
	}
	rec := record{
		IDToken:         s.IDToken,
		AccessToken:     s.AccessToken,
		TokenExpiration: s.ExpiresAt.UnixMilli(),
		UserEmail:       s.Identity,
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return ErrStoreWrite.Err(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return ErrStoreWrite.Err(err)
	}
	// write then rename so a reader never observes half a record
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return ErrStoreWrite.Err(err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ErrStoreWrite.Err(err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ErrStoreWrite.Err(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ErrStoreWrite.Err(err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return ErrStoreWrite.Err(err)
	}
	return nil
}

func (f *FileStore) Load() (Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", f.path).Msg("unable to read session file")
		}
		return Session{}, false
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		log.Warn().Err(err).Str("path", f.path).Msg("discarding unreadable session file")
		f.removeLocked()
		return Session{}, false
	}

	s := rec.session()
	if s.Complete() {
		return s, true
	}
	if s.IDToken != "" {
		// a token we cannot check for expiry must not be presented
		log.Warn().Str("path", f.path).Msg("discarding partial session")
		f.removeLocked()
	}
	return Session{}, false
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeLocked()
}

func (f *FileStore) removeLocked() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ErrStoreClear.Err(err)
	}
	return nil
}
