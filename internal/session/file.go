package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledgerbook/client/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileTokenStore keeps one yaml file per backend host under a directory,
// readable only by the current user.
type FileTokenStore struct {
	lock sync.Mutex
	dir  string
	host string
}

func NewFileTokenStore(dir string, host string) *FileTokenStore {
	return &FileTokenStore{
		dir:  expandHome(dir),
		host: host,
	}
}

func (f *FileTokenStore) Path() string {
	return filepath.Join(f.dir, fmt.Sprintf("%s.yaml", f.host))
}

func (f *FileTokenStore) Load(ctx context.Context) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	file, err := os.Open(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to open token file: %w", err)
	}
	defer file.Close()

	var record models.TokenRecord
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&record); err != nil && !errors.Is(err, io.EOF) {
		// A damaged file is treated as no session, the next login rewrites it
		logrus.WithError(err).WithFields(logrus.Fields{
			"path": f.Path(),
		}).Errorln("Failed to decode token file")
		return "", nil
	}

	logrus.WithFields(logrus.Fields{
		"path":      f.Path(),
		"timestamp": record.Timestamp,
	}).Debugln("Loaded token file")

	return record.Token, nil
}

func (f *FileTokenStore) Save(ctx context.Context, token string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	file, err := os.OpenFile(f.Path(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open token file: %w", err)
	}
	defer file.Close()

	// Files written by older releases may have wider permissions
	if err := file.Chmod(0600); err != nil {
		return fmt.Errorf("failed to restrict token file: %w", err)
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(models.NewTokenRecord(token)); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

func (f *FileTokenStore) Clear(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	usr, err := user.Current()
	if err != nil {
		logrus.WithError(err).Warnln("Failed to resolve home directory")
		return path
	}

	return filepath.Join(usr.HomeDir, strings.TrimPrefix(path, "~"))
}
