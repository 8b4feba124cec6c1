package nexus

import (
	"os"
	"path/filepath"
	"strings"

	"nexusfetch/internal"
	"nexusfetch/utils"
)

// FileSecretStore is a reference SecretStore keeping one file per slot under
// a private directory. Hosts with an OS keystore supply their own
// implementation; this one exists so the CLI works end to end.
type FileSecretStore struct {
	dir string
	fs  *utils.FileOperations
}

// NewFileSecretStore creates a store rooted at dir
func NewFileSecretStore(dir string) *FileSecretStore {
	return &FileSecretStore{
		dir: dir,
		fs:  utils.NewFileOperations(),
	}
}

// Store writes the secret under the named slot, overwriting any prior value
func (s *FileSecretStore) Store(name string, secret string) error {
	path := s.slotPath(name)
	if err := s.fs.AtomicWriteFile(path, []byte(secret), 0600); err != nil {
		return internal.NewNexusError("failed to persist secret", internal.ErrInvalidInput).WithCause(err)
	}
	return nil
}

// Retrieve returns the secret stored under the named slot
func (s *FileSecretStore) Retrieve(name string) (string, error) {
	data, err := os.ReadFile(s.slotPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", internal.NewNexusError("no secret stored under "+name, internal.ErrSecretNotFound)
		}
		return "", internal.NewNexusError("failed to read secret", internal.ErrSecretNotFound).WithCause(err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileSecretStore) slotPath(name string) string {
	return filepath.Join(s.dir, name)
}
