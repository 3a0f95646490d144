package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const projectIDFile = ".project-id"

// ProjectID returns the stable project identifier stored at
// <localDir>/.project-id, generating and persisting one on first use.
func ProjectID(localDir string) (string, error) {
	path := filepath.Join(localDir, projectIDFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	id := uuid.NewString()
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", err
	}
	return id, nil
}
