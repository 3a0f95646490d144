package indexer

import (
	"os"
	"path/filepath"
)

func walkFiles(root string, visit func(path string)) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped, not fatal
		}
		if info.IsDir() {
			if info.Name() == ".git" || info.Name() == "node_modules" || info.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		visit(path)
		return nil
	})
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
