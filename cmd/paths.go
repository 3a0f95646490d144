package cmd

import "path/filepath"

// Layout under the configured index_path directory: the SQLite document
// store and the optional name->id symbol cache live side by side, with
// .project-id one level up at the local-dir root.
func storePath(indexDir string) string {
	return filepath.Join(indexDir, "store.db")
}

func symbolCachePath(indexDir string) string {
	return filepath.Join(indexDir, "symbol_cache.bin")
}
