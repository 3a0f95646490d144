// Package project implements optional per-language project resolution
// providers: preprocessors that rewrite a textual import specifier into
// one or more candidate module paths before
// Behavior.ImportMatchesSymbol runs, driven by project config files
// (tsconfig.json, go.mod).
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Provider is the contract every project resolution provider implements.
type Provider interface {
	// LanguageID names the language this provider serves, e.g. "typescript".
	LanguageID() string
	// EnhanceImportPath rewrites specifier (as written in source) into a
	// single best-guess module path, or ok=false if this provider has
	// nothing to say about it. Relative specifiers bypass providers
	// entirely; callers should not invoke this for a specifier starting
	// with "." or "..".
	EnhanceImportPath(specifier, fromFile string) (string, bool)
	// GetImportCandidates returns every candidate module path specifier
	// could resolve to. No ordering among candidates is guaranteed.
	GetImportCandidates(specifier, fromFile string) []string
}

// ConfigSHA computes the SHA-256 hash of a config file's bytes, used to
// invalidate a persisted ProjectResolutionIndex when the config changes.
func ConfigSHA(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
