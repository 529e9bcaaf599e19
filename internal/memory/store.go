// Package memory implements the memory store: named markdown blobs, one
// file per key, with a simple all-tokens-match substring search. It is a
// tool-facing convenience, not something the turn loop itself depends on.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// NoMatchText is returned by Search when no stored blob matches every query
// token.
const NoMatchText = "No matching memories found."

var sanitiseKeyPattern = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

func sanitiseKey(key string) string {
	return sanitiseKeyPattern.ReplaceAllString(key, "_")
}

// Store is a directory of named markdown blobs.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("memory: create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, sanitiseKey(key)+".md")
}

// Save writes content verbatim to key, creating or overwriting the file.
func (s *Store) Save(key, content string) error {
	if err := os.WriteFile(s.path(key), []byte(content), 0o644); err != nil {
		return fmt.Errorf("memory: save %s: %w", key, err)
	}
	return nil
}

// Load returns the content stored under key. Returns an error if key does
// not exist.
func (s *Store) Load(key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", fmt.Errorf("memory: load %s: %w", key, err)
	}
	return string(data), nil
}

// Delete removes key's blob, if any.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("memory: delete %s: %w", key, err)
	}
	return nil
}

// List returns every stored key (as recovered from sanitised filenames),
// sorted for determinism.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("memory: list %s: %w", s.dir, err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".md") {
			keys = append(keys, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Search tokenises query on whitespace, lowercases each token, and returns
// the concatenation of every stored blob whose lowercased content contains
// ALL tokens as a substring. An empty query, or no matching blob, returns
// NoMatchText.
func (s *Store) Search(query string) (string, error) {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return NoMatchText, nil
	}

	keys, err := s.List()
	if err != nil {
		return "", err
	}

	var matches []string
	for _, key := range keys {
		content, err := s.Load(key)
		if err != nil {
			continue
		}
		lower := strings.ToLower(content)
		matchesAll := true
		for _, tok := range tokens {
			if !strings.Contains(lower, tok) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			matches = append(matches, content)
		}
	}

	if len(matches) == 0 {
		return NoMatchText, nil
	}
	return strings.Join(matches, "\n\n---\n\n"), nil
}
