package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Cache mirrors the token and profile on disk between runs. It is
// best-effort: a missing or corrupt cache behaves like an empty one, and
// write failures never fail the surrounding operation.
type Cache struct {
	dir string
}

const (
	tokenFile = "access_token"
	userFile  = "user"
)

// NewCache stores session state under dir, creating it when needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// DefaultCache places the cache in the OS user cache directory.
func DefaultCache() (*Cache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewCache(filepath.Join(base, "zolo"))
}

// Load reads the cached session. Both keys must be present and well-formed;
// a half-written or corrupt cache is discarded wholesale so the two values
// never disagree.
func (c *Cache) Load() (token string, user *User, ok bool) {
	raw, err := os.ReadFile(filepath.Join(c.dir, tokenFile))
	if err != nil {
		return "", nil, false
	}
	token = strings.TrimSpace(string(raw))

	data, err := os.ReadFile(filepath.Join(c.dir, userFile))
	if err != nil {
		c.Clear()
		return "", nil, false
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil || token == "" {
		c.Clear()
		return "", nil, false
	}
	return token, &u, true
}

// Save writes both keys. Either both end up on disk or the cache is cleared.
func (c *Cache) Save(token string, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.dir, tokenFile), []byte(token), 0o600); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.dir, userFile), data, 0o600); err != nil {
		c.Clear()
		return err
	}
	return nil
}

// Clear removes both keys. Idempotent and unconditional: logout relies on
// this winning any race with an in-flight refetch.
func (c *Cache) Clear() {
	_ = os.Remove(filepath.Join(c.dir, tokenFile))
	_ = os.Remove(filepath.Join(c.dir, userFile))
}
