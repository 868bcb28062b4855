package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Entry is one cached response. Bodies are held fully in memory: a response
// body can be consumed at most once, so it is drained into a byte slice
// before anything serves or stores it, which is what makes serving and
// caching the same response safe.
type Entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// CacheStore persists responses per cache generation on disk, with an
// expiring LRU in front for hot entries. Only the gateway itself ever writes
// here; application code has no handle to it.
type CacheStore struct {
	root string
	hot  *expirable.LRU[string, *Entry]
}

// NewCacheStore opens (creating if needed) the cache rooted at dir.
// hotCapacity of zero disables the memory front.
func NewCacheStore(dir string, hotCapacity int, hotTTL time.Duration) (*CacheStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &CacheStore{
		root: dir,
		hot:  expirable.NewLRU[string, *Entry](hotCapacity, nil, hotTTL),
	}, nil
}

func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func (s *CacheStore) path(generation, rawURL string) string {
	return filepath.Join(s.root, generation, cacheKey(rawURL)+".json")
}

// Get returns the cached entry for rawURL in the given generation.
func (s *CacheStore) Get(generation, rawURL string) (*Entry, bool) {
	hotKey := generation + "|" + rawURL
	if e, ok := s.hot.Get(hotKey); ok {
		return e, true
	}

	data, err := os.ReadFile(s.path(generation, rawURL))
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Corrupt entry: treat as a miss, it will be rewritten.
		return nil, false
	}
	s.hot.Add(hotKey, &e)
	return &e, true
}

// Put stores an entry. The write is atomic (temp file + rename) so a crashed
// write can never leave a half-visible entry.
func (s *CacheStore) Put(generation, rawURL string, e *Entry) error {
	dir := filepath.Join(s.root, generation)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create generation dir: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	target := s.path(generation, rawURL)
	tmp, err := os.CreateTemp(dir, "put-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("publish cache entry: %w", err)
	}

	s.hot.Add(generation+"|"+rawURL, e)
	return nil
}

// PurgeOtherGenerations removes every generation directory not listed in
// keep. Run on activation so a policy or shape change never serves entries
// written under old assumptions.
func (s *CacheStore) PurgeOtherGenerations(keep ...string) error {
	keepSet := make(map[string]bool, len(keep))
	for _, g := range keep {
		keepSet[g] = true
	}

	dirs, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("list cache generations: %w", err)
	}
	for _, d := range dirs {
		if !d.IsDir() || keepSet[d.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, d.Name())); err != nil {
			return fmt.Errorf("purge generation %s: %w", d.Name(), err)
		}
	}

	s.hot.Purge()
	return nil
}

// Generations lists the generation namespaces currently on disk.
func (s *CacheStore) Generations() ([]string, error) {
	dirs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, d := range dirs {
		if d.IsDir() {
			out = append(out, d.Name())
		}
	}
	return out, nil
}
