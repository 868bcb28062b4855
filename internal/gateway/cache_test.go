package gateway

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *CacheStore {
	t.Helper()
	cache, err := NewCacheStore(t.TempDir(), 16, time.Minute)
	require.NoError(t, err)
	return cache
}

func sampleEntry(body string) *Entry {
	return &Entry{
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": []string{"text/plain"}},
		Body:     []byte(body),
		StoredAt: time.Now(),
	}
}

func TestCacheStore_PutGet(t *testing.T) {
	cache := newTestCache(t)

	_, ok := cache.Get(AppGeneration, "/read/john/3")
	assert.False(t, ok)

	require.NoError(t, cache.Put(AppGeneration, "/read/john/3", sampleEntry("chapter")))

	got, ok := cache.Get(AppGeneration, "/read/john/3")
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "chapter", string(got.Body))
	assert.Equal(t, "text/plain", got.Header.Get("Content-Type"))
}

func TestCacheStore_GenerationsAreIsolated(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Put(AppGeneration, "/texts/web/john-3.json", sampleEntry("app copy")))

	_, ok := cache.Get(ImmutableGeneration, "/texts/web/john-3.json")
	assert.False(t, ok)
}

func TestCacheStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCacheStore(dir, 16, time.Minute)
	require.NoError(t, err)
	require.NoError(t, cache.Put(AppGeneration, "/read/john/3", sampleEntry("persisted")))

	reopened, err := NewCacheStore(dir, 16, time.Minute)
	require.NoError(t, err)
	got, ok := reopened.Get(AppGeneration, "/read/john/3")
	require.True(t, ok)
	assert.Equal(t, "persisted", string(got.Body))
}

func TestCacheStore_CorruptEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCacheStore(dir, 0, time.Minute)
	require.NoError(t, err)
	require.NoError(t, cache.Put(AppGeneration, "/read/john/3", sampleEntry("good")))

	require.NoError(t, os.WriteFile(cache.path(AppGeneration, "/read/john/3"), []byte("{not json"), 0o644))

	_, ok := cache.Get(AppGeneration, "/read/john/3")
	assert.False(t, ok)
}

func TestCacheStore_PurgeOtherGenerations(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Put("app-v1", "/read/john/3", sampleEntry("ancient")))
	require.NoError(t, cache.Put(AppGeneration, "/read/john/3", sampleEntry("current")))
	require.NoError(t, cache.Put(ImmutableGeneration, "/texts/web/john-3.json", sampleEntry("text")))

	require.NoError(t, cache.PurgeOtherGenerations(AppGeneration, ImmutableGeneration))

	gens, err := cache.Generations()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{AppGeneration, ImmutableGeneration}, gens)

	_, err = os.Stat(filepath.Join(cache.root, "app-v1"))
	assert.True(t, os.IsNotExist(err))

	// Kept generations are still readable, including through the purged
	// memory front.
	got, ok := cache.Get(AppGeneration, "/read/john/3")
	require.True(t, ok)
	assert.Equal(t, "current", string(got.Body))
}
