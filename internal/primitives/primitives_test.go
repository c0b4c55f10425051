package primitives

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func writeCache(t *testing.T, path string, at time.Time, list []Primitive) {
	t.Helper()
	data, err := json.Marshal(cacheFile{TimeCached: at, Primitives: list})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func newStore(t *testing.T, url string) *Store {
	t.Helper()
	return &Store{
		CachePath: filepath.Join(t.TempDir(), "nirtamir-cli", "primitives.json"),
		URL:       url,
		Now:       func() time.Time { return epoch },
	}
}

func TestLoadWritesCacheOnFirstUse(t *testing.T) {
	s := newStore(t, "")

	list, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Static(), list)

	cached, err := s.readCache()
	require.NoError(t, err)
	assert.True(t, cached.TimeCached.Equal(epoch))
	assert.Equal(t, Static(), cached.Primitives)
}

func TestLoadUsesFreshCache(t *testing.T) {
	s := newStore(t, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(s.CachePath), 0755))
	custom := []Primitive{{Label: "only", Value: "only", Group: "primitives"}}
	writeCache(t, s.CachePath, epoch.Add(-23*time.Hour), custom)

	list, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, custom, list)
}

func TestStaleCacheIsRefetched(t *testing.T) {
	s := newStore(t, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(s.CachePath), 0755))
	writeCache(t, s.CachePath, epoch.Add(-25*time.Hour), []Primitive{{Value: "old"}})

	_, err := s.readCache()
	assert.ErrorIs(t, err, ErrStale)

	list, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Static(), list)
}

func TestStaleCacheIsKeptWhenFetchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newStore(t, srv.URL)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.CachePath), 0755))
	old := []Primitive{{Label: "old", Value: "old", Group: "primitives"}}
	writeCache(t, s.CachePath, epoch.Add(-48*time.Hour), old)

	list, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, old, list)
}

func TestCorruptCacheWithFailingFetchIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newStore(t, srv.URL)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.CachePath), 0755))
	require.NoError(t, os.WriteFile(s.CachePath, []byte("{oops"), 0644))

	_, err := s.Load(context.Background())
	assert.ErrorContains(t, err, "HTTP status 500")
}

func TestRefetchFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"primitives":[{"label":"valibot","value":"valibot"},"remeda",{"group":"x"}]}`))
	}))
	defer srv.Close()

	s := newStore(t, srv.URL)
	list, err := s.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Primitive{
		{Label: "valibot", Value: "valibot", Group: "primitives"},
		{Label: "remeda", Value: "remeda", Group: "primitives"},
	}, list)
	assert.FileExists(t, s.CachePath)
}

func TestParseTopLevelArray(t *testing.T) {
	list, err := parse([]byte(`[{"label":"zod","value":"zod","group":"validation"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Primitive{{Label: "zod", Value: "zod", Group: "validation"}}, list)

	_, err = parse([]byte(`{"items":[]}`))
	assert.Error(t, err)
	_, err = parse([]byte(`<html>`))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	found, missing := Resolve(Static(), []string{"zod", "@tailwindcss/container-queries", "left-pad"})
	require.Len(t, found, 2)
	assert.Equal(t, "zod", found[0].Value)
	assert.Equal(t, "tailwindcss", found[1].Group)
	assert.Equal(t, []string{"left-pad"}, missing)
}
