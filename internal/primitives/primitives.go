// Package primitives provides the catalog of plain packages that can be
// added next to integrations, cached on disk for a day.
package primitives

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/nirtamir-cli/cli/internal/filelock"
	"github.com/nirtamir-cli/cli/internal/logger"
)

// DefaultTTL is how long a cached catalog stays fresh.
const DefaultTTL = 24 * time.Hour

// ErrStale is returned when the cached catalog is older than its TTL.
var ErrStale = errors.New("primitives cache is stale")

// Primitive is a package offered by name in the selection prompt.
type Primitive struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Group string `json:"group"`
}

type cacheFile struct {
	TimeCached time.Time   `json:"timeCached"`
	Primitives []Primitive `json:"primitives"`
}

var static = []Primitive{
	{"ts-extras", "ts-extras", "primitives"},
	{"ts-pattern", "ts-pattern", "primitives"},
	{"pattycake", "pattycake", "primitives"},
	{"zod", "zod", "primitives"},
	{"clsx", "clsx", "primitives"},
	{"nanoid", "nanoid", "primitives"},
	{"dayjs", "dayjs", "primitives"},
	{"framer-motion", "framer-motion", "primitives"},
	{"immer", "immer", "primitives"},
	{"react-hook-form", "react-hook-form", "primitives"},
	{"react-use", "react-use", "primitives"},
	{"@tailwindcss/container-queries", "@tailwindcss/container-queries", "tailwindcss"},
	{"tailwindcss-animate", "tailwindcss-animate", "tailwindcss"},
	{"tailwindcss-signals", "tailwindcss-signals", "tailwindcss"},
}

// Static returns the catalog compiled into the binary.
func Static() []Primitive {
	out := make([]Primitive, len(static))
	copy(out, static)
	return out
}

// DefaultCachePath returns <user cache dir>/nirtamir-cli/primitives.json.
func DefaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nirtamir-cli", "primitives.json"), nil
}

// Store loads the catalog from its cache file, refreshing it when stale.
type Store struct {
	CachePath string
	TTL       time.Duration
	// URL, when set, serves the catalog as JSON: either an array of
	// primitives or an object with a "primitives" array. Without it the
	// static catalog is used.
	URL    string
	Client *http.Client
	Now    func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTTL
}

// Load returns the cached catalog when it is fresh. Otherwise it fetches and
// caches a new one; if that fails and a stale cache exists, the stale
// catalog is returned instead.
func (s *Store) Load(ctx context.Context) ([]Primitive, error) {
	cached, err := s.readCache()
	if err == nil {
		logger.Debug("[DEBUG] Using cached primitives from %s\n", s.CachePath)
		return cached.Primitives, nil
	}
	logger.Debug("[DEBUG] Primitives cache unusable: %v\n", err)

	fresh, ferr := s.Refetch(ctx)
	if ferr == nil {
		return fresh, nil
	}
	if errors.Is(err, ErrStale) {
		logger.Warn("[WARN] Cannot refresh primitives (%v), using cache from %s\n", ferr, cached.TimeCached.Format(time.RFC1123))
		return cached.Primitives, nil
	}
	return nil, ferr
}

// Refetch fetches the catalog and rewrites the cache. A cache write failure
// is logged; the fetched catalog is still returned.
func (s *Store) Refetch(ctx context.Context) ([]Primitive, error) {
	list, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.writeCache(list); err != nil {
		logger.Warn("[WARN] Failed to cache primitives: %v\n", err)
	}
	return list, nil
}

func (s *Store) readCache() (cacheFile, error) {
	var c cacheFile
	data, err := os.ReadFile(s.CachePath)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("corrupt primitives cache: %w", err)
	}
	if age := s.now().Sub(c.TimeCached); age > s.ttl() {
		return c, fmt.Errorf("%w: cached %s ago", ErrStale, age.Round(time.Minute))
	}
	return c, nil
}

func (s *Store) writeCache(list []Primitive) error {
	data, err := json.MarshalIndent(cacheFile{TimeCached: s.now().UTC(), Primitives: list}, "", "  ")
	if err != nil {
		return err
	}
	return filelock.AtomicWrite(s.CachePath, data)
}

func (s *Store) fetch(ctx context.Context) ([]Primitive, error) {
	if s.URL == "" {
		return Static(), nil
	}
	logger.Debug("[DEBUG] Fetching primitives from %s\n", s.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch primitives: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch primitives: HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parse(body)
}

func parse(body []byte) ([]Primitive, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("primitives response is not valid JSON")
	}
	list := gjson.ParseBytes(body)
	if !list.IsArray() {
		list = list.Get("primitives")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("primitives response has no primitives array")
	}

	var out []Primitive
	list.ForEach(func(_, item gjson.Result) bool {
		p := Primitive{
			Label: item.Get("label").String(),
			Value: item.Get("value").String(),
			Group: item.Get("group").String(),
		}
		if item.Type == gjson.String {
			p.Value = item.String()
		}
		if p.Value == "" {
			return true
		}
		if p.Label == "" {
			p.Label = p.Value
		}
		if p.Group == "" {
			p.Group = "primitives"
		}
		out = append(out, p)
		return true
	})
	return out, nil
}

// Resolve matches names against list by label or package name. Names that
// match nothing are returned as missing.
func Resolve(list []Primitive, names []string) (found []Primitive, missing []string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		matched := false
		for _, p := range list {
			if p.Value == n || p.Label == n {
				found = append(found, p)
				matched = true
				break
			}
		}
		if !matched {
			missing = append(missing, n)
		}
	}
	return found, missing
}
