package queue

import (
	"errors"
	"fmt"
	"os"

	"github.com/nirtamir-cli/cli/internal/document"
	"github.com/nirtamir-cli/cli/internal/logger"
)

const (
	// ManifestFile is the package manifest at the project root.
	ManifestFile = "package.json"
	// TypeConfigFile is the TypeScript configuration at the project root.
	TypeConfigFile = "tsconfig.json"
)

// loadTarget reads the JSON object at path. A missing or malformed file is
// a valid starting point and yields an empty object.
func loadTarget(path string) *document.Object {
	obj, err := document.ReadFile(path)
	if err == nil {
		return obj
	}
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("[DEBUG] %s does not exist yet, starting from {}\n", path)
	} else {
		logger.Warn("[WARN] %v, starting from {}\n", fmt.Errorf("%w: %v", ErrTargetMissingOrMalformed, err))
	}
	return document.NewObject()
}

// mergeScripts sets scripts[name] = content for every ScriptEntry in order,
// so the last entry for a name wins.
func mergeScripts(manifest *document.Object, entries []Record) *document.Object {
	out := document.Clone(manifest).(*document.Object)

	scripts := document.NewObject()
	if existing, ok := out.Get("scripts"); ok {
		if obj, ok := existing.(*document.Object); ok {
			scripts = obj
		}
	}
	for _, r := range entries {
		entry := r.(ScriptEntry)
		scripts.Set(entry.Script, document.String(entry.Content))
	}
	out.Set("scripts", scripts)
	return out
}

// mergeFragments folds the fragments carried by recs into base, in queue
// order.
func mergeFragments(base *document.Object, recs []Record) *document.Object {
	fragments := make([]*document.Object, 0, len(recs))
	for _, r := range recs {
		switch f := r.(type) {
		case TypeConfigFragment:
			fragments = append(fragments, f.Fragment)
		case ManifestFragment:
			fragments = append(fragments, f.Fragment)
		}
	}
	return document.MergeAll(base, fragments...)
}
