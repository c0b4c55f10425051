package integrations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nirtamir-cli/cli/internal/queue"
)

// Op is the kind of text edit applied to an existing file.
type Op string

const (
	OpInsertAfter       Op = "insertAfter"
	OpInsertBefore      Op = "insertBefore"
	OpInsertAtBeginning Op = "insertAtBeginning"
	OpInsertAtEnd       Op = "insertAtEnd"
	OpReplace           Op = "replace"
)

var (
	// ErrAnchorNotFound is returned when an edit's anchor text does not occur
	// in the target file.
	ErrAnchorNotFound = errors.New("anchor not found")

	// ErrEditTargetMissing is returned when none of an edit's candidate paths
	// exist, neither queued nor on disk.
	ErrEditTargetMissing = errors.New("edit target not found")
)

// Edit changes part of a file instead of replacing it. Path names the file;
// AnyOf lists alternatives tried in order when the file may have one of
// several names (next.config.js or next.config.mjs).
type Edit struct {
	Path   string   `yaml:"path"`
	AnyOf  []string `yaml:"anyOf"`
	Op     Op       `yaml:"op"`
	Anchor string   `yaml:"anchor"`
	Text   string   `yaml:"text"`
}

func (e Edit) candidates() []string {
	if e.Path != "" {
		return append([]string{e.Path}, e.AnyOf...)
	}
	return e.AnyOf
}

func (e Edit) validate() error {
	if len(e.candidates()) == 0 {
		return fmt.Errorf("edit without a path")
	}
	switch e.Op {
	case OpInsertAfter, OpInsertBefore, OpReplace:
		if e.Anchor == "" {
			return fmt.Errorf("edit %s on %s needs an anchor", e.Op, e.candidates()[0])
		}
	case OpInsertAtBeginning, OpInsertAtEnd:
	default:
		return fmt.Errorf("unknown edit op %q", e.Op)
	}
	return nil
}

// apply returns contents with the edit applied.
func (e Edit) apply(contents string) (string, error) {
	switch e.Op {
	case OpInsertAtBeginning:
		return e.Text + contents, nil
	case OpInsertAtEnd:
		return contents + e.Text, nil
	}

	idx := strings.Index(contents, e.Anchor)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrAnchorNotFound, e.Anchor)
	}
	switch e.Op {
	case OpInsertAfter:
		at := idx + len(e.Anchor)
		return contents[:at] + e.Text + contents[at:], nil
	case OpInsertBefore:
		return contents[:idx] + e.Text + contents[idx:], nil
	case OpReplace:
		return contents[:idx] + e.Text + contents[idx+len(e.Anchor):], nil
	}
	return "", fmt.Errorf("unknown edit op %q", e.Op)
}

// queueEdit applies e on top of whatever the file will contain once the queue
// is flushed: a queued write of the same path takes precedence over the file
// on disk. The result replaces that queued write. path is the file the edit
// resolved to, or the candidates when none exists.
func queueEdit(q *queue.Queue, dir string, e Edit) (path string, fw queue.FileWrite, err error) {
	path, contents, exclusive, err := resolveEditTarget(q, dir, e)
	if err != nil {
		return strings.Join(e.candidates(), " or "), fw, err
	}
	updated, err := e.apply(contents)
	if err != nil {
		return path, fw, err
	}
	fw = queue.FileWrite{Path: path, Contents: updated, Exclusive: exclusive}
	q.Remove(path, queue.CategoryFile)
	q.Push(fw)
	return path, fw, nil
}

func resolveEditTarget(q *queue.Queue, dir string, e Edit) (path, contents string, exclusive bool, err error) {
	for _, p := range e.candidates() {
		if fw, ok := q.FindFile(p); ok {
			return p, fw.Contents, fw.Exclusive, nil
		}
	}
	for _, p := range e.candidates() {
		data, err := os.ReadFile(filepath.Join(dir, p))
		if err == nil {
			return p, string(data), false, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", false, err
		}
	}
	return "", "", false, ErrEditTargetMissing
}
