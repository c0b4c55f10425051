package queue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirtamir-cli/cli/internal/document"
	"github.com/nirtamir-cli/cli/internal/pkgmanager"
	"github.com/nirtamir-cli/cli/internal/runner"
)

type fakeRunner struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, line)
	for needle := range f.fail {
		if strings.Contains(line, needle) {
			return []byte("boom"), errors.New("exit status 1")
		}
	}
	return nil, nil
}

func newTestFlusher(t *testing.T, pm pkgmanager.Manager) (*Flusher, *fakeRunner, string) {
	t.Helper()
	dir := t.TempDir()
	r := &fakeRunner{fail: map[string]bool{}}
	detections := 0
	f := &Flusher{
		Dir:    dir,
		Runner: r,
		Detect: func(string) (pkgmanager.Manager, error) {
			detections++
			require.LessOrEqual(t, detections, 2, "detection runs at most once per install step")
			return pm, nil
		},
	}
	return f, r, dir
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func fragment(t *testing.T, s string) *document.Object {
	t.Helper()
	obj, err := document.Parse([]byte(s))
	require.NoError(t, err)
	return obj
}

func TestFlushFiles(t *testing.T) {
	f, _, dir := newTestFlusher(t, pkgmanager.NPM)
	writeFile(t, dir, "existing.txt", "keep me")
	writeFile(t, dir, "overwrite.txt", "old")

	q := New()
	q.Push(FileWrite{Path: "existing.txt", Contents: "replaced", Exclusive: true})
	q.Push(FileWrite{Path: "overwrite.txt", Contents: "new"})
	q.Push(FileWrite{Path: ".storybook/main.ts", Contents: "export default {}", Exclusive: true})

	err := f.FlushFiles(context.Background(), q)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileAlreadyExists)

	assert.Equal(t, "keep me", readFile(t, dir, "existing.txt"))
	assert.Equal(t, "new", readFile(t, dir, "overwrite.txt"))
	assert.Equal(t, "export default {}", readFile(t, dir, ".storybook/main.ts"))

	failed := FailedRecords(err)
	require.Len(t, failed, 1)
	assert.Equal(t, "existing.txt", failed[0].Name())
	assert.Equal(t, 3, q.Len(), "single-category flushes leave the queue alone")
}

func TestFlushPackages(t *testing.T) {
	f, r, _ := newTestFlusher(t, pkgmanager.PNPM)
	r.fail["broken-pkg"] = true

	q := New()
	q.Push(PackageInstall{Package: "zod"})
	q.Push(PackageInstall{Package: "broken-pkg"})
	q.Push(PackageInstall{Package: "clsx"})
	q.Push(DevPackageInstall{Package: "typescript"})

	err := f.FlushPackages(context.Background(), q)
	assert.ErrorIs(t, err, runner.ErrExternalCommandFailed)
	require.NoError(t, f.FlushDevPackages(context.Background(), q))

	assert.Equal(t, []string{
		"pnpm add zod",
		"pnpm add broken-pkg",
		"pnpm add clsx",
		"pnpm add -D typescript",
	}, r.calls)
}

func TestFlushPackagesDetectionFailure(t *testing.T) {
	r := &fakeRunner{}
	f := &Flusher{
		Dir:    t.TempDir(),
		Runner: r,
		Detect: func(string) (pkgmanager.Manager, error) { return "", errors.New("no package manager") },
	}
	q := New()
	q.Push(PackageInstall{Package: "zod"})
	q.Push(PackageInstall{Package: "clsx"})

	err := f.FlushPackages(context.Background(), q)
	assert.Len(t, FailedRecords(err), 2)
	assert.Empty(t, r.calls)
}

func TestFlushCommandsContinuesAfterFailure(t *testing.T) {
	f, r, _ := newTestFlusher(t, pkgmanager.NPM)
	r.fail["false"] = true

	q := New()
	q.Push(ShellCommand{Line: "false"})
	q.Push(ShellCommand{Line: "npx husky init"})

	err := f.FlushCommands(context.Background(), q)
	assert.ErrorIs(t, err, runner.ErrExternalCommandFailed)
	assert.Equal(t, []string{"sh -c false", "sh -c npx husky init"}, r.calls)
}

func TestFlushScriptsLastWriteWins(t *testing.T) {
	f, _, dir := newTestFlusher(t, pkgmanager.NPM)
	writeFile(t, dir, ManifestFile, `{"name":"app","scripts":{"dev":"vite"}}`)

	q := New()
	q.Push(ScriptEntry{Script: "lint", Content: "eslint ."})
	q.Push(ScriptEntry{Script: "lint", Content: "eslint --fix ."})

	require.NoError(t, f.FlushScripts(context.Background(), q))

	got := fragment(t, readFile(t, dir, ManifestFile))
	assert.Equal(t, `{"name":"app","scripts":{"dev":"vite","lint":"eslint --fix ."}}`, document.Compact(got))
}

func TestEmptyMergeCategoriesLeaveFilesByteIdentical(t *testing.T) {
	f, _, dir := newTestFlusher(t, pkgmanager.NPM)
	manifest := "{\n    \"name\": \"app\",\n    \"scripts\": {}\n}"
	tsconfig := "{ /* comments survive */ \"compilerOptions\": {} }"
	writeFile(t, dir, ManifestFile, manifest)
	writeFile(t, dir, TypeConfigFile, tsconfig)

	q := New()
	q.Push(PackageInstall{Package: "zod"})

	ctx := context.Background()
	require.NoError(t, f.FlushScripts(ctx, q))
	require.NoError(t, f.FlushManifest(ctx, q))
	require.NoError(t, f.FlushTypeConfig(ctx, q))

	assert.Equal(t, manifest, readFile(t, dir, ManifestFile))
	assert.Equal(t, tsconfig, readFile(t, dir, TypeConfigFile))
}

func TestFlushTypeConfigMissingOrMalformed(t *testing.T) {
	for name, setup := range map[string]func(dir string){
		"missing":   func(string) {},
		"malformed": func(dir string) { writeFile(t, dir, TypeConfigFile, "{not json") },
	} {
		t.Run(name, func(t *testing.T) {
			f, _, dir := newTestFlusher(t, pkgmanager.NPM)
			setup(dir)

			q := New()
			q.Push(TypeConfigFragment{Label: "include", Fragment: fragment(t, `{"include":["reset.d.ts"]}`)})
			require.NoError(t, f.FlushTypeConfig(context.Background(), q))

			got := fragment(t, readFile(t, dir, TypeConfigFile))
			assert.Equal(t, `{"include":["reset.d.ts"]}`, document.Compact(got))
		})
	}
}

func TestFlushTypeConfigKeepsCommentedConfig(t *testing.T) {
	f, _, dir := newTestFlusher(t, pkgmanager.NPM)
	writeFile(t, dir, TypeConfigFile, "{\"compilerOptions\":{/* Language */\"target\":\"es2016\", // c\n\"strict\":true,},\"include\":[\"src\"]}")

	q := New()
	q.Push(TypeConfigFragment{Label: "include", Fragment: fragment(t, `{"include":["reset.d.ts"]}`)})
	require.NoError(t, f.FlushTypeConfig(context.Background(), q))

	got := fragment(t, readFile(t, dir, TypeConfigFile))
	assert.Equal(t, `{"compilerOptions":{"target":"es2016","strict":true},"include":["src","reset.d.ts"]}`, document.Compact(got))
}

func TestFlushScriptsKeepsManifestWithByteOrderMark(t *testing.T) {
	f, _, dir := newTestFlusher(t, pkgmanager.NPM)
	writeFile(t, dir, ManifestFile, "\ufeff{\"name\":\"app\",\"dependencies\":{\"react\":\"18\"}}")

	q := New()
	q.Push(ScriptEntry{Script: "lint", Content: "eslint ."})
	require.NoError(t, f.FlushScripts(context.Background(), q))

	got := fragment(t, readFile(t, dir, ManifestFile))
	assert.Equal(t, `{"name":"app","dependencies":{"react":"18"},"scripts":{"lint":"eslint ."}}`, document.Compact(got))
}

func TestFlushTypeConfigUnionsArrays(t *testing.T) {
	f, _, dir := newTestFlusher(t, pkgmanager.NPM)
	writeFile(t, dir, TypeConfigFile, `{"compilerOptions":{"strict":true},"include":["src"]}`)

	q := New()
	q.Push(TypeConfigFragment{Label: "extends", Fragment: fragment(t, `{"extends":"@tsconfig/strictest/tsconfig.json"}`)})
	q.Push(TypeConfigFragment{Label: "include", Fragment: fragment(t, `{"include":["reset.d.ts"]}`)})
	q.Push(TypeConfigFragment{Label: "include,compilerOptions", Fragment: fragment(t, `{"include":["icon-name.d.ts"],"compilerOptions":{"paths":{"@icon/icon-name":["./src/ui/icons/icon-name.d.ts"]}}}`)})

	require.NoError(t, f.FlushTypeConfig(context.Background(), q))

	got := fragment(t, readFile(t, dir, TypeConfigFile))
	assert.Equal(t,
		`{"compilerOptions":{"strict":true,"paths":{"@icon/icon-name":["./src/ui/icons/icon-name.d.ts"]}},"include":["src","reset.d.ts","icon-name.d.ts"],"extends":"@tsconfig/strictest/tsconfig.json"}`,
		document.Compact(got))
}

func TestScriptsThenManifestScenario(t *testing.T) {
	f, _, dir := newTestFlusher(t, pkgmanager.NPM)
	writeFile(t, dir, ManifestFile, `{}`)

	q := New()
	q.Push(ScriptEntry{Script: "format", Content: "prettier --write ."})
	q.Push(ManifestFragment{Label: "x", Fragment: fragment(t, `{"lint-staged":{"*.ts":"eslint --fix"}}`)})

	ctx := context.Background()
	require.NoError(t, f.FlushScripts(ctx, q))
	require.NoError(t, f.FlushManifest(ctx, q))

	assert.JSONEq(t,
		`{"scripts":{"format":"prettier --write ."},"lint-staged":{"*.ts":"eslint --fix"}}`,
		readFile(t, dir, ManifestFile))
}

func TestFlushAllOrderAndRetention(t *testing.T) {
	f, r, dir := newTestFlusher(t, pkgmanager.Yarn)
	writeFile(t, dir, ManifestFile, `{"name":"app"}`)
	writeFile(t, dir, ".eslintrc.cjs", "existing")
	r.fail["knip"] = true

	q := New()
	q.Push(ManifestFragment{Label: "lint-staged", Fragment: fragment(t, `{"lint-staged":{"*.ts":"eslint --fix"}}`)})
	q.Push(ShellCommand{Line: "echo done"})
	q.Push(DevPackageInstall{Package: "knip"})
	q.Push(DevPackageInstall{Package: "eslint"})
	q.Push(PackageInstall{Package: "lodash"})
	q.Push(ScriptEntry{Script: "lint", Content: "eslint ."})
	q.Push(FileWrite{Path: ".eslintrc.cjs", Contents: "new", Exclusive: true})
	q.Push(FileWrite{Path: "reset.d.ts", Contents: "import \"@total-typescript/ts-reset\";"})
	q.Push(TypeConfigFragment{Label: "include", Fragment: fragment(t, `{"include":["reset.d.ts"]}`)})

	report, err := f.FlushAll(context.Background(), q)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileAlreadyExists)
	assert.ErrorIs(t, err, runner.ErrExternalCommandFailed)

	assert.Equal(t, []string{
		"yarn add lodash",
		"yarn add -D knip",
		"yarn add -D eslint",
		"sh -c echo done",
	}, r.calls)

	assert.Equal(t, []Record{
		DevPackageInstall{Package: "knip"},
		FileWrite{Path: ".eslintrc.cjs", Contents: "new", Exclusive: true},
	}, q.Records(), "only failed records stay queued, in queue order")
	assert.ElementsMatch(t, q.Records(), report.Failed)
	assert.Len(t, report.Applied, 7)

	assert.JSONEq(t,
		`{"name":"app","scripts":{"lint":"eslint ."},"lint-staged":{"*.ts":"eslint --fix"}}`,
		readFile(t, dir, ManifestFile))
	assert.JSONEq(t, `{"include":["reset.d.ts"]}`, readFile(t, dir, TypeConfigFile))
	assert.Equal(t, "existing", readFile(t, dir, ".eslintrc.cjs"))
}

func TestFlushAllSuccessEmptiesQueue(t *testing.T) {
	f, _, dir := newTestFlusher(t, pkgmanager.NPM)

	q := New()
	q.Push(FileWrite{Path: "reset.d.ts", Contents: "x"})
	q.Push(PackageInstall{Package: "zod"})

	report, err := f.FlushAll(context.Background(), q)
	require.NoError(t, err)
	assert.Zero(t, q.Len())
	assert.Empty(t, report.Failed)
	assert.Len(t, report.Applied, 2)
	assert.Equal(t, "x", readFile(t, dir, "reset.d.ts"))
}

func TestFlushAllCancelledKeepsRecords(t *testing.T) {
	f, r, _ := newTestFlusher(t, pkgmanager.NPM)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := New()
	q.Push(PackageInstall{Package: "zod"})
	q.Push(ShellCommand{Line: "echo hi"})

	_, err := f.FlushAll(ctx, q)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.calls)
	assert.Equal(t, 2, q.Len())
}

func TestFlushAllWrapsNonEmptySteps(t *testing.T) {
	f, _, _ := newTestFlusher(t, pkgmanager.NPM)
	var wrapped []Category
	f.Wrap = func(c Category, step func() error) error {
		wrapped = append(wrapped, c)
		return step()
	}

	q := New()
	q.Push(ShellCommand{Line: "echo hi"})
	q.Push(FileWrite{Path: "a.txt", Contents: "a"})

	_, err := f.FlushAll(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []Category{CategoryFile, CategoryCommand}, wrapped)
}
