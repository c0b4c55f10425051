// Package queue stages the changes integrations want to make to a project,
// summarizes them for confirmation, and applies them category by category.
package queue

import "github.com/nirtamir-cli/cli/internal/document"

// Category is the kind of change a record describes.
type Category string

const (
	CategoryPackage    Category = "package"
	CategoryDevPackage Category = "dev-package"
	CategoryCommand    Category = "command"
	CategoryScript     Category = "script"
	CategoryFile       Category = "file"
	CategoryTypeConfig Category = "tsconfig"
	CategoryManifest   Category = "package-json"
)

// FlushOrder is the order FlushAll applies categories in. Files come first so
// that merges and installs see freshly scaffolded files.
var FlushOrder = []Category{
	CategoryFile,
	CategoryScript,
	CategoryPackage,
	CategoryDevPackage,
	CategoryCommand,
	CategoryTypeConfig,
	CategoryManifest,
}

// Record is a single queued change. The set of implementations is closed:
// PackageInstall, DevPackageInstall, ShellCommand, ScriptEntry, FileWrite,
// TypeConfigFragment and ManifestFragment.
type Record interface {
	// Name is the display and lookup key. It need not be unique.
	Name() string
	Category() Category
	record()
}

// PackageInstall installs a runtime dependency.
type PackageInstall struct {
	Package string
}

// DevPackageInstall installs a development dependency.
type DevPackageInstall struct {
	Package string
}

// ShellCommand runs a command line verbatim through the shell.
type ShellCommand struct {
	Line string
}

// ScriptEntry sets scripts[Script] = Content in package.json.
type ScriptEntry struct {
	Script  string
	Content string
}

// FileWrite writes Contents to Path, relative to the project directory.
// Exclusive writes fail when the file already exists instead of replacing it.
type FileWrite struct {
	Path      string
	Contents  string
	Exclusive bool
}

// TypeConfigFragment is a partial tsconfig.json merged into the real one.
type TypeConfigFragment struct {
	Label    string
	Fragment *document.Object
}

// ManifestFragment is a partial package.json merged into the real one.
type ManifestFragment struct {
	Label    string
	Fragment *document.Object
}

func (r PackageInstall) Name() string     { return r.Package }
func (r DevPackageInstall) Name() string  { return r.Package }
func (r ShellCommand) Name() string       { return r.Line }
func (r ScriptEntry) Name() string        { return r.Script }
func (r FileWrite) Name() string          { return r.Path }
func (r TypeConfigFragment) Name() string { return r.Label }
func (r ManifestFragment) Name() string   { return r.Label }

func (PackageInstall) Category() Category     { return CategoryPackage }
func (DevPackageInstall) Category() Category  { return CategoryDevPackage }
func (ShellCommand) Category() Category       { return CategoryCommand }
func (ScriptEntry) Category() Category        { return CategoryScript }
func (FileWrite) Category() Category          { return CategoryFile }
func (TypeConfigFragment) Category() Category { return CategoryTypeConfig }
func (ManifestFragment) Category() Category   { return CategoryManifest }

func (PackageInstall) record()     {}
func (DevPackageInstall) record()  {}
func (ShellCommand) record()       {}
func (ScriptEntry) record()        {}
func (FileWrite) record()          {}
func (TypeConfigFragment) record() {}
func (ManifestFragment) record()   {}
