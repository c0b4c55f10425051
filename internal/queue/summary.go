package queue

// Summary lists the names of queued records per category, in queue order.
type Summary struct {
	Files       []string
	Scripts     []string
	Packages    []string
	DevPackages []string
	Commands    []string
	TypeConfig  []string
	Manifest    []string
}

// Section is one category of a Summary with its display heading.
type Section struct {
	Category Category
	Heading  string
	Items    []string
}

// Summarize groups the current queue by category. It does not modify the
// queue.
func (q *Queue) Summarize() Summary {
	var s Summary
	for _, r := range q.Records() {
		name := r.Name()
		switch r.Category() {
		case CategoryFile:
			s.Files = append(s.Files, name)
		case CategoryScript:
			s.Scripts = append(s.Scripts, name)
		case CategoryPackage:
			s.Packages = append(s.Packages, name)
		case CategoryDevPackage:
			s.DevPackages = append(s.DevPackages, name)
		case CategoryCommand:
			s.Commands = append(s.Commands, name)
		case CategoryTypeConfig:
			s.TypeConfig = append(s.TypeConfig, name)
		case CategoryManifest:
			s.Manifest = append(s.Manifest, name)
		}
	}
	return s
}

// Sections returns every category, including empty ones, in the order the
// preview shows them. Callers skip sections without items.
func (s Summary) Sections() []Section {
	return []Section{
		{CategoryFile, "Modify", s.Files},
		{CategoryScript, "Adding Script", s.Scripts},
		{CategoryPackage, "Install", s.Packages},
		{CategoryDevPackage, "Install Dev", s.DevPackages},
		{CategoryCommand, "Run commands", s.Commands},
		{CategoryTypeConfig, "Update tsconfig.json", s.TypeConfig},
		{CategoryManifest, "Update package.json", s.Manifest},
	}
}

// Empty reports whether no category has items.
func (s Summary) Empty() bool {
	for _, sec := range s.Sections() {
		if len(sec.Items) > 0 {
			return false
		}
	}
	return true
}
