package types

// PackageDraft is the in-progress package for one distribution. It is
// filled in by the assembler and handed to the store for commit.
type PackageDraft struct {
	Name           string
	Version        string
	Description    string
	Requires       []string
	Variants       [][]string
	Commands       []string
	Tools          []string
	HashedVariants bool
	PipName        string
	FromPip        bool
	IsPurePython   bool
	Help           [][2]string
	Authors        []string
	StorePath      string
}

// Variant is one published variant of a package.
type Variant struct {
	Name    string
	Version string
	Index   int
	Subpath string
	Root    string
	URI     string
}

func (v Variant) QualifiedName() string {
	if v.Version == "" {
		return v.Name
	}
	return v.Name + "-" + v.Version
}

// PackageDefinition is the package.yaml document written into the store.
type PackageDefinition struct {
	Name           string     `yaml:"name"`
	Version        string     `yaml:"version"`
	Description    string     `yaml:"description,omitempty"`
	Requires       []string   `yaml:"requires,omitempty"`
	Variants       [][]string `yaml:"variants,omitempty"`
	HashedVariants bool       `yaml:"hashed_variants,omitempty"`
	Commands       string     `yaml:"commands,omitempty"`
	Tools          []string   `yaml:"tools,omitempty"`
	Help           [][]string `yaml:"help,omitempty"`
	Authors        []string   `yaml:"authors,omitempty"`
	PipName        string     `yaml:"pip_name,omitempty"`
	FromPip        bool       `yaml:"from_pip,omitempty"`
	IsPurePython   bool       `yaml:"is_pure_python,omitempty"`
}
