package xsdpack

// ResolutionFailure records a reference with no matching index entry.
type ResolutionFailure struct {
	Document    string       `json:"document" yaml:"document"`
	Site        int          `json:"site" yaml:"site"`
	Attr        string       `json:"attr" yaml:"attr"`
	Reference   string       `json:"reference" yaml:"reference"`
	Name        QName        `json:"name" yaml:"name"`
	Suggestions []Suggestion `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// Err returns the failure as an *UnresolvedReferenceError.
func (f ResolutionFailure) Err() error {
	return &UnresolvedReferenceError{
		Document:    f.Document,
		Reference:   f.Reference,
		Name:        f.Name,
		Suggestions: f.Suggestions,
	}
}

// Directive kinds for load failures.
const (
	DirectiveEntry   = "entry"
	DirectiveImport  = "import"
	DirectiveInclude = "include"
)

// LoadFailure records a load or structural failure on one import/include edge.
type LoadFailure struct {
	From      string // including document, empty for entry points
	Location  string // location as requested
	Directive string
	Err       error
}

// Duplicate records a same-repository redeclaration: the later declaration
// overwrote the earlier one in the Type Index.
type Duplicate struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Name     QName  `json:"name" yaml:"name"`
	Kept     string `json:"kept" yaml:"kept"`
	Replaced string `json:"replaced" yaml:"replaced"`
}

// SchemaFileSource is one occurrence of a schema file in a merged package.
type SchemaFileSource struct {
	PackagePath string
	SchemaFile  string
	Priority    int
	ContentHash string
}

// SchemaConflict reports a schema basename present in two or more packages.
type SchemaConflict struct {
	Basename string
	Sources  []SchemaFileSource
}

// Identical reports whether every occurrence has the same content hash.
func (c SchemaConflict) Identical() bool {
	if len(c.Sources) == 0 {
		return false
	}
	first := c.Sources[0].ContentHash
	if first == "" {
		return false
	}
	for _, s := range c.Sources[1:] {
		if s.ContentHash != first {
			return false
		}
	}
	return true
}

// TypeSource is one definition of a conflicting qualified name.
type TypeSource struct {
	PackagePath string
	SchemaFile  string
	Priority    int
}

// TypeConflict reports a qualified name defined in two or more packages.
// Winner is the definition kept by the merged repository.
type TypeConflict struct {
	Kind    Kind
	Name    QName
	Sources []TypeSource
	Winner  TypeSource
}
