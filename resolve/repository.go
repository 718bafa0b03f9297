// Package resolve provides the schema repository: it loads a set of schema
// documents, builds the Type Index, and resolves references between them.
package resolve

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/fwojciec/xsdpack"
)

// DefaultConcurrency bounds parallel document loads during Parse.
const DefaultConcurrency = 8

// State is the lifecycle state of a Repository.
type State int

// Repository states. Transitions only move forward.
const (
	StateUnparsed State = iota
	StateParsed
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateUnparsed:
		return "unparsed"
	case StateParsed:
		return "parsed"
	case StateResolved:
		return "resolved"
	}
	return "unknown"
}

// siteKey identifies one reference site within one document.
type siteKey struct {
	doc  string
	site int
}

// resolution is a memoized reference lookup.
type resolution struct {
	ref     xsdpack.Reference
	name    xsdpack.QName
	entry   *xsdpack.TypeIndexEntry
	builtin xsdpack.Declaration
	err     error
}

func (r resolution) resolved() bool {
	return r.entry != nil || r.builtin != nil
}

// docSource records which merged package a document came from.
type docSource struct {
	path     string
	priority int
}

// Repository owns a set of schema documents, their merged namespace view,
// and the Type Index built over them. It is safe for concurrent use: index
// construction and reference resolution take the write lock, queries take
// the read lock.
type Repository struct {
	mu sync.RWMutex

	loader      xsdpack.DocumentLoader
	parser      xsdpack.DocumentParser
	logger      *slog.Logger
	concurrency int
	baseDir     string

	entryPoints []string
	mapper      *xsdpack.LocationMapper
	namespaces  *xsdpack.NamespaceMap

	state        State
	docs         map[string]*xsdpack.SchemaDocument
	order        []string
	chameleons   map[string]string
	sources      map[string]docSource
	loadFailures []xsdpack.LoadFailure

	index      *xsdpack.TypeIndex
	cache      map[siteKey]resolution
	failures   []xsdpack.ResolutionFailure
	duplicates []xsdpack.Duplicate
}

// Option configures a Repository.
type Option func(*Repository)

// WithLoader sets the loader used to read schema sources.
func WithLoader(loader xsdpack.DocumentLoader) Option {
	return func(r *Repository) {
		r.loader = loader
	}
}

// WithParser sets the parser used to build schema documents.
func WithParser(parser xsdpack.DocumentParser) Option {
	return func(r *Repository) {
		r.parser = parser
	}
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConcurrency bounds parallel loads during Parse.
// Defaults to DefaultConcurrency if n is not positive.
func WithConcurrency(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithBaseDir sets the directory relative entry points and mapping
// targets are resolved against. It overrides Config.BaseDir.
func WithBaseDir(dir string) Option {
	return func(r *Repository) {
		r.baseDir = dir
	}
}

// NewRepository creates an unparsed repository for cfg.
func NewRepository(cfg xsdpack.Config, opts ...Option) (*Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mapper, err := xsdpack.NewLocationMapper(cfg.SchemaLocationMappings)
	if err != nil {
		return nil, err
	}

	r := newRepository()
	r.baseDir = cfg.BaseDir
	for _, opt := range opts {
		opt(r)
	}
	r.entryPoints = slices.Clone(cfg.EntryPoints)
	r.mapper = mapper
	r.namespaces = xsdpack.NewNamespaceMap(cfg.Namespaces)
	return r, nil
}

func newRepository() *Repository {
	return &Repository{
		logger:      slog.New(slog.DiscardHandler),
		concurrency: DefaultConcurrency,
		namespaces:  xsdpack.NewNamespaceMap(nil),
		docs:        make(map[string]*xsdpack.SchemaDocument),
		chameleons:  make(map[string]string),
		sources:     make(map[string]docSource),
		index:       xsdpack.NewTypeIndex(),
		cache:       make(map[siteKey]resolution),
	}
}

// State returns the lifecycle state.
func (r *Repository) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Documents returns the documents in load order.
func (r *Repository) Documents() []*xsdpack.SchemaDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*xsdpack.SchemaDocument, 0, len(r.order))
	for _, path := range r.order {
		out = append(out, r.docs[path])
	}
	return out
}

// Document returns the document loaded from path.
func (r *Repository) Document(path string) (*xsdpack.SchemaDocument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[path]
	return doc, ok
}

// EntryPoints returns the configured entry points.
func (r *Repository) EntryPoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entryPoints)
}

// NamespaceMappings returns the merged prefix map.
func (r *Repository) NamespaceMappings() []xsdpack.NamespaceMapping {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namespaces.Mappings()
}

// Index returns the Type Index. It must be treated as read-only.
func (r *Repository) Index() *xsdpack.TypeIndex {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

// LoadFailures returns the import/include edges that failed during Parse.
func (r *Repository) LoadFailures() []xsdpack.LoadFailure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.loadFailures)
}

// Failures returns the unresolved references found by Resolve.
func (r *Repository) Failures() []xsdpack.ResolutionFailure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.failures)
}

// Duplicates returns same-repository redeclarations found by Resolve.
func (r *Repository) Duplicates() []xsdpack.Duplicate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.duplicates)
}

// AllNamespaces returns every namespace with indexed declarations or
// declared as a document target namespace, sorted.
func (r *Repository) AllNamespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allNamespaces()
}

func (r *Repository) allNamespaces() []string {
	set := make(map[string]bool)
	for _, ns := range r.index.Namespaces() {
		if ns != "" {
			set[ns] = true
		}
	}
	for _, path := range r.order {
		if ns := r.effectiveNamespace(r.docs[path]); ns != "" {
			set[ns] = true
		}
	}
	out := make([]string, 0, len(set))
	for ns := range set {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

// AllTypeNames returns the local names indexed under namespace, sorted.
func (r *Repository) AllTypeNames(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Names(namespace)
}

// Statistics returns document, declaration and namespace counts.
func (r *Repository) Statistics() xsdpack.Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := r.index.CountByKind()
	return xsdpack.Statistics{
		Schemas:         len(r.docs),
		Types:           r.index.Len(),
		Namespaces:      len(r.allNamespaces()),
		Elements:        counts[xsdpack.KindElement],
		ComplexTypes:    counts[xsdpack.KindComplexType],
		SimpleTypes:     counts[xsdpack.KindSimpleType],
		Groups:          counts[xsdpack.KindGroup],
		AttributeGroups: counts[xsdpack.KindAttributeGroup],
	}
}

// Ensure Repository implements xsdpack.Finder at compile time.
var _ xsdpack.Finder = (*Repository)(nil)

// FindType looks up a declaration by Clark ({ns}local), prefixed
// (through the repository prefix map) or bare local name. Types are
// preferred over elements, groups and attribute groups.
func (r *Repository) FindType(name string) (*xsdpack.ResolvedResult, bool) {
	return r.find(name, xsdpack.TargetsAll)
}

// FindTypeKind looks up a declaration of one kind.
func (r *Repository) FindTypeKind(name string, kind xsdpack.Kind) (*xsdpack.ResolvedResult, bool) {
	return r.find(name, xsdpack.KindSet(1<<kind))
}

func (r *Repository) find(query string, targets xsdpack.KindSet) (*xsdpack.ResolvedResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}

	if name, ok := xsdpack.ParseClark(query); ok {
		return r.lookup(query, name, targets)
	}
	prefix, local := xsdpack.SplitPrefixed(query)
	if prefix != "" {
		ns, ok := r.namespaces.Lookup(prefix)
		if !ok {
			return nil, false
		}
		return r.lookup(query, xsdpack.QName{Namespace: ns, Local: local}, targets)
	}

	// Bare names match any namespace: kind precedence first, then namespace order.
	candidates := r.index.ByLocalName(local)
	for _, kind := range targets.Kinds() {
		for _, e := range candidates {
			if e.Kind == kind {
				return entryResult(query, e), true
			}
		}
	}
	return r.lookup(query, xsdpack.QName{Namespace: xsdpack.XSDNamespace, Local: local}, targets)
}

func (r *Repository) lookup(query string, name xsdpack.QName, targets xsdpack.KindSet) (*xsdpack.ResolvedResult, bool) {
	if e, ok := r.index.Lookup(name, targets); ok {
		return entryResult(query, e), true
	}
	if targets&xsdpack.TargetsType != 0 {
		if decl, ok := xsdpack.BuiltinType(name); ok && targets.Has(decl.DeclKind()) {
			return &xsdpack.ResolvedResult{
				Query:      query,
				Resolved:   true,
				Name:       name,
				Kind:       decl.DeclKind(),
				Namespace:  name.Namespace,
				Definition: decl,
				Builtin:    true,
			}, true
		}
	}
	return nil, false
}

func entryResult(query string, e *xsdpack.TypeIndexEntry) *xsdpack.ResolvedResult {
	return &xsdpack.ResolvedResult{
		Query:      query,
		Resolved:   true,
		Name:       e.Name,
		Kind:       e.Kind,
		Namespace:  e.Name.Namespace,
		Document:   e.Origin,
		Definition: e.Definition,
	}
}

// effectiveNamespace returns the target namespace of doc, or the namespace
// a chameleon document adopted from its includer.
func (r *Repository) effectiveNamespace(doc *xsdpack.SchemaDocument) string {
	if doc.TargetNamespace != "" {
		return doc.TargetNamespace
	}
	return r.chameleons[doc.Path]
}
