package resolve

import (
	"maps"
	"slices"
	"time"

	"github.com/fwojciec/xsdpack"
)

// Package returns the logical package of the repository. A resolved
// package carries the Type Index, resolution failures and duplicates; it
// requires a resolved repository.
func (r *Repository) Package(opts xsdpack.PackageOptions) (*xsdpack.Package, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state == StateUnparsed {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "repository is unparsed")
	}
	if opts.ResolutionMode == xsdpack.ResolutionResolved && r.state != StateResolved {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "resolved package requires a resolved repository")
	}

	meta := opts.Metadata
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	pkg := &xsdpack.Package{
		Marker:         xsdpack.PackageMarker,
		Version:        xsdpack.PackageVersion,
		Metadata:       meta,
		XSDMode:        opts.XSDMode,
		ResolutionMode: opts.ResolutionMode,
		EntryPoints:    slices.Clone(r.entryPoints),
		Namespaces:     r.namespaces.Mappings(),
		Mappings:       r.mapper.Rules(),
		Chameleons:     maps.Clone(r.chameleons),
		Sources:        r.documentSources(),
		Documents:      make([]*xsdpack.SchemaDocument, 0, len(r.order)),
	}
	for _, p := range r.order {
		doc := r.docs[p]
		if opts.XSDMode == xsdpack.XSDModeTypesOnly && doc.Markup != nil {
			stripped := *doc
			stripped.Markup = nil
			doc = &stripped
		}
		pkg.Documents = append(pkg.Documents, doc)
	}

	if opts.ResolutionMode == xsdpack.ResolutionResolved {
		entries := r.index.Entries()
		pkg.Index = make([]xsdpack.IndexRecord, 0, len(entries))
		for _, e := range entries {
			pkg.Index = append(pkg.Index, xsdpack.IndexRecord{
				Kind:     e.Kind,
				Name:     e.Name,
				Origin:   e.Origin,
				Priority: e.Priority,
				Source:   e.Source,
			})
		}
		pkg.Failures = slices.Clone(r.failures)
		pkg.Duplicates = slices.Clone(r.duplicates)
	}
	return pkg, nil
}

// FromPackage restores a repository from a package. A package carrying a
// Type Index yields a resolved repository without re-resolution; other
// packages yield a parsed repository.
func FromPackage(pkg *xsdpack.Package, opts ...Option) (*Repository, error) {
	if pkg == nil {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "nil package")
	}
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	mapper, err := xsdpack.NewLocationMapper(pkg.Mappings)
	if err != nil {
		return nil, err
	}

	r := newRepository()
	for _, opt := range opts {
		opt(r)
	}
	r.entryPoints = slices.Clone(pkg.EntryPoints)
	r.mapper = mapper
	r.namespaces = xsdpack.NewNamespaceMap(pkg.Namespaces)
	for _, doc := range pkg.Documents {
		if _, dup := r.docs[doc.Path]; dup {
			return nil, xsdpack.Errorf(xsdpack.EPACKAGE, "duplicate document %q in package", doc.Path)
		}
		r.register(doc)
	}
	for path, ns := range pkg.Chameleons {
		r.chameleons[path] = ns
	}
	for path, src := range pkg.Sources {
		r.sources[path] = docSource{path: src.PackagePath, priority: src.Priority}
	}

	if pkg.ResolutionMode != xsdpack.ResolutionResolved {
		r.state = StateParsed
		return r, nil
	}

	for _, rec := range pkg.Index {
		doc, ok := r.docs[rec.Origin]
		if !ok {
			return nil, xsdpack.Errorf(xsdpack.EPACKAGE, "index entry %s refers to unknown document %q", rec.Name, rec.Origin)
		}
		decl, ok := doc.Declaration(rec.Kind, rec.Name.Local)
		if !ok {
			return nil, xsdpack.Errorf(xsdpack.EPACKAGE, "index entry %s %s has no declaration in %q", rec.Kind, rec.Name, rec.Origin)
		}
		r.index.Put(&xsdpack.TypeIndexEntry{
			Name:       rec.Name,
			Kind:       rec.Kind,
			Definition: decl,
			Origin:     rec.Origin,
			Priority:   rec.Priority,
			Source:     rec.Source,
		})
	}
	r.failures = slices.Clone(pkg.Failures)
	r.duplicates = slices.Clone(pkg.Duplicates)
	r.state = StateResolved
	return r, nil
}

func (r *Repository) documentSources() map[string]xsdpack.DocumentSource {
	if len(r.sources) == 0 {
		return nil
	}
	out := make(map[string]xsdpack.DocumentSource, len(r.sources))
	for path, src := range r.sources {
		out[path] = xsdpack.DocumentSource{PackagePath: src.path, Priority: src.priority}
	}
	return out
}
