package resolve

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/fwojciec/xsdpack"
)

// MergeSource is one package taking part in a merge.
type MergeSource struct {
	Path     string
	Priority int // lower wins
	Package  *xsdpack.Package
}

// MergeReport lists the conflicts found while merging.
type MergeReport struct {
	SchemaConflicts []xsdpack.SchemaConflict
	TypeConflicts   []xsdpack.TypeConflict
}

// HasConflicts reports whether any conflict was found.
func (r *MergeReport) HasConflicts() bool {
	return len(r.SchemaConflicts) > 0 || len(r.TypeConflicts) > 0
}

// Merge combines packages into one resolved repository. Sources are
// ordered by priority, ties keeping their given order. Every schema
// basename and every (kind, qualified name) present in more than one
// source is reported; the repository keeps the definition from the
// lowest-priority source.
func Merge(ctx context.Context, sources []MergeSource, opts ...Option) (*Repository, *MergeReport, error) {
	if len(sources) == 0 {
		return nil, nil, xsdpack.Errorf(xsdpack.EINVALID, "at least one package required to merge")
	}
	for _, src := range sources {
		if src.Package == nil {
			return nil, nil, xsdpack.Errorf(xsdpack.EINVALID, "package %q not loaded", src.Path)
		}
		if err := src.Package.Validate(); err != nil {
			return nil, nil, err
		}
	}

	ordered := slices.Clone(sources)
	slices.SortStableFunc(ordered, func(a, b MergeSource) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	r := newRepository()
	for _, opt := range opts {
		opt(r)
	}
	var rules []xsdpack.SchemaLocationMapping
	for _, src := range ordered {
		pkg := src.Package
		r.namespaces.Merge(bindings(pkg.Namespaces))
		rules = append(rules, pkg.Mappings...)
		for _, ep := range pkg.EntryPoints {
			r.entryPoints = append(r.entryPoints, qualifyPath(src.Path, ep))
		}
		for _, doc := range pkg.Documents {
			key := doc.Path
			if _, taken := r.docs[key]; taken {
				key = qualifyPath(src.Path, doc.Path)
			}
			if _, taken := r.docs[key]; taken {
				return nil, nil, xsdpack.Errorf(xsdpack.EPACKAGE, "duplicate document %q in package %q", doc.Path, src.Path)
			}
			stored := doc
			if key != doc.Path {
				renamed := *doc
				renamed.Path = key
				stored = &renamed
			}
			r.register(stored)
			r.sources[key] = docSource{path: src.Path, priority: src.Priority}
			if ns, ok := pkg.Chameleons[doc.Path]; ok {
				r.chameleons[key] = ns
			}
		}
	}
	mapper, err := xsdpack.NewLocationMapper(rules)
	if err != nil {
		return nil, nil, err
	}
	r.mapper = mapper
	r.state = StateParsed

	report := &MergeReport{
		SchemaConflicts: schemaConflicts(ordered),
		TypeConflicts:   typeConflicts(ordered),
	}
	if err := r.Resolve(ctx); err != nil {
		return nil, nil, err
	}
	for i := range report.TypeConflicts {
		c := &report.TypeConflicts[i]
		if e, ok := r.index.Get(c.Kind, c.Name); ok {
			c.Winner = xsdpack.TypeSource{
				PackagePath: e.Source,
				SchemaFile:  strings.TrimPrefix(e.Origin, qualifyPath(e.Source, "")),
				Priority:    e.Priority,
			}
		}
	}
	r.logger.Info("merged packages",
		"packages", len(ordered),
		"schema_conflicts", len(report.SchemaConflicts),
		"type_conflicts", len(report.TypeConflicts),
	)
	return r, report, nil
}

func qualifyPath(pkgPath, docPath string) string {
	return pkgPath + "!" + docPath
}

func bindings(mappings []xsdpack.NamespaceMapping) map[string]string {
	out := make(map[string]string, len(mappings))
	for _, m := range mappings {
		out[m.Prefix] = m.URI
	}
	return out
}

// schemaConflicts groups documents by basename and reports names seen in
// more than one source.
func schemaConflicts(ordered []MergeSource) []xsdpack.SchemaConflict {
	type group struct {
		sources  []xsdpack.SchemaFileSource
		packages map[int]bool
	}
	groups := make(map[string]*group)
	for i, src := range ordered {
		for _, doc := range src.Package.Documents {
			base := xsdpack.Basename(doc.Path)
			g, ok := groups[base]
			if !ok {
				g = &group{packages: make(map[int]bool)}
				groups[base] = g
			}
			g.packages[i] = true
			g.sources = append(g.sources, xsdpack.SchemaFileSource{
				PackagePath: src.Path,
				SchemaFile:  doc.Path,
				Priority:    src.Priority,
				ContentHash: doc.ContentHash,
			})
		}
	}

	var out []xsdpack.SchemaConflict
	for base, g := range groups {
		if len(g.packages) < 2 {
			continue
		}
		out = append(out, xsdpack.SchemaConflict{Basename: base, Sources: g.sources})
	}
	slices.SortFunc(out, func(a, b xsdpack.SchemaConflict) int {
		return cmp.Compare(a.Basename, b.Basename)
	})
	return out
}

// typeConflicts reports every (kind, qualified name) declared by more than
// one source. Merge fills in the winner from the built index.
func typeConflicts(ordered []MergeSource) []xsdpack.TypeConflict {
	type group struct {
		sources  []xsdpack.TypeSource
		packages map[int]bool
	}
	groups := make(map[xsdpack.IndexKey]*group)
	var keys []xsdpack.IndexKey
	for i, src := range ordered {
		pkg := src.Package
		for _, doc := range pkg.Documents {
			ns := doc.TargetNamespace
			if ns == "" {
				ns = pkg.Chameleons[doc.Path]
			}
			for _, decl := range doc.Declarations() {
				key := xsdpack.IndexKey{
					Kind: decl.DeclKind(),
					Name: xsdpack.QName{Namespace: ns, Local: decl.DeclName()},
				}
				g, ok := groups[key]
				if !ok {
					g = &group{packages: make(map[int]bool)}
					groups[key] = g
					keys = append(keys, key)
				}
				if g.packages[i] {
					// A later declaration in the same package replaces the earlier one.
					g.sources[len(g.sources)-1].SchemaFile = doc.Path
					continue
				}
				g.packages[i] = true
				g.sources = append(g.sources, xsdpack.TypeSource{
					PackagePath: src.Path,
					SchemaFile:  doc.Path,
					Priority:    src.Priority,
				})
			}
		}
	}

	var out []xsdpack.TypeConflict
	for _, key := range keys {
		g := groups[key]
		if len(g.packages) < 2 {
			continue
		}
		out = append(out, xsdpack.TypeConflict{
			Kind:    key.Kind,
			Name:    key.Name,
			Sources: g.sources,
		})
	}
	slices.SortFunc(out, func(a, b xsdpack.TypeConflict) int {
		if c := a.Name.Compare(b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return out
}
