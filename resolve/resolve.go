package resolve

import (
	"context"
	"time"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/search"
)

// Suggestion limits for unresolved references.
const (
	suggestionLimit         = 3
	suggestionMinSimilarity = 0.6
)

type resolveOptions struct {
	force bool
}

// ResolveOption configures Resolve.
type ResolveOption func(*resolveOptions)

// Force rebuilds the index and re-resolves every reference even when the
// repository is already resolved.
func Force() ResolveOption {
	return func(o *resolveOptions) {
		o.force = true
	}
}

// Resolve builds the Type Index and resolves every reference. It parses
// first when the repository is unparsed and is a no-op once resolved,
// unless Force is given. Unresolved references are recorded in Failures,
// never returned as errors.
func (r *Repository) Resolve(ctx context.Context, opts ...ResolveOption) error {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.parse(ctx); err != nil {
		return err
	}
	if r.state == StateResolved && !o.force {
		return nil
	}

	begin := time.Now()
	r.buildIndex()
	if err := r.resolveAll(ctx); err != nil {
		return err
	}
	r.state = StateResolved
	r.logger.Info("resolved schemas",
		"types", r.index.Len(),
		"unresolved", len(r.failures),
		"duplicates", len(r.duplicates),
		"duration", time.Since(begin),
	)
	return nil
}

// buildIndex scans every document's top-level declarations in load order.
// Within one source a later declaration overwrites an earlier one and the
// overwrite is recorded as a Duplicate. Across merged sources the lower
// priority wins and earlier sources win ties.
func (r *Repository) buildIndex() {
	r.index = xsdpack.NewTypeIndex()
	r.cache = make(map[siteKey]resolution)
	r.failures = nil
	r.duplicates = nil

	for _, p := range r.order {
		doc := r.docs[p]
		ns := r.effectiveNamespace(doc)
		src := r.sources[p]
		for _, decl := range doc.Declarations() {
			e := &xsdpack.TypeIndexEntry{
				Name:       xsdpack.QName{Namespace: ns, Local: decl.DeclName()},
				Kind:       decl.DeclKind(),
				Definition: decl,
				Origin:     doc.Path,
				Priority:   src.priority,
				Source:     src.path,
			}
			prev, ok := r.index.Get(e.Kind, e.Name)
			if ok && prev.Source != e.Source {
				if e.Priority < prev.Priority {
					r.index.Put(e)
				}
				continue
			}
			r.index.Put(e)
			if ok {
				r.duplicates = append(r.duplicates, xsdpack.Duplicate{
					Kind:     e.Kind,
					Name:     e.Name,
					Kept:     e.Origin,
					Replaced: prev.Origin,
				})
				r.logger.Debug("duplicate declaration", "kind", e.Kind, "name", e.Name, "kept", e.Origin, "replaced", prev.Origin)
			}
		}
	}
}

// resolveAll walks every declaration depth-first and resolves each
// embedded reference.
func (r *Repository) resolveAll(ctx context.Context) error {
	for _, p := range r.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := r.docs[p]
		for _, decl := range doc.Declarations() {
			for _, ref := range decl.Refs() {
				res := r.resolveRef(doc, ref)
				if !res.resolved() {
					r.failures = append(r.failures, r.failure(doc, res))
				}
			}
		}
	}
	return nil
}

// resolveRef resolves one reference through the memo table. The first
// call computes the result; later calls return it without touching the index.
func (r *Repository) resolveRef(doc *xsdpack.SchemaDocument, ref xsdpack.Reference) resolution {
	key := siteKey{doc: doc.Path, site: ref.Site}
	if res, ok := r.cache[key]; ok {
		return res
	}

	res := resolution{ref: ref}
	name, err := doc.Qualify(ref, r.chameleons[doc.Path])
	if err != nil {
		res.err = err
	} else {
		res.name = name
		if e, ok := r.index.Lookup(name, ref.Targets); ok {
			res.entry = e
		} else if decl, ok := xsdpack.BuiltinType(name); ok && ref.Targets.Has(decl.DeclKind()) {
			res.builtin = decl
		}
	}
	r.cache[key] = res
	return res
}

func (r *Repository) failure(doc *xsdpack.SchemaDocument, res resolution) xsdpack.ResolutionFailure {
	f := xsdpack.ResolutionFailure{
		Document:  doc.Path,
		Site:      res.ref.Site,
		Attr:      res.ref.Attr,
		Reference: res.ref.Name,
		Name:      res.name,
	}
	if res.err == nil {
		f.Suggestions = r.suggest(res.name, res.ref.Targets)
	}
	return f
}

func (r *Repository) suggest(name xsdpack.QName, targets xsdpack.KindSet) []xsdpack.Suggestion {
	return search.NewFuzzyMatcher(r.index).
		WithKinds(targets).
		FindSimilarTypes(name.String(), suggestionLimit, suggestionMinSimilarity)
}

// ResolveReference returns the target of the reference at site in the
// document loaded from docPath. Results are memoized. An unresolved
// reference fails with an *xsdpack.UnresolvedReferenceError.
func (r *Repository) ResolveReference(docPath string, site int) (*xsdpack.ResolvedResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateResolved {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "repository is %s, not resolved", r.state)
	}
	doc, ok := r.docs[docPath]
	if !ok {
		return nil, xsdpack.Errorf(xsdpack.ENOTFOUND, "document %q not found", docPath)
	}
	ref, ok := findSite(doc, site)
	if !ok {
		return nil, xsdpack.Errorf(xsdpack.ENOTFOUND, "no reference at site %d in %s", site, docPath)
	}

	res := r.resolveRef(doc, ref)
	switch {
	case res.entry != nil:
		return entryResult(ref.Name, res.entry), nil
	case res.builtin != nil:
		return &xsdpack.ResolvedResult{
			Query:      ref.Name,
			Resolved:   true,
			Name:       res.name,
			Kind:       res.builtin.DeclKind(),
			Namespace:  res.name.Namespace,
			Definition: res.builtin,
			Builtin:    true,
		}, nil
	case res.err != nil:
		return nil, res.err
	}
	return nil, r.failure(doc, res).Err()
}

func findSite(doc *xsdpack.SchemaDocument, site int) (xsdpack.Reference, bool) {
	for _, decl := range doc.Declarations() {
		for _, ref := range decl.Refs() {
			if ref.Site == site {
				return ref, true
			}
		}
	}
	return xsdpack.Reference{}, false
}
