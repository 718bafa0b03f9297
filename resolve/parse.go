package resolve

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/xsdpack"
	"golang.org/x/sync/errgroup"
)

// edge is one entry point, import or include to follow.
type edge struct {
	from      string // including document path, empty for entry points
	requested string // location as written
	location  string // effective normalized location
	directive string
	namespace string // declared namespace of an import
}

type loadResult struct {
	doc *xsdpack.SchemaDocument
	err error
}

// Parse loads the entry points and follows imports and includes
// transitively. Each normalized location is loaded at most once, so cyclic
// schema graphs terminate. Failures on import or include edges are recorded
// in LoadFailures; failures on entry points fail Parse. Parse is a no-op
// unless the repository is unparsed.
func (r *Repository) Parse(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parse(ctx)
}

func (r *Repository) parse(ctx context.Context) error {
	if r.state != StateUnparsed {
		return nil
	}
	if r.loader == nil || r.parser == nil {
		return xsdpack.Errorf(xsdpack.EINVALID, "repository requires a document loader and parser")
	}
	if len(r.entryPoints) == 0 {
		return xsdpack.Errorf(xsdpack.EINVALID, "at least one entry point required")
	}

	begin := time.Now()
	seen := make(map[string]struct{})
	var entryErrs []error

	layer := r.entryEdges()
	for len(layer) > 0 {
		claimed := make([]bool, len(layer))
		for i, e := range layer {
			if _, ok := seen[e.location]; ok {
				continue
			}
			seen[e.location] = struct{}{}
			claimed[i] = true
		}

		// Documents are parsed in parallel and registered after the join.
		results := make([]loadResult, len(layer))
		var g errgroup.Group
		g.SetLimit(r.concurrency)
		for i, e := range layer {
			if !claimed[i] {
				continue
			}
			g.Go(func() error {
				doc, err := r.load(ctx, e)
				results[i] = loadResult{doc: doc, err: err}
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			r.reset()
			return err
		}

		var next []edge
		for i, e := range layer {
			if !claimed[i] {
				continue
			}
			res := results[i]
			if res.err != nil {
				if e.directive == xsdpack.DirectiveEntry {
					entryErrs = append(entryErrs, res.err)
				}
				r.loadFailures = append(r.loadFailures, xsdpack.LoadFailure{
					From:      e.from,
					Location:  e.requested,
					Directive: e.directive,
					Err:       res.err,
				})
				r.logger.Debug("schema load failed", "location", e.location, "from", e.from, "error", res.err)
				continue
			}
			r.register(res.doc)
			next = append(next, r.edgesFrom(res.doc)...)
		}
		for _, e := range layer {
			r.checkEdge(e)
		}
		layer = next
	}

	if len(entryErrs) > 0 {
		r.reset()
		return errors.Join(entryErrs...)
	}

	for _, p := range r.order {
		r.namespaces.Merge(r.docs[p].Namespaces)
	}
	r.state = StateParsed
	r.logger.Info("parsed schemas",
		"documents", len(r.order),
		"load_failures", len(r.loadFailures),
		"duration", time.Since(begin),
	)
	return nil
}

// reset discards partial parse results.
func (r *Repository) reset() {
	r.docs = make(map[string]*xsdpack.SchemaDocument)
	r.order = nil
	r.chameleons = make(map[string]string)
	r.loadFailures = nil
}

func (r *Repository) load(ctx context.Context, e edge) (*xsdpack.SchemaDocument, error) {
	data, err := r.loader.LoadDocument(ctx, e.location)
	if err != nil {
		var locErr *xsdpack.LocationNotFoundError
		if errors.As(err, &locErr) {
			le := *locErr
			if le.From == "" {
				le.From = e.from
			}
			return nil, &le
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &xsdpack.LocationNotFoundError{Location: e.location, From: e.from, Err: err}
	}
	return r.parser.ParseDocument(e.location, data)
}

func (r *Repository) register(doc *xsdpack.SchemaDocument) {
	r.docs[doc.Path] = doc
	r.order = append(r.order, doc.Path)
}

func (r *Repository) entryEdges() []edge {
	edges := make([]edge, 0, len(r.entryPoints))
	for _, ep := range r.entryPoints {
		loc := ep
		if mapped, ok := r.mapper.Map(ep); ok {
			loc = mapped
		}
		edges = append(edges, edge{
			requested: ep,
			location:  r.fromBase(loc),
			directive: xsdpack.DirectiveEntry,
		})
	}
	return edges
}

// edgesFrom returns the imports and includes of doc as edges.
func (r *Repository) edgesFrom(doc *xsdpack.SchemaDocument) []edge {
	var edges []edge
	for _, imp := range doc.Imports {
		e := edge{
			from:      doc.Path,
			requested: imp.SchemaLocation,
			directive: xsdpack.DirectiveImport,
			namespace: imp.Namespace,
		}
		if imp.SchemaLocation == "" {
			// Without a location only a mapping rule on the namespace can supply one.
			mapped, ok := r.mapper.Map(imp.Namespace)
			if imp.Namespace == "" || !ok {
				continue
			}
			e.requested = imp.Namespace
			e.location = r.fromBase(mapped)
		} else {
			e.location = r.locate(doc.Path, imp.SchemaLocation)
		}
		edges = append(edges, e)
	}
	for _, inc := range doc.Includes {
		edges = append(edges, edge{
			from:      doc.Path,
			requested: inc.SchemaLocation,
			location:  r.locate(doc.Path, inc.SchemaLocation),
			directive: xsdpack.DirectiveInclude,
		})
	}
	return edges
}

// locate applies mapping rules to a requested location. Mapped targets
// resolve against the base directory, unmapped ones against the
// including document.
func (r *Repository) locate(from, requested string) string {
	if mapped, ok := r.mapper.Map(requested); ok {
		return r.fromBase(mapped)
	}
	return xsdpack.JoinLocation(from, requested)
}

func (r *Repository) fromBase(location string) string {
	location = strings.TrimSpace(location)
	if r.baseDir == "" || xsdpack.IsRemote(location) || strings.HasPrefix(location, "file:") ||
		filepath.IsAbs(location) || path.IsAbs(filepath.ToSlash(location)) {
		return xsdpack.NormalizeLocation(location)
	}
	return xsdpack.NormalizeLocation(path.Join(filepath.ToSlash(r.baseDir), filepath.ToSlash(location)))
}

// checkEdge records structural problems on an edge whose target loaded:
// imports must deliver their declared namespace, and includes must share
// the includer's namespace or have none (a chameleon include).
func (r *Repository) checkEdge(e edge) {
	target, ok := r.docs[e.location]
	if !ok {
		return
	}

	var err error
	switch e.directive {
	case xsdpack.DirectiveImport:
		if target.TargetNamespace != e.namespace {
			err = xsdpack.Errorf(xsdpack.EINVALID, "import of namespace %q loaded %s with target namespace %q",
				e.namespace, target.Path, target.TargetNamespace)
		}
	case xsdpack.DirectiveInclude:
		includer, ok := r.docs[e.from]
		if !ok {
			return
		}
		ns := r.effectiveNamespace(includer)
		switch {
		case target.TargetNamespace == "" && ns != "":
			prev, adopted := r.chameleons[target.Path]
			if !adopted {
				r.chameleons[target.Path] = ns
			} else if prev != ns {
				err = xsdpack.Errorf(xsdpack.EINVALID, "chameleon include %s already adopted namespace %q, not %q",
					target.Path, prev, ns)
			}
		case target.TargetNamespace != ns:
			err = xsdpack.Errorf(xsdpack.EINVALID, "include of %s with target namespace %q into namespace %q",
				target.Path, target.TargetNamespace, ns)
		}
	}
	if err != nil {
		r.loadFailures = append(r.loadFailures, xsdpack.LoadFailure{
			From:      e.from,
			Location:  e.requested,
			Directive: e.directive,
			Err:       fmt.Errorf("%s: %w", e.directive, err),
		})
	}
}
