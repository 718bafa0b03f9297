package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/resolve"
	"github.com/fwojciec/xsdpack/search"
)

// loadRepository restores the repository of a package file, resolving
// unresolved packages so that lookups see a built index.
func loadRepository(deps *Dependencies, path string) (*resolve.Repository, error) {
	repo, err := deps.Packer.Load(deps.Ctx, path)
	if err != nil {
		return nil, err
	}
	if repo.State() != resolve.StateResolved {
		if err := repo.Resolve(deps.Ctx); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	repo, err := loadRepository(deps, c.Package)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	s := repo.Statistics()
	fmt.Fprintf(deps.Stdout, "Schemas:          %d\n", s.Schemas)
	fmt.Fprintf(deps.Stdout, "Namespaces:       %d\n", s.Namespaces)
	fmt.Fprintf(deps.Stdout, "Types:            %d\n", s.Types)
	fmt.Fprintf(deps.Stdout, "  elements:        %d\n", s.Elements)
	fmt.Fprintf(deps.Stdout, "  complexTypes:    %d\n", s.ComplexTypes)
	fmt.Fprintf(deps.Stdout, "  simpleTypes:     %d\n", s.SimpleTypes)
	fmt.Fprintf(deps.Stdout, "  groups:          %d\n", s.Groups)
	fmt.Fprintf(deps.Stdout, "  attributeGroups: %d\n", s.AttributeGroups)

	failures := repo.Failures()
	fmt.Fprintf(deps.Stdout, "Unresolved:       %d\n", len(failures))
	if c.Failures {
		for _, f := range failures {
			fmt.Fprintf(deps.Stdout, "  %v\n", f.Err())
		}
		for _, d := range repo.Duplicates() {
			fmt.Fprintf(deps.Stdout, "  duplicate %s %s: kept %s, replaced %s\n", d.Kind, d.Name, d.Kept, d.Replaced)
		}
	}
	return nil
}

// Run executes the find command. It fails when any name is not found.
func (c *FindCmd) Run(deps *Dependencies) error {
	var kind xsdpack.Kind
	if c.Kind != "" {
		k, err := xsdpack.ParseKind(c.Kind)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
			return err
		}
		kind = k
	}

	repo, err := loadRepository(deps, c.Package)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	var missing int
	for _, name := range c.Names {
		var res *xsdpack.ResolvedResult
		var ok bool
		if kind != 0 {
			res, ok = repo.FindTypeKind(name, kind)
		} else {
			res, ok = repo.FindType(name)
		}
		if !ok {
			missing++
			fmt.Fprintf(deps.Stdout, "%s\tnot found\n", name)
			for _, s := range search.NewFuzzyMatcher(repo.Index()).FindSimilarTypes(localPart(name), 3, 0.6) {
				fmt.Fprintf(deps.Stdout, "  did you mean %s?\n", s.Text)
			}
			continue
		}
		fmt.Fprintln(deps.Stdout, formatResult(res))
	}

	if missing > 0 {
		return xsdpack.Errorf(xsdpack.ENOTFOUND, "%d of %d names not found", missing, len(c.Names))
	}
	return nil
}

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	field, err := search.ParseField(c.Field)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	repo, err := loadRepository(deps, c.Package)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	matches, err := search.NewTypeSearcher(repo.Index()).Search(c.Term, field, c.Limit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintf(deps.Stdout, "No matches for %q.\n", c.Term)
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(deps.Stdout, "%d\t%s\t%s\t%s\n", m.Score, m.Entry.Kind, m.Entry.Name, m.Entry.Origin)
	}
	return nil
}

// Run executes the suggest command.
func (c *SuggestCmd) Run(deps *Dependencies) error {
	repo, err := loadRepository(deps, c.Package)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	suggestions := search.NewFuzzyMatcher(repo.Index()).FindSimilarTypes(c.Name, c.Limit, c.MinSimilarity)
	if len(suggestions) == 0 {
		fmt.Fprintln(deps.Stdout, "No similar names found.")
		return nil
	}
	for _, s := range suggestions {
		fmt.Fprintf(deps.Stdout, "%.2f\t%s\t%s\n", s.Similarity, s.Text, s.Explanation)
	}
	return nil
}

// Run executes the batch command.
func (c *BatchCmd) Run(deps *Dependencies) error {
	names := c.Names
	if c.File != "" {
		fromFile, err := readNames(c.File)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
			return err
		}
		names = append(names, fromFile...)
	}
	if len(names) == 0 {
		err := xsdpack.Errorf(xsdpack.EINVALID, "no names given: pass names or --file")
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	repo, err := loadRepository(deps, c.Package)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	results, err := search.NewBatchTypeQuery(repo, search.WithConcurrency(c.Concurrency)).Execute(deps.Ctx, names)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	var resolved int
	for _, r := range results {
		if !r.Resolved {
			fmt.Fprintf(deps.Stdout, "%s\tnot found\n", r.Query)
			continue
		}
		resolved++
		fmt.Fprintln(deps.Stdout, formatResult(r.Result))
	}
	fmt.Fprintf(deps.Stdout, "%d of %d resolved\n", resolved, len(results))
	return nil
}

// formatResult renders a lookup result as one tab-separated line.
func formatResult(res *xsdpack.ResolvedResult) string {
	origin := res.Document
	if res.Builtin {
		origin = "(built-in)"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", res.Query, res.Kind, res.Name, origin)
}

// localPart strips a prefix or Clark namespace from a query.
func localPart(name string) string {
	if q, ok := xsdpack.ParseClark(name); ok {
		return q.Local
	}
	_, local := xsdpack.SplitPrefixed(name)
	return local
}

// readNames reads one name per line, skipping blank lines and # comments.
func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, sc.Err()
}
