package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/pack"
	"github.com/fwojciec/xsdpack/resolve"
)

// Run executes the merge command. Packages earlier on the command line
// win type conflicts.
func (c *MergeCmd) Run(deps *Dependencies) error {
	opts := xsdpack.PackageOptions{
		Format:   xsdpack.Format(c.Format),
		Metadata: xsdpack.PackageMetadata{Name: c.Name},
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	sources := make([]pack.Source, len(c.Packages))
	for i, p := range c.Packages {
		sources[i] = pack.Source{Path: p, Priority: i}
	}

	repo, report, err := deps.Packer.Merge(deps.Ctx, sources)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	printReport(deps.Stdout, report)
	if c.FailOnConflict && report.HasConflicts() {
		err := xsdpack.Errorf(xsdpack.ECONFLICT, "%d schema and %d type conflicts",
			len(report.SchemaConflicts), len(report.TypeConflicts))
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	if _, err := deps.Packer.Write(deps.Ctx, repo, c.Output, opts); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	stats := repo.Statistics()
	fmt.Fprintf(deps.Stdout, "Merged %d packages into %s (%d schemas, %d types)\n",
		len(c.Packages), c.Output, stats.Schemas, stats.Types)
	return nil
}

func printReport(w io.Writer, report *resolve.MergeReport) {
	for _, sc := range report.SchemaConflicts {
		state := "differing"
		if sc.Identical() {
			state = "identical"
		}
		pkgs := make([]string, len(sc.Sources))
		for i, s := range sc.Sources {
			pkgs[i] = s.PackagePath
		}
		fmt.Fprintf(w, "schema conflict: %s (%s) in %s\n", sc.Basename, state, strings.Join(pkgs, ", "))
	}
	for _, tc := range report.TypeConflicts {
		fmt.Fprintf(w, "type conflict: %s %s: using %s from %s", tc.Kind, tc.Name, tc.Winner.SchemaFile, tc.Winner.PackagePath)
		for _, s := range tc.Sources {
			if s == tc.Winner {
				continue
			}
			fmt.Fprintf(w, ", shadowing %s", s.PackagePath)
		}
		fmt.Fprintln(w)
	}
}
