package main

import (
	"fmt"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/fs"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	repo, err := deps.Packer.Load(deps.Ctx, c.Package)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", xsdpack.ErrorMessage(err))
		return err
	}

	exporter := fs.NewExporter(c.Dir, deps.Parser)
	docs := repo.Documents()
	for _, doc := range docs {
		path, err := exporter.ExportDocument(deps.Ctx, doc)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", doc.Path, xsdpack.ErrorMessage(err))
			return err
		}
		fmt.Fprintln(deps.Stdout, path)
	}
	fmt.Fprintf(deps.Stdout, "Exported %d schemas to %s\n", len(docs), c.Dir)
	return nil
}
