package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/pack"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Loader xsdpack.DocumentLoader
	Parser xsdpack.DocumentParser
	Packer *pack.Packer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose   bool          `short:"v" help:"Log loading and package I/O"`
	RateLimit float64       `name:"rate-limit" default:"2" env:"XSDPACK_RATE_LIMIT" help:"Remote schema requests per second per host"`
	RateBurst int           `name:"rate-burst" default:"1" env:"XSDPACK_RATE_BURST" help:"Remote schema requests per host sent back to back before pacing"`
	Timeout   time.Duration `default:"10s" help:"Timeout for remote schema requests"`

	Build   BuildCmd   `cmd:"" help:"Load and resolve schemas from a config file and write a package"`
	Stats   StatsCmd   `cmd:"" help:"Show package statistics and resolution failures"`
	Find    FindCmd    `cmd:"" help:"Look up type names in a package"`
	Search  SearchCmd  `cmd:"" help:"Search the type index of a package"`
	Suggest SuggestCmd `cmd:"" help:"Suggest indexed names similar to a name"`
	Batch   BatchCmd   `cmd:"" help:"Resolve many type names at once"`
	Merge   MergeCmd   `cmd:"" help:"Merge packages by priority and report conflicts"`
	Export  ExportCmd  `cmd:"" help:"Write the schema files of a package to a directory"`
}

// BuildCmd is the "build" subcommand.
type BuildCmd struct {
	Config         string `arg:"" help:"Configuration file (.yaml, .yml or .toml)"`
	Output         string `short:"o" help:"Package path (overrides output.path)"`
	Format         string `short:"f" help:"Package format: sqlite or yaml (overrides output.format)"`
	XSDMode        string `name:"xsd-mode" help:"include_all or types_only (overrides output.xsd_mode)"`
	ResolutionMode string `name:"resolution-mode" help:"resolved or unresolved (overrides output.resolution_mode)"`
	Concurrency    int    `short:"c" default:"8" env:"XSDPACK_CONCURRENCY" help:"Concurrent document loads"`
	Strict         bool   `help:"Fail when references stay unresolved"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct {
	Package  string `arg:"" help:"Package file"`
	Failures bool   `help:"List unresolved references and load failures"`
}

// FindCmd is the "find" subcommand.
type FindCmd struct {
	Package string   `arg:"" help:"Package file"`
	Names   []string `arg:"" help:"Names as {ns}local, prefix:local or local"`
	Kind    string   `short:"k" help:"Restrict to one kind (element, complexType, simpleType, group, attributeGroup)"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Package string `arg:"" help:"Package file"`
	Term    string `arg:"" help:"Search term"`
	Field   string `default:"all" help:"Field to search: all, name, namespace, qualified or documentation"`
	Limit   int    `short:"n" default:"20" help:"Maximum matches"`
}

// SuggestCmd is the "suggest" subcommand.
type SuggestCmd struct {
	Package       string  `arg:"" help:"Package file"`
	Name          string  `arg:"" help:"Name to find neighbours for"`
	Limit         int     `short:"n" default:"5" help:"Maximum suggestions"`
	MinSimilarity float64 `name:"min-similarity" default:"0.6" help:"Minimum similarity between 0 and 1"`
}

// BatchCmd is the "batch" subcommand.
type BatchCmd struct {
	Package     string   `arg:"" help:"Package file"`
	Names       []string `arg:"" optional:"" help:"Names to resolve"`
	File        string   `short:"i" help:"Read names from a file, one per line"`
	Concurrency int      `short:"c" default:"8" help:"Concurrent lookups"`
}

// MergeCmd is the "merge" subcommand.
type MergeCmd struct {
	Output         string   `arg:"" help:"Merged package path"`
	Packages       []string `arg:"" help:"Packages in priority order, highest first"`
	Format         string   `short:"f" default:"sqlite" help:"Package format: sqlite or yaml"`
	Name           string   `help:"Merged package name"`
	FailOnConflict bool     `name:"fail-on-conflict" help:"Fail without writing when conflicts are found"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Package string `arg:"" help:"Package file"`
	Dir     string `arg:"" help:"Destination directory"`
}
