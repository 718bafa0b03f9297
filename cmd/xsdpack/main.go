package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/etree"
	"github.com/fwojciec/xsdpack/fs"
	xsdhttp "github.com/fwojciec/xsdpack/http"
	"github.com/fwojciec/xsdpack/pack"
	"github.com/fwojciec/xsdpack/resolve"
	xslog "github.com/fwojciec/xsdpack/slog"
	"github.com/fwojciec/xsdpack/sqlite"
	"github.com/fwojciec/xsdpack/yaml"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Loader retrieves schema documents. Defaults to the file system with
	// an HTTP fallback for remote locations.
	Loader xsdpack.DocumentLoader

	// Parser parses and serializes schema documents.
	Parser xsdpack.DocumentParser

	// Codecs are the package formats the program reads and writes.
	Codecs []xsdpack.PackageCodec
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Parser: etree.NewParser(),
		Codecs: []xsdpack.PackageCodec{sqlite.NewCodec(), yaml.NewCodec()},
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("xsdpack"),
		kong.Description("Load, resolve and package XML Schema sets."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'xsdpack --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.Verbose)

	codecs := make([]xsdpack.PackageCodec, len(m.Codecs))
	for i, c := range m.Codecs {
		codecs[i] = xslog.NewLoggingCodec(c, deps.Logger)
	}
	deps.Packer = pack.NewPacker(deps.Logger, codecs...)
	deps.Packer.RepositoryOptions = []resolve.Option{
		resolve.WithParser(m.Parser),
		resolve.WithLogger(deps.Logger),
	}

	loader := m.Loader
	if loader == nil {
		remote := xsdhttp.NewLoader(
			xsdhttp.WithTimeout(cli.Timeout),
			xsdhttp.WithLimiter(xsdhttp.NewHostLimiter(cli.RateLimit, xsdhttp.WithBurst(cli.RateBurst))),
			xsdhttp.WithRetryDelays(xsdhttp.DefaultRetryDelays()),
			xsdhttp.WithLogger(deps.Logger),
		)
		loader = fs.NewLoader(remote)
	}
	deps.Loader = xslog.NewLoggingLoader(loader, deps.Logger)
	deps.Parser = m.Parser

	return kongCtx.Run(deps)
}

// newLogger returns a slog logger writing leveled, human-readable lines.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "xsdpack",
		ReportTimestamp: verbose,
	})
	return slog.New(handler)
}
