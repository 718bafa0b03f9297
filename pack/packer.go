// Package pack writes, reads and merges package files, choosing a codec by
// format on write and by file header on read.
package pack

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/xsdpack"
	"github.com/fwojciec/xsdpack/fs"
	"github.com/fwojciec/xsdpack/resolve"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// headerSize is how many leading bytes are offered to codec sniffers.
const headerSize = 64

// Repository is the part of a repository a Packer writes from.
type Repository interface {
	Parse(ctx context.Context) error
	Resolve(ctx context.Context, opts ...resolve.ResolveOption) error
	Package(opts xsdpack.PackageOptions) (*xsdpack.Package, error)
}

// Compile-time interface verification.
var _ Repository = (*resolve.Repository)(nil)

// Source is a package file taking part in a merge.
type Source struct {
	Path     string
	Priority int
}

// Packer writes and reads package files through a set of codecs.
type Packer struct {
	codecs []xsdpack.PackageCodec
	logger *slog.Logger

	// RepositoryOptions are applied to repositories restored by Load and Merge.
	RepositoryOptions []resolve.Option

	// NewID returns package ids for packages written without one.
	NewID func() string
}

// NewPacker creates a Packer over codecs. Read tries codecs in order.
func NewPacker(logger *slog.Logger, codecs ...xsdpack.PackageCodec) *Packer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Packer{
		codecs: codecs,
		logger: logger,
		NewID:  uuid.NewString,
	}
}

// Codec returns the codec for format.
func (p *Packer) Codec(format xsdpack.Format) (xsdpack.PackageCodec, error) {
	for _, c := range p.codecs {
		if c.Format() == format {
			return c, nil
		}
	}
	return nil, xsdpack.Errorf(xsdpack.EINVALID, "unsupported package format %q", format)
}

// Write builds the package of repo and writes it to path atomically:
// a failed write leaves no file, or the previous file untouched. The
// repository is parsed, and resolved for resolved packages, first.
func (p *Packer) Write(ctx context.Context, repo Repository, path string, opts xsdpack.PackageOptions) (*xsdpack.Package, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, xsdpack.Errorf(xsdpack.EINVALID, "package path required")
	}
	codec, err := p.Codec(opts.Format)
	if err != nil {
		return nil, err
	}

	if opts.ResolutionMode == xsdpack.ResolutionResolved {
		err = repo.Resolve(ctx)
	} else {
		err = repo.Parse(ctx)
	}
	if err != nil {
		return nil, err
	}
	if opts.Metadata.ID == "" {
		opts.Metadata.ID = p.NewID()
	}
	pkg, err := repo.Package(opts)
	if err != nil {
		return nil, err
	}

	begin := time.Now()
	f, err := fs.NewAtomicFile(path)
	if err != nil {
		return nil, err
	}
	if err := codec.WritePackage(ctx, f.TempPath(), pkg); err != nil {
		_ = f.Abort()
		return nil, err
	}
	if err := f.Commit(); err != nil {
		_ = f.Abort()
		return nil, err
	}
	p.logger.Info("wrote package",
		"path", path,
		"format", opts.Format,
		"xsd_mode", pkg.XSDMode,
		"resolution_mode", pkg.ResolutionMode,
		"documents", len(pkg.Documents),
		"duration", time.Since(begin),
	)
	return pkg, nil
}

// Read reads the package at path with the first codec whose Sniff accepts
// the file header. Unknown content fails with an *xsdpack.InvalidPackageError.
func (p *Packer) Read(ctx context.Context, path string) (*xsdpack.Package, error) {
	header, err := readHeader(path)
	if err != nil {
		return nil, err
	}
	for _, c := range p.codecs {
		if c.Sniff(header) {
			p.logger.Debug("reading package", "path", path, "format", c.Format())
			return c.ReadPackage(ctx, path)
		}
	}
	return nil, &xsdpack.InvalidPackageError{Path: path, Reason: "unrecognized package format"}
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &xsdpack.LocationNotFoundError{Location: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return header[:n], nil
}

// Load reads the package at path and restores its repository.
func (p *Packer) Load(ctx context.Context, path string) (*resolve.Repository, error) {
	pkg, err := p.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return resolve.FromPackage(pkg, p.RepositoryOptions...)
}

// Merge reads every source package concurrently and merges them.
func (p *Packer) Merge(ctx context.Context, sources []Source) (*resolve.Repository, *resolve.MergeReport, error) {
	if len(sources) == 0 {
		return nil, nil, xsdpack.Errorf(xsdpack.EINVALID, "at least one package required to merge")
	}

	merge := make([]resolve.MergeSource, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			pkg, err := p.Read(gctx, src.Path)
			if err != nil {
				return err
			}
			merge[i] = resolve.MergeSource{Path: src.Path, Priority: src.Priority, Package: pkg}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return resolve.Merge(ctx, merge, p.RepositoryOptions...)
}
