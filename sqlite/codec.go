package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fwojciec/xsdpack"
)

// Header is the magic prefix of every SQLite database file.
var Header = []byte("SQLite format 3\x00")

// Meta keys.
const (
	metaMarker         = "marker"
	metaVersion        = "format_version"
	metaXSDMode        = "xsd_mode"
	metaResolutionMode = "resolution_mode"
	metaID             = "id"
	metaName           = "name"
	metaPackageVersion = "version"
	metaDescription    = "description"
	metaCreatedAt      = "created_at"
	metaExtra          = "extra"
)

// Compile-time interface verification.
var _ xsdpack.PackageCodec = (*Codec)(nil)

// Codec implements xsdpack.PackageCodec for the binary-native format.
type Codec struct{}

// NewCodec creates a new Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Format returns xsdpack.FormatSQLite.
func (c *Codec) Format() xsdpack.Format {
	return xsdpack.FormatSQLite
}

// Sniff reports whether header starts with the SQLite magic string.
func (c *Codec) Sniff(header []byte) bool {
	return bytes.HasPrefix(header, Header)
}

// WritePackage writes pkg to a fresh database at path.
func (c *Codec) WritePackage(ctx context.Context, path string, pkg *xsdpack.Package) error {
	if pkg == nil {
		return xsdpack.Errorf(xsdpack.EINVALID, "nil package")
	}
	if err := pkg.Validate(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	db := NewDB(path)
	if err := db.Open(); err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := writeMeta(ctx, tx, pkg); err != nil {
		return err
	}
	if err := writeSettings(ctx, tx, pkg); err != nil {
		return err
	}
	if err := writeDocuments(ctx, tx, pkg); err != nil {
		return err
	}
	if err := writeResolution(ctx, tx, pkg); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return db.Close()
}

func writeMeta(ctx context.Context, tx *sql.Tx, pkg *xsdpack.Package) error {
	extra, err := json.Marshal(pkg.Metadata.Extra)
	if err != nil {
		return err
	}
	meta := [][2]string{
		{metaMarker, pkg.Marker},
		{metaVersion, strconv.Itoa(pkg.Version)},
		{metaXSDMode, string(pkg.XSDMode)},
		{metaResolutionMode, string(pkg.ResolutionMode)},
		{metaID, pkg.Metadata.ID},
		{metaName, pkg.Metadata.Name},
		{metaPackageVersion, pkg.Metadata.Version},
		{metaDescription, pkg.Metadata.Description},
		{metaCreatedAt, pkg.Metadata.CreatedAt.UTC().Format(time.RFC3339Nano)},
		{metaExtra, string(extra)},
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to write meta %s: %w", kv[0], err)
		}
	}
	return nil
}

func writeSettings(ctx context.Context, tx *sql.Tx, pkg *xsdpack.Package) error {
	for i, ep := range pkg.EntryPoints {
		if _, err := tx.ExecContext(ctx, `INSERT INTO entry_points (position, location) VALUES (?, ?)`, i, ep); err != nil {
			return err
		}
	}
	for i, ns := range pkg.Namespaces {
		if _, err := tx.ExecContext(ctx, `INSERT INTO namespaces (position, prefix, uri) VALUES (?, ?, ?)`,
			i, ns.Prefix, ns.URI); err != nil {
			return err
		}
	}
	for i, m := range pkg.Mappings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mappings (position, from_location, to_location, pattern)
			VALUES (?, ?, ?, ?)
		`, i, m.From, m.To, boolInt(m.Pattern)); err != nil {
			return err
		}
	}
	return nil
}

func writeDocuments(ctx context.Context, tx *sql.Tx, pkg *xsdpack.Package) error {
	for i, doc := range pkg.Documents {
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", doc.Path, err)
		}
		chameleon, isChameleon := pkg.Chameleons[doc.Path]
		src, hasSource := pkg.Sources[doc.Path]
		var markup []byte
		if pkg.XSDMode == xsdpack.XSDModeIncludeAll {
			markup = doc.Markup
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (position, path, target_namespace, body, markup, content_hash,
				chameleon_namespace, source_package, source_priority)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, i, doc.Path, doc.TargetNamespace, string(body), markup, doc.ContentHash,
			nullString(chameleon, isChameleon), nullString(src.PackagePath, hasSource), src.Priority); err != nil {
			return fmt.Errorf("failed to write document %s: %w", doc.Path, err)
		}
	}
	return nil
}

func writeResolution(ctx context.Context, tx *sql.Tx, pkg *xsdpack.Package) error {
	if pkg.ResolutionMode != xsdpack.ResolutionResolved {
		return nil
	}
	for i, rec := range pkg.Index {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO index_entries (position, kind, namespace, local_name, origin, priority, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, i, rec.Kind.String(), rec.Name.Namespace, rec.Name.Local, rec.Origin, rec.Priority, rec.Source); err != nil {
			return fmt.Errorf("failed to write index entry %s: %w", rec.Name, err)
		}
	}
	for i, f := range pkg.Failures {
		suggestions, err := json.Marshal(f.Suggestions)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO failures (position, document, site, attr, reference, namespace, local_name, suggestions)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, i, f.Document, f.Site, f.Attr, f.Reference, f.Name.Namespace, f.Name.Local, string(suggestions)); err != nil {
			return err
		}
	}
	for i, d := range pkg.Duplicates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO duplicates (position, kind, namespace, local_name, kept, replaced)
			VALUES (?, ?, ?, ?, ?, ?)
		`, i, d.Kind.String(), d.Name.Namespace, d.Name.Local, d.Kept, d.Replaced); err != nil {
			return err
		}
	}
	return nil
}

// ReadPackage reads the package stored at path. Files that are not
// SQLite databases, or databases without package tables, fail with an
// *xsdpack.InvalidPackageError.
func (c *Codec) ReadPackage(ctx context.Context, path string) (*xsdpack.Package, error) {
	if err := c.checkHeader(path); err != nil {
		return nil, err
	}

	db := NewDB(path)
	db.ReadOnly = true
	if err := db.Open(); err != nil {
		return nil, invalid(path, "cannot open database", err)
	}
	defer db.Close()

	pkg, err := readPackage(ctx, db)
	if err != nil {
		var pkgErr *xsdpack.InvalidPackageError
		if errors.As(err, &pkgErr) || ctx.Err() != nil {
			return nil, err
		}
		return nil, invalid(path, "corrupt package", err)
	}
	if err := pkg.Validate(); err != nil {
		return nil, invalid(path, "unsupported package", err)
	}
	return pkg, nil
}

func (c *Codec) checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &xsdpack.LocationNotFoundError{Location: path, Err: err}
		}
		return err
	}
	defer f.Close()

	header := make([]byte, len(Header))
	if _, err := io.ReadFull(f, header); err != nil || !c.Sniff(header) {
		return invalid(path, "not a SQLite database", nil)
	}
	return nil
}

func invalid(path, reason string, err error) error {
	return &xsdpack.InvalidPackageError{Path: path, Reason: reason, Err: err}
}

func readPackage(ctx context.Context, db *DB) (*xsdpack.Package, error) {
	meta, err := readMeta(ctx, db)
	if err != nil {
		return nil, err
	}
	version, err := strconv.Atoi(meta[metaVersion])
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", metaVersion, err)
	}
	createdAt, err := parseRFC3339(meta[metaCreatedAt], metaCreatedAt)
	if err != nil {
		return nil, err
	}
	pkg := &xsdpack.Package{
		Marker:         meta[metaMarker],
		Version:        version,
		XSDMode:        xsdpack.XSDMode(meta[metaXSDMode]),
		ResolutionMode: xsdpack.ResolutionMode(meta[metaResolutionMode]),
		Metadata: xsdpack.PackageMetadata{
			ID:          meta[metaID],
			Name:        meta[metaName],
			Version:     meta[metaPackageVersion],
			Description: meta[metaDescription],
			CreatedAt:   createdAt,
		},
	}
	if extra := meta[metaExtra]; extra != "" {
		if err := json.Unmarshal([]byte(extra), &pkg.Metadata.Extra); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", metaExtra, err)
		}
	}

	if err := readSettings(ctx, db, pkg); err != nil {
		return nil, err
	}
	if err := readDocuments(ctx, db, pkg); err != nil {
		return nil, err
	}
	if pkg.ResolutionMode == xsdpack.ResolutionResolved {
		if err := readResolution(ctx, db, pkg); err != nil {
			return nil, err
		}
	}
	return pkg, nil
}

func readMeta(ctx context.Context, db *DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func readSettings(ctx context.Context, db *DB, pkg *xsdpack.Package) error {
	rows, err := db.QueryContext(ctx, `SELECT location FROM entry_points ORDER BY position`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var ep string
		if err := rows.Scan(&ep); err != nil {
			rows.Close()
			return err
		}
		pkg.EntryPoints = append(pkg.EntryPoints, ep)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT prefix, uri FROM namespaces ORDER BY position`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var ns xsdpack.NamespaceMapping
		if err := rows.Scan(&ns.Prefix, &ns.URI); err != nil {
			rows.Close()
			return err
		}
		pkg.Namespaces = append(pkg.Namespaces, ns)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `SELECT from_location, to_location, pattern FROM mappings ORDER BY position`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m xsdpack.SchemaLocationMapping
		var pattern int
		if err := rows.Scan(&m.From, &m.To, &pattern); err != nil {
			return err
		}
		m.Pattern = pattern != 0
		pkg.Mappings = append(pkg.Mappings, m)
	}
	return rows.Err()
}

func readDocuments(ctx context.Context, db *DB, pkg *xsdpack.Package) error {
	rows, err := db.QueryContext(ctx, `
		SELECT path, body, markup, content_hash, chameleon_namespace, source_package, source_priority
		FROM documents
		ORDER BY position
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			path, body, hash  string
			markup            []byte
			chameleon, source sql.NullString
			priority          int
		)
		if err := rows.Scan(&path, &body, &markup, &hash, &chameleon, &source, &priority); err != nil {
			return err
		}
		var doc xsdpack.SchemaDocument
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return fmt.Errorf("failed to decode document %s: %w", path, err)
		}
		doc.Path = path
		doc.ContentHash = hash
		if len(markup) > 0 {
			doc.Markup = markup
		}
		if chameleon.Valid {
			if pkg.Chameleons == nil {
				pkg.Chameleons = make(map[string]string)
			}
			pkg.Chameleons[path] = chameleon.String
		}
		if source.Valid {
			if pkg.Sources == nil {
				pkg.Sources = make(map[string]xsdpack.DocumentSource)
			}
			pkg.Sources[path] = xsdpack.DocumentSource{PackagePath: source.String, Priority: priority}
		}
		pkg.Documents = append(pkg.Documents, &doc)
	}
	return rows.Err()
}

func readResolution(ctx context.Context, db *DB, pkg *xsdpack.Package) error {
	rows, err := db.QueryContext(ctx, `
		SELECT kind, namespace, local_name, origin, priority, source
		FROM index_entries
		ORDER BY position
	`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var rec xsdpack.IndexRecord
		var kind string
		if err := rows.Scan(&kind, &rec.Name.Namespace, &rec.Name.Local, &rec.Origin, &rec.Priority, &rec.Source); err != nil {
			rows.Close()
			return err
		}
		if rec.Kind, err = xsdpack.ParseKind(kind); err != nil {
			rows.Close()
			return err
		}
		pkg.Index = append(pkg.Index, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `
		SELECT document, site, attr, reference, namespace, local_name, suggestions
		FROM failures
		ORDER BY position
	`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var f xsdpack.ResolutionFailure
		var suggestions string
		if err := rows.Scan(&f.Document, &f.Site, &f.Attr, &f.Reference, &f.Name.Namespace, &f.Name.Local, &suggestions); err != nil {
			rows.Close()
			return err
		}
		if err := json.Unmarshal([]byte(suggestions), &f.Suggestions); err != nil {
			rows.Close()
			return fmt.Errorf("failed to decode suggestions: %w", err)
		}
		pkg.Failures = append(pkg.Failures, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, `
		SELECT kind, namespace, local_name, kept, replaced
		FROM duplicates
		ORDER BY position
	`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var d xsdpack.Duplicate
		var kind string
		if err := rows.Scan(&kind, &d.Name.Namespace, &d.Name.Local, &d.Kept, &d.Replaced); err != nil {
			return err
		}
		if d.Kind, err = xsdpack.ParseKind(kind); err != nil {
			return err
		}
		pkg.Duplicates = append(pkg.Duplicates, d)
	}
	return rows.Err()
}
