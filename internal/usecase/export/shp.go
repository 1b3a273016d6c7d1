package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"

	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
)

const (
	shpBase      = "filtered"
	dbfTextWidth = 254
)

// dbf column names are limited to 10 bytes.
var shpFields = []shp.Field{
	shp.StringField("NAME", dbfTextWidth),
	shp.StringField("CLIENT", dbfTextWidth),
	shp.StringField("STATUS", dbfTextWidth),
	shp.StringField("DISTRICT", dbfTextWidth),
	shp.StringField("REFERENCE", dbfTextWidth),
	shp.StringField("STREET", dbfTextWidth),
}

// renderSHP writes a point layer into a private temp dir and zips the
// .shp/.shx/.dbf/.cpg set. Placemarks without geometry get a point at 0,0.
func renderSHP(rows []row) ([]byte, error) {
	dir, err := os.MkdirTemp("", "kmlfilter-shp-*")
	if err != nil {
		return nil, fmt.Errorf("shp temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	base := filepath.Join(dir, shpBase)
	if err := writeShapefile(base, rows); err != nil {
		return nil, err
	}
	if err := fixDBFName(base); err != nil {
		return nil, err
	}
	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0o600); err != nil {
		return nil, fmt.Errorf("shp cpg: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, ext := range []string{".shp", ".shx", ".dbf", ".cpg"} {
		if err := addFile(zw, base+ext, shpBase+ext); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("shp zip close: %w", err)
	}
	return buf.Bytes(), nil
}

func writeShapefile(base string, rows []row) error {
	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return fmt.Errorf("shp create: %w", err)
	}
	defer w.Close()

	if err := w.SetFields(shpFields); err != nil {
		return fmt.Errorf("shp fields: %w", err)
	}

	for _, r := range rows {
		idx := int(w.Write(&shp.Point{X: r.lon, Y: r.lat}))

		attrs := make([]string, 0, len(shpFields))
		attrs = append(attrs, r.name)
		for _, f := range placemark.Fields {
			attrs = append(attrs, r.record.Value(f))
		}
		for i, v := range attrs {
			if err := w.WriteAttribute(idx, i, truncateBytes(v, dbfTextWidth)); err != nil {
				return fmt.Errorf("shp attribute %d of row %d: %w", i, idx, err)
			}
		}
	}
	return nil
}

// fixDBFName moves the attribute table to base+".dbf". go-shp v0.1.1 drops
// the dot and writes it as base+"dbf".
func fixDBFName(base string) error {
	if _, err := os.Stat(base + ".dbf"); err == nil {
		return nil
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return fmt.Errorf("shp dbf: %w", err)
	}
	return nil
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("shp open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("shp zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("shp zip copy %s: %w", name, err)
	}
	return nil
}
