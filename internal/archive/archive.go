// Package archive packs extracted files into ZIP archives and
// delivers them to a sink.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/wesm/chatzip/internal/extract"
)

// DefaultPrefix is the archive name prefix when none is
// configured.
const DefaultPrefix = "chatzip"

// ErrNoFiles is returned when asked to archive nothing.
var ErrNoFiles = errors.New("no files to archive")

// Write streams a ZIP containing files, in order, to w. Entry
// names are the extracted paths; all entries share modTime.
func Write(
	w io.Writer, files []extract.FileEntry, modTime time.Time,
) error {
	if len(files) == 0 {
		return ErrNoFiles
	}

	zw := zip.NewWriter(w)
	for _, f := range files {
		hdr := &zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: modTime,
		}
		hdr.SetMode(0o644)
		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("creating entry %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(entry, f.Content); err != nil {
			return fmt.Errorf("writing entry %s: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// Build returns the ZIP bytes for files.
func Build(
	files []extract.FileEntry, modTime time.Time,
) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, files, modTime); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename returns "<prefix>-YYYY-MM-DD-HH-MM.zip" for t.
func Filename(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "-" + t.Format("2006-01-02-15-04") + ".zip"
}

// Summary describes how many files were saved.
func Summary(n int) string {
	if n == 1 {
		return "Saved 1 file"
	}
	return fmt.Sprintf("Saved %d files", n)
}
