// Package export serializes result rows to CSV and hands them to a
// destination: a file on disk or the system clipboard.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("export")

// FileName is the name of every downloaded export.
const FileName = "Modified.csv"

// Exporter delivers result rows somewhere outside the application.
type Exporter interface {
	Export(rows []dataset.Record) error
}

// EncodeCSV writes rows as RFC 4180 CSV. The header is the key set of the
// first row and every row is read by name. Null values become empty fields.
func EncodeCSV(w io.Writer, rows []dataset.Record) error {
	if len(rows) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	cols := rows[0].Keys()
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(cols))
	for i, row := range rows {
		for j, col := range cols {
			v, _ := row.Get(col)
			record[j] = v.Text()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FileExporter writes Modified.csv into a directory.
type FileExporter struct {
	Dir string
}

// Path returns the file the exporter writes to.
func (e FileExporter) Path() string {
	return filepath.Join(e.Dir, FileName)
}

// Export replaces Modified.csv with the given rows.
func (e FileExporter) Export(rows []dataset.Record) error {
	if e.Dir != "" {
		if err := os.MkdirAll(e.Dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	path := e.Path()
	tmp, err := os.CreateTemp(filepath.Dir(path), ".Modified-*.csv")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeCSV(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move export file: %w", err)
	}

	log.Infof("exported %d rows to %s", len(rows), path)
	return nil
}

// ClipboardExporter puts the CSV text on the system clipboard.
type ClipboardExporter struct{}

// Export copies rows to the clipboard as CSV.
func (ClipboardExporter) Export(rows []dataset.Record) error {
	var b bytes.Buffer
	if err := EncodeCSV(&b, rows); err != nil {
		return err
	}
	if err := clipboard.WriteAll(b.String()); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	log.Infof("copied %d rows to clipboard", len(rows))
	return nil
}
