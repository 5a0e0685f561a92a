// Package sources resolves the subject to write about and fetches the
// biographical text the pipeline works from.
package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet read from spreadsheet names files when none
// is configured.
const DefaultSheet = "sheet"

// ErrNoSubject is returned when no subject name can be resolved.
var ErrNoSubject = errors.New("sources: no subject name available")

// NameSource yields the subject of the next run.
type NameSource interface {
	Name(ctx context.Context) (string, error)
}

// DocumentSource fetches the plain source text for a subject.
type DocumentSource interface {
	Document(ctx context.Context, subject string) (string, error)
}

// StaticName always returns the same subject.
type StaticName string

// Name implements NameSource.
func (s StaticName) Name(context.Context) (string, error) {
	name := strings.TrimSpace(string(s))
	if name == "" {
		return "", ErrNoSubject
	}
	return name, nil
}

// FileName reads the subject from a names file. Spreadsheets (.xlsx, .xlsm)
// and CSV files use the first value of the "Name" column, or the first
// column when no such header exists; any other file uses its first non-empty
// line.
type FileName struct {
	Path string
	// Sheet selects the worksheet of a spreadsheet. Empty means DefaultSheet,
	// or the first worksheet when the workbook has no sheet of that name.
	Sheet string
}

// Name implements NameSource.
func (f FileName) Name(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".xlsx", ".xlsm":
		name, err := f.spreadsheetName()
		if err != nil {
			return "", err
		}
		if name == "" {
			return "", ErrNoSubject
		}
		return name, nil
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return "", fmt.Errorf("sources: open names file: %w", err)
	}
	defer file.Close()

	var name string
	if strings.EqualFold(filepath.Ext(f.Path), ".csv") {
		name, err = firstCSVName(file)
	} else {
		name, err = firstLine(file)
	}
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrNoSubject
	}
	return name, nil
}

func (f FileName) spreadsheetName() (string, error) {
	book, err := excelize.OpenFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("sources: open names workbook: %w", err)
	}
	defer book.Close()

	sheet := f.Sheet
	if sheet == "" {
		sheet = DefaultSheet
		if !hasSheet(book, sheet) {
			sheet = book.GetSheetName(0)
		}
	}
	if !hasSheet(book, sheet) {
		return "", fmt.Errorf("sources: names workbook has no sheet %q", sheet)
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("sources: read sheet %q: %w", sheet, err)
	}
	return nameFromRows(rows), nil
}

func hasSheet(book *excelize.File, sheet string) bool {
	for _, s := range book.GetSheetList() {
		if s == sheet {
			return true
		}
	}
	return false
}

func firstCSVName(r io.Reader) (string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("sources: read names csv: %w", err)
	}
	return nameFromRows(rows), nil
}

// nameFromRows returns the first non-empty cell of the "Name" column. When
// the first row has no such header it is treated as data and the first
// column is used.
func nameFromRows(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "name") {
			col = i
			break
		}
	}
	data := rows[1:]
	if col < 0 {
		col, data = 0, rows
	}
	for _, row := range data {
		if col < len(row) {
			if v := strings.TrimSpace(row[col]); v != "" {
				return v
			}
		}
	}
	return ""
}

func firstLine(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("sources: read names file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v := strings.TrimSpace(line); v != "" {
			return v, nil
		}
	}
	return "", ErrNoSubject
}
