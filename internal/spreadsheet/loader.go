// Package spreadsheet reads the contact list from an xlsx or csv file.
//
// The first row is the header and must name the columns Name, Surname and
// Phone; Email is optional. Header names are matched case-insensitively after
// trimming. Every following non-blank row becomes one contact, in file order.
package spreadsheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pedrosilva/notifier/internal/contact"
	"github.com/pedrosilva/notifier/internal/errors"
)

// Column headers
const (
	ColumnName    = "Name"
	ColumnSurname = "Surname"
	ColumnPhone   = "Phone"
	ColumnEmail   = "Email"
)

var requiredColumns = []string{ColumnName, ColumnSurname, ColumnPhone}

// Loader loads contacts from a file. The orchestrator depends on this
// interface so bypass mode can be verified to never touch the file system.
type Loader interface {
	Load(path string) ([]*contact.Contact, error)
}

// FileLoader is the Loader backed by the local file system.
type FileLoader struct{}

// Load implements Loader.
func (FileLoader) Load(path string) ([]*contact.Contact, error) {
	return Load(path)
}

// Load reads path and returns its contacts. The format is chosen by file
// extension. Any problem is a file-parsing error and no partial list is returned.
func Load(path string) ([]*contact.Contact, error) {
	var (
		rows [][]string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, errors.ParseError(fmt.Errorf("unsupported spreadsheet format %q", ext), path)
	}
	if err != nil {
		return nil, errors.ParseError(err, path)
	}

	contacts, err := parseRows(rows)
	if err != nil {
		return nil, errors.ParseError(err, path)
	}
	return contacts, nil
}

// parseRows maps the header row to columns and builds one contact per data row.
// Reported row numbers are 1-based like spreadsheet applications show them.
func parseRows(rows [][]string) ([]*contact.Contact, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty, expected header row with %s", strings.Join(requiredColumns, ", "))
	}

	columns := indexHeader(rows[0])
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing column(s) %s in header row", strings.Join(missing, ", "))
	}

	contacts := make([]*contact.Contact, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNumber := i + 2
		if isBlank(row) {
			continue
		}

		for _, name := range requiredColumns {
			if strings.TrimSpace(cell(row, columns[name])) == "" {
				return nil, fmt.Errorf("row %d: empty %s", rowNumber, name)
			}
		}

		c := &contact.Contact{
			Firstname: cell(row, columns[ColumnName]),
			Surname:   cell(row, columns[ColumnSurname]),
			Phone:     cell(row, columns[ColumnPhone]),
		}
		if idx, ok := columns[ColumnEmail]; ok {
			c.Email = strings.TrimSpace(cell(row, idx))
		}
		contacts = append(contacts, c)
	}

	return contacts, nil
}

// indexHeader maps canonical column names to their position.
func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, name := range []string{ColumnName, ColumnSurname, ColumnPhone, ColumnEmail} {
			if _, seen := columns[name]; !seen && strings.EqualFold(h, name) {
				columns[name] = i
			}
		}
	}
	return columns
}

// cell returns the value at idx; rows may be shorter than the header.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
