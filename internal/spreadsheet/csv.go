package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"os"
)

// readCSV returns all records of a comma-separated file. Records may have
// differing field counts; short rows are padded by cell().
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}
