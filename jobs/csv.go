package jobs

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// readRecords parses CSV content into a header map and data rows. Files
// exported from desk spreadsheets are frequently Windows-1252; anything
// that is not valid UTF-8 is transcoded first.
func readRecords(data []byte) ([]map[string]string, error) {
	if !utf8.Valid(data) {
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder()))
		if err != nil {
			return nil, fmt.Errorf("jobs: transcode csv: %w", err)
		}
		data = decoded
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	// Spreadsheets exported with a regional list separator use semicolons.
	if headerLine, _, ok := bytes.Cut(data, []byte("\n")); ok || len(headerLine) > 0 {
		if bytes.Count(headerLine, []byte(";")) > bytes.Count(headerLine, []byte(",")) {
			reader.Comma = ';'
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("jobs: read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("jobs: read csv row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
