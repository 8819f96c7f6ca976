package service

import (
	"bytes"
	"encoding/csv"
)

// writeCSV renders header+rows with a UTF-8 BOM and CRLF line endings so
// Excel opens the file cleanly.
func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	cw := csv.NewWriter(&buf)
	cw.UseCRLF = true

	if err := cw.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		sanitized := make([]string, len(row))
		for i, field := range row {
			sanitized[i] = sanitizeCSVField(field)
		}
		if err := cw.Write(sanitized); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sanitizeCSVField prevents spreadsheet formula injection.
func sanitizeCSVField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
