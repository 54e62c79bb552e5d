package ports

import "io"

// Sheet is a decoded spreadsheet: canonical headers and one map per data row.
type Sheet struct {
	Headers []string
	Rows    []map[string]string
}

// Has reports whether the sheet has a column named header.
func (s *Sheet) Has(header string) bool {
	for _, h := range s.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// SheetCodec reads and writes tabular files.
type SheetCodec interface {
	Decode(r io.Reader) (*Sheet, error)
	Encode(w io.Writer, s *Sheet) error
}
