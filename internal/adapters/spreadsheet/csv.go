// Package spreadsheet reads and writes CSV sheets with normalized headers.
package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// aliases maps normalized header spellings to canonical column names.
var aliases = map[string]string{
	"sku":            "code",
	"product_sku":    "product_code",
	"item_code":      "product_code",
	"qty":            "quantity",
	"price_per_unit": "unit_price",
	"cost":           "unit_price",
	"date":           "occurred_at",
	"time":           "occurred_at",
	"occurred":       "occurred_at",
	"direction":      "type",
	"kind":           "type",
	"month":          "period",
	"opening":        "opening_stock",
	"in":             "stock_in",
	"out":            "stock_out",
	"ending":         "ending_stock",
	"closing_stock":  "ending_stock",
	"safety":         "safety_stock",
	"min_stock":      "safety_stock",
	"specification":  "spec",
	"notes":          "note",
	"remarks":        "remark",
	"warehouse":      "location",
}

// CSVCodec implements ports.SheetCodec for comma-separated files.
type CSVCodec struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

var _ ports.SheetCodec = CSVCodec{}

// NewCSVCodec returns a comma-delimited codec.
func NewCSVCodec() CSVCodec {
	return CSVCodec{Comma: ','}
}

// Decode reads a sheet. The first non-empty record is the header row.
// Cells are trimmed; short rows are padded with empty cells.
func (c CSVCodec) Decode(r io.Reader) (*ports.Sheet, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = c.comma()
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: sheet is empty", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	headers := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if name != "" && seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q", domain.ErrInvalidInput, name)
		}
		seen[name] = true
		headers[i] = name
	}

	sheet := &ports.Sheet{Headers: compact(headers)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(sheet.Rows)+2, err)
		}
		row := make(map[string]string, len(headers))
		for i, name := range headers {
			if name == "" {
				continue
			}
			if i < len(rec) {
				row[name] = strings.TrimSpace(rec[i])
			} else {
				row[name] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// Encode writes the header row followed by every row, in header order.
func (c CSVCodec) Encode(w io.Writer, s *ports.Sheet) error {
	cw := csv.NewWriter(w)
	cw.Comma = c.comma()

	if err := cw.Write(s.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(s.Headers))
	for _, row := range s.Rows {
		for i, h := range s.Headers {
			rec[i] = row[h]
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (c CSVCodec) comma() rune {
	if c.Comma == 0 {
		return ','
	}
	return c.Comma
}

// NormalizeHeader lowercases h, converts camelCase and separators to
// snake_case and resolves known aliases.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, string(utf8BOM)))

	var b strings.Builder
	prevLower := false
	for _, r := range h {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '/' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	name := strings.Trim(b.String(), "_")
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

func compact(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}
