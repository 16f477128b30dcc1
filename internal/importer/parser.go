// Package importer turns contact CSV exports into client import rows.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	enc "github.com/MrJamesThe3rd/invoicer/internal/encoding"
)

const sniffLines = 10

// Parsed is the outcome of reading one CSV file.
type Parsed struct {
	Profile string
	Charset enc.Charset
	Rows    []client.ImportRow
}

// Parser reads CSV files separated by ',' or ';' in any charset the
// encoding package can detect. The header row is located by matching it
// against the known profiles, so preamble lines above it are ignored.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*Parsed, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		profile *Profile
		cols    colIndex
		rows    []client.ImportRow
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, apperr.Validation("Malformed CSV: %v", err)
		}

		line, _ := reader.FieldPos(0)

		if profile == nil {
			profile, cols = detectProfile(record)
			continue
		}

		if blank(record) {
			continue
		}

		rows = append(rows, client.ImportRow{Line: line, Details: cols.details(record)})
	}

	if profile == nil {
		return nil, apperr.Validation("No recognised header row: expected at least name and email columns")
	}

	return &Parsed{Profile: profile.Name, Charset: charset, Rows: rows}, nil
}

// detectSeparator picks ';' when the first lines hold more semicolons than
// commas.
func detectSeparator(data []byte) rune {
	var semicolons, commas, seen int

	for line := range bytes.Lines(data) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		semicolons += bytes.Count(line, []byte{';'})
		commas += bytes.Count(line, []byte{','})

		if seen++; seen == sniffLines {
			break
		}
	}

	if semicolons > commas {
		return ';'
	}

	return ','
}

// colIndex maps profile fields to their position in a row.
type colIndex map[field]int

func detectProfile(row []string) (*Profile, colIndex) {
	header := make(map[string]int, len(row))

	for i, cell := range row {
		if name := normalizeHeader(cell); name != "" {
			if _, dup := header[name]; !dup {
				header[name] = i
			}
		}
	}

	for i := range profiles {
		p := &profiles[i]
		if !matches(p, header) {
			continue
		}

		cols := make(colIndex, len(p.Columns))

		for f, name := range p.Columns {
			if idx, ok := header[normalizeHeader(name)]; ok {
				cols[f] = idx
			}
		}

		return p, cols
	}

	return nil, nil
}

func matches(p *Profile, header map[string]int) bool {
	for _, name := range p.requiredCols() {
		if _, ok := header[normalizeHeader(name)]; !ok {
			return false
		}
	}

	return true
}

func (c colIndex) cell(row []string, f field) string {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func (c colIndex) details(row []string) client.Details {
	return client.Details{
		Name:         c.name(row),
		Email:        c.cell(row, fieldEmail),
		Phone:        c.cell(row, fieldPhone),
		AddressLine1: c.cell(row, fieldAddress1),
		AddressLine2: c.cell(row, fieldAddress2),
		City:         c.cell(row, fieldCity),
		State:        c.cell(row, fieldState),
		PostalCode:   c.cell(row, fieldPostalCode),
		Country:      c.cell(row, fieldCountry),
		TaxNumber:    c.cell(row, fieldTaxNumber),
		Notes:        c.cell(row, fieldNotes),
	}
}

// name prefers an explicit name column, then the organisation, then the
// person's first and last name.
func (c colIndex) name(row []string) string {
	if n := c.cell(row, fieldName); n != "" {
		return n
	}

	if org := c.cell(row, fieldOrganization); org != "" {
		return org
	}

	return strings.TrimSpace(c.cell(row, fieldFirstName) + " " + c.cell(row, fieldLastName))
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
