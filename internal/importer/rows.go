// Package importer loads hand-maintained tracker rows from YAML or XLSX and
// writes them as companies, postings and tracker entries.
package importer

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"
)

// Row is one tracker row. Company is required; the rest is optional.
type Row struct {
	ExternalID string `yaml:"external_id" json:"external_id,omitempty"`
	Company    string `yaml:"company" json:"company"`
	Domain     string `yaml:"domain" json:"domain,omitempty"`
	Title      string `yaml:"title" json:"title,omitempty"`
	Status     string `yaml:"status" json:"status,omitempty"`
	Location   string `yaml:"location" json:"location,omitempty"`
}

type rowsDocument struct {
	Rows []Row `yaml:"rows"`
}

// LoadFile reads rows from path, choosing the format by extension. opts
// applies to spreadsheets only.
func LoadFile(path string, opts XLSXOptions) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "importer: open file")
		}
		defer f.Close() //nolint:errcheck
		return ParseYAML(f)
	case ".xlsx":
		return ReadXLSX(path, opts)
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

// ParseYAML decodes rows from either a top-level sequence or a mapping with
// a "rows" key.
func ParseYAML(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "importer: read yaml")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, eris.Wrap(err, "importer: parse yaml")
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	switch node.Content[0].Kind {
	case yaml.SequenceNode:
		var rows []Row
		if err := node.Content[0].Decode(&rows); err != nil {
			return nil, eris.Wrap(err, "importer: decode rows")
		}
		return rows, nil
	case yaml.MappingNode:
		var doc rowsDocument
		if err := node.Content[0].Decode(&doc); err != nil {
			return nil, eris.Wrap(err, "importer: decode rows")
		}
		return doc.Rows, nil
	default:
		return nil, eris.New("importer: yaml must be a list of rows or a mapping with rows")
	}
}

// XLSXOptions selects the worksheet to import.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// headerFields maps normalized header cells onto Row fields.
var headerFields = map[string]string{
	"external_id":  "external_id",
	"id":           "external_id",
	"company":      "company",
	"company_name": "company",
	"employer":     "company",
	"domain":       "domain",
	"website":      "domain",
	"title":        "title",
	"job_title":    "title",
	"position":     "title",
	"role":         "title",
	"status":       "status",
	"stage":        "status",
	"location":     "location",
	"city":         "location",
}

// ReadXLSX reads rows from a worksheet whose first row is a header. Unknown
// columns are ignored; a sheet without a company column is an error.
func ReadXLSX(path string, opts XLSXOptions) ([]Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	cols := make(map[int]string)
	hasCompany := false
	for i, h := range rowToStrings(sheet.Rows[0]) {
		field, ok := headerFields[normalizeHeader(h)]
		if !ok {
			continue
		}
		cols[i] = field
		if field == "company" {
			hasCompany = true
		}
	}
	if !hasCompany {
		return nil, eris.Errorf("importer: sheet %q has no company column", sheet.Name)
	}

	var rows []Row
	for _, xr := range sheet.Rows[1:] {
		var row Row
		blank := true
		for i, cell := range rowToStrings(xr) {
			field, ok := cols[i]
			if !ok {
				continue
			}
			v := strings.TrimSpace(cell)
			if v != "" {
				blank = false
			}
			switch field {
			case "external_id":
				row.ExternalID = v
			case "company":
				row.Company = v
			case "domain":
				row.Domain = v
			case "title":
				row.Title = v
			case "status":
				row.Status = v
			case "location":
				row.Location = v
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("importer: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
