package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Tracker")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "tracker.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestParseYAML_List(t *testing.T) {
	rows, err := ParseYAML(strings.NewReader(`
- external_id: r1
  company: Acme Corp
  domain: acme.com
  title: Backend Engineer
  status: applied
- company: Globex
`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{ExternalID: "r1", Company: "Acme Corp", Domain: "acme.com", Title: "Backend Engineer", Status: "applied"}, rows[0])
	assert.Equal(t, "Globex", rows[1].Company)
}

func TestParseYAML_Mapping(t *testing.T) {
	rows, err := ParseYAML(strings.NewReader("rows:\n  - company: Initech\n    location: Austin\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Austin", rows[0].Location)
}

func TestParseYAML_EmptyAndInvalid(t *testing.T) {
	rows, err := ParseYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ParseYAML(strings.NewReader("just a string"))
	assert.Error(t, err)

	_, err = ParseYAML(strings.NewReader("- [unterminated"))
	assert.Error(t, err)
}

func TestReadXLSX_HeaderAliases(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"ID", "Company Name", "Website", "Job Title", "Stage", "City", "Notes"},
		{"r1", "Acme Corp", "https://acme.com", "SRE", "Interviewing", "Denver", "ignored"},
		{"", "", "", "", "", "", ""},
		{"r2", "Globex", "", "", "", "", ""},
	})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{ExternalID: "r1", Company: "Acme Corp", Domain: "https://acme.com", Title: "SRE", Status: "Interviewing", Location: "Denver"}, rows[0])
	assert.Equal(t, "Globex", rows[1].Company)
}

func TestReadXLSX_NoCompanyColumn(t *testing.T) {
	path := createTestXLSX(t, [][]string{{"Title"}, {"SRE"}})
	_, err := ReadXLSX(path, XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no company column")
}

func TestReadXLSX_SheetNotFound(t *testing.T) {
	path := createTestXLSX(t, [][]string{{"Company"}})
	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.Error(t, err)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "rows.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("- company: Acme\n"), 0o600))

	rows, err := LoadFile(yamlPath, XLSXOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	xlsxPath := createTestXLSX(t, [][]string{{"Company"}, {"Acme"}})
	rows, err = LoadFile(xlsxPath, XLSXOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = LoadFile(filepath.Join(dir, "rows.csv"), XLSXOptions{})
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"), XLSXOptions{})
	assert.Error(t, err)
}
