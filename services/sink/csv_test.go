package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sjsage522/propertyworker/internal/scraper"
)

func testProjects() []scraper.Project {
	return []scraper.Project{
		{Name: "Alpha", Developer: "Dev A", PriceRange: "₹40 L", Units: "100",
			Brochure: "a.pdf", TotalArea: "5 Acres", FloorPlan: "2BHK", RERANumber: "P521001"},
		{Name: "Beta", Developer: "Dev B", FloorPlan: "1BHK, 2BHK", RERANumber: "Not Available"},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	return rows
}

func TestWriteBatchEmptyIsNoOp(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)

	assert.True(t, s.WriteBatch(nil, ModeAppend))

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "empty batch must not touch the file")
}

func TestWriteBatchWriteMode(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)

	assert.True(t, s.WriteBatch(testProjects(), ModeWrite))

	rows := readCSV(t, s.Path())
	assert.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"Alpha", "Dev A", "₹40 L", "100", "a.pdf", "5 Acres", "2BHK", "P521001"}, rows[1])
	assert.Equal(t, "Beta", rows[2][0])
}

func TestWriteBatchAppendWritesHeaderOnEmptyFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)

	// Append into a file that does not exist yet still yields a header
	assert.True(t, s.WriteBatch(testProjects(), ModeAppend))

	rows := readCSV(t, s.Path())
	assert.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
}

func TestWriteBatchAppendNoDuplicateHeader(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)

	assert.True(t, s.WriteBatch(testProjects(), ModeWrite))
	assert.True(t, s.WriteBatch(testProjects(), ModeAppend))

	rows := readCSV(t, s.Path())
	assert.Len(t, rows, 5, "one header plus four data rows")

	headerCount := 0
	for _, row := range rows {
		if row[0] == "Name" {
			headerCount++
		}
	}
	assert.Equal(t, 1, headerCount)
}

func TestWriteBatchWriteModeTruncates(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)

	assert.True(t, s.WriteBatch(testProjects(), ModeWrite))
	assert.True(t, s.WriteBatch(testProjects()[:1], ModeWrite))

	rows := readCSV(t, s.Path())
	assert.Len(t, rows, 2)
}

func TestBackupExisting(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)

	// Nothing to back up yet
	_, ok := s.BackupExisting()
	assert.False(t, ok)

	assert.True(t, s.WriteBatch(testProjects(), ModeWrite))

	backup, ok := s.BackupExisting()
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(filepath.Base(backup), "backup_"))
	assert.True(t, strings.HasSuffix(backup, "projects.csv"))

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "original file should be renamed away")

	_, statErr = os.Stat(backup)
	assert.NoError(t, statErr)
}

func TestRecordCount(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)

	assert.True(t, s.WriteBatch(testProjects(), ModeWrite))

	count, err := s.RecordCount()
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWriteBatchFailureReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)

	// Make the destination path unwritable by turning it into a directory
	assert.NoError(t, os.Mkdir(s.Path(), 0755))

	assert.False(t, s.WriteBatch(testProjects(), ModeWrite))
}
