package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sjsage522/propertyworker/internal/scraper"
	"sjsage522/propertyworker/logger"
	errs "sjsage522/propertyworker/pkg/errors"
)

// csvHeader is the fixed column set and ordering of the tabular output.
// Every row written must follow it exactly.
var csvHeader = []string{
	"Name", "Developer Name", "Price Range", "No of units",
	"Brochure", "Total Acres", "Floor Plan", "RERA Number",
}

// CSVSink appends batches of projects to a CSV file. The mutex serializes
// writers should a future caller invoke WriteBatch from multiple goroutines.
type CSVSink struct {
	mu   sync.Mutex
	dir  string
	name string
	log  *logger.Logger
}

// NewCSVSink creates a sink writing to dir/name, creating dir if needed.
func NewCSVSink(dir, name string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.NewStorage("csv", "failed to create output directory", err)
	}
	return &CSVSink{
		dir:  dir,
		name: name,
		log:  logger.ForSink("csv"),
	}, nil
}

// Path returns the destination file path.
func (c *CSVSink) Path() string {
	return filepath.Join(c.dir, c.name)
}

// BackupExisting renames a leftover output file from a previous run to a
// timestamped backup name. It reports the backup path and whether a rename
// happened.
func (c *CSVSink) BackupExisting() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.Path()
	if _, err := os.Stat(path); err != nil {
		return "", false
	}

	backup := filepath.Join(c.dir, fmt.Sprintf("backup_%d_%s", time.Now().Unix(), c.name))
	if err := os.Rename(path, backup); err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("Failed to back up existing CSV")
		return "", false
	}
	return backup, true
}

// WriteBatch writes one row per project in the fixed column order. An empty
// batch is a successful no-op. A header row is written when opening in write
// mode or when the file is empty. Any I/O failure is logged and returns
// false; it never propagates.
func (c *CSVSink) WriteBatch(projects []scraper.Project, mode WriteMode) bool {
	if len(projects) == 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	flags := os.O_CREATE | os.O_WRONLY
	if mode == ModeWrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(c.Path(), flags, 0644)
	if err != nil {
		c.log.Error().Err(err).Str("path", c.Path()).Msg("CSV open error")
		return false
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if mode == ModeWrite || fileIsEmpty(f) {
		if err := w.Write(csvHeader); err != nil {
			c.log.Error().Err(err).Msg("CSV header write error")
			return false
		}
	}

	for _, p := range projects {
		row := []string{
			p.Name, p.Developer, p.PriceRange, p.Units,
			p.Brochure, p.TotalArea, p.FloorPlan, p.RERANumber,
		}
		if err := w.Write(row); err != nil {
			c.log.Error().Err(err).Msg("CSV row write error")
			return false
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		c.log.Error().Err(err).Msg("CSV flush error")
		return false
	}
	return true
}

// RecordCount counts data rows in the output file, excluding the header.
func (c *CSVSink) RecordCount() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.Path())
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	count := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}
	if count > 0 {
		count--
	}
	return count, nil
}

func fileIsEmpty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Size() == 0
}
