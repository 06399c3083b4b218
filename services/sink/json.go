package sink

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"sjsage522/propertyworker/internal/scraper"
	"sjsage522/propertyworker/logger"
	errs "sjsage522/propertyworker/pkg/errors"
)

// JSONSink writes the full corpus as an indented JSON array once, at the end
// of a run.
type JSONSink struct {
	dir  string
	name string
	log  *logger.Logger
}

// NewJSONSink creates a sink writing to dir/name, creating dir if needed.
func NewJSONSink(dir, name string) (*JSONSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.NewStorage("json", "failed to create output directory", err)
	}
	return &JSONSink{
		dir:  dir,
		name: name,
		log:  logger.ForSink("json"),
	}, nil
}

// Path returns the destination file path.
func (j *JSONSink) Path() string {
	return filepath.Join(j.dir, j.name)
}

// WriteSnapshot serializes all projects as an array of objects with 2-space
// indentation. HTML escaping stays off so wide-character text survives
// verbatim.
func (j *JSONSink) WriteSnapshot(projects []scraper.Project) error {
	if projects == nil {
		projects = []scraper.Project{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(projects); err != nil {
		j.log.Error().Err(err).Msg("JSON snapshot encode error")
		return err
	}

	if err := os.WriteFile(j.Path(), buf.Bytes(), 0644); err != nil {
		j.log.Error().Err(err).Str("path", j.Path()).Msg("JSON snapshot write error")
		return err
	}
	return nil
}
