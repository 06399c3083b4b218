package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"sjsage522/propertyworker/internal/scraper"
	"sjsage522/propertyworker/services/sink"
	"sjsage522/propertyworker/services/worker"
)

const testDetailHTML = `<!DOCTYPE html>
<html>
<head><title>Project Detail</title></head>
<body>
	<div class="pdp__header">
		<span class="pdp__header--reraid__id">%s</span>
	</div>
</body>
</html>`

// newTestSite serves a two-page listing API plus the detail pages its
// records point at. Page 1 carries three projects, page 2 is empty.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/mbproject/newProjectCards", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3327", r.URL.Query().Get("city"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageNo") != "1" {
			fmt.Fprint(w, `{"projectsCards": []}`)
			return
		}
		fmt.Fprint(w, `{"projectsCards": [
			{"psmName": "Green Acres", "lmtDName": "Acme Developers",
			 "showPriceRange": "₹45 L - ₹1.2 Cr", "totalUnits": 240,
			 "sblink": "https://example.com/a.pdf", "projArea": "12 Acres",
			 "unitInfo": "2BHK,900sqft|3BHK,1200sqft|2BHK,950sqft",
			 "pdpUrl": "projects/green-acres"},
			{"psmName": "Blue Hills", "lmtDName": "Summit Homes",
			 "totalUnits": "88", "unitInfo": "1BHK,450sqft",
			 "pdpUrl": "projects/blue-hills"},
			{"psmName": "No Detail Towers", "lmtDName": "Plain Builders"}
		]}`)
	})

	mux.HandleFunc("/projects/green-acres", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, testDetailHTML, "P52100012345")
	})
	mux.HandleFunc("/projects/blue-hills", func(w http.ResponseWriter, r *http.Request) {
		// No registration info anywhere on this page
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><p>Coming soon</p></body></html>")
	})

	return httptest.NewServer(mux)
}

// TestIntegrationFullRun walks the whole pipeline against a fake site:
// listing API, detail lookups, batching, CSV and JSON outputs.
func TestIntegrationFullRun(t *testing.T) {
	server := newTestSite(t)
	defer server.Close()

	dir := t.TempDir()
	csvSink, err := sink.NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)
	jsonSink, err := sink.NewJSONSink(dir, "projects.json")
	assert.NoError(t, err)

	stats := &scraper.RunStats{}
	detail := scraper.NewRegistrationFetcher(server.URL, nil)
	harvester := scraper.NewPageHarvester(server.URL+"/mbproject/newProjectCards", "3327", detail, 0, stats)

	w := worker.NewWorker(worker.Params{
		Harvester: harvester,
		CSV:       csvSink,
		Snapshot:  jsonSink,
		Stats:     stats,
		StartPage: 1,
		EndPage:   2,
		BatchSize: 20,
		PageDelay: 0,
	})

	all := w.Run(context.Background())
	assert.Len(t, all, 3)

	// CSV: single header row plus the three records, fixed column order
	f, err := os.Open(csvSink.Path())
	assert.NoError(t, err)
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	assert.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, []string{
		"Name", "Developer Name", "Price Range", "No of units",
		"Brochure", "Total Acres", "Floor Plan", "RERA Number",
	}, rows[0])
	assert.Equal(t, []string{
		"Green Acres", "Acme Developers", "₹45 L - ₹1.2 Cr", "240",
		"https://example.com/a.pdf", "12 Acres", "2BHK, 3BHK", "P52100012345",
	}, rows[1])
	assert.Equal(t, "Not Available", rows[2][7])
	assert.Equal(t, "No PDP URL", rows[3][7])

	// JSON snapshot: exactly the same three records
	data, err := os.ReadFile(jsonSink.Path())
	assert.NoError(t, err)
	var decoded []map[string]any
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 3)
	assert.Equal(t, "Green Acres", decoded[0]["Name"])
	assert.Equal(t, "P52100012345", decoded[0]["RERA Number"])

	// Counters: one registration hit, two misses
	assert.Equal(t, 3, stats.Scraped())
	assert.Equal(t, scraper.RegistrationStats{Success: 1, Failed: 2}, stats.Registration())

	// Record count matches what the summary would report
	count, err := csvSink.RecordCount()
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

// TestIntegrationBackupOnRerun verifies that a rerun from page 1 first
// renames the previous output to a timestamped backup.
func TestIntegrationBackupOnRerun(t *testing.T) {
	server := newTestSite(t)
	defer server.Close()

	dir := t.TempDir()
	csvSink, err := sink.NewCSVSink(dir, "projects.csv")
	assert.NoError(t, err)
	jsonSink, err := sink.NewJSONSink(dir, "projects.json")
	assert.NoError(t, err)

	assert.NoError(t, os.WriteFile(csvSink.Path(), []byte("stale\n"), 0644))

	stats := &scraper.RunStats{}
	detail := scraper.NewRegistrationFetcher(server.URL, nil)
	harvester := scraper.NewPageHarvester(server.URL+"/mbproject/newProjectCards", "3327", detail, 0, stats)

	w := worker.NewWorker(worker.Params{
		Harvester: harvester,
		CSV:       csvSink,
		Snapshot:  jsonSink,
		Stats:     stats,
		StartPage: 1,
		EndPage:   1,
		BatchSize: 20,
		PageDelay: 0,
	})
	w.Run(context.Background())

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)

	backups := 0
	for _, e := range entries {
		matched, _ := filepath.Match("backup_*_projects.csv", e.Name())
		if matched {
			backups++
		}
	}
	assert.Equal(t, 1, backups, "stale output should be renamed once")
}
