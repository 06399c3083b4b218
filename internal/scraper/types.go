package scraper

import (
	"sync"
	"time"
)

// Sentinel values stored in the registration-number field instead of an
// error. A lookup is only counted as successful when its result is
// non-empty and none of these.
const (
	RegistrationNotAvailable = "Not Available"
	RegistrationTimeout      = "Timeout"
	RegistrationNetworkError = "Network Error"
	RegistrationError        = "Error"
	RegistrationNoPDPURL     = "No PDP URL"
)

// Project represents one normalized real-estate project listing.
// The JSON tags match the column names of the tabular output so the
// snapshot and the CSV stay field-for-field identical.
type Project struct {
	Name       string `json:"Name"`
	Developer  string `json:"Developer Name"`
	PriceRange string `json:"Price Range"`
	Units      string `json:"No of units"`
	Brochure   string `json:"Brochure"`
	TotalArea  string `json:"Total Acres"`
	FloorPlan  string `json:"Floor Plan"`
	RERANumber string `json:"RERA Number"`

	// Relative detail-page path, kept for the registration lookup only.
	PDPPath string `json:"-"`
}

// RegistrationStats counts registration lookups for one page.
type RegistrationStats struct {
	Success int
	Failed  int
}

// Add accumulates another page's counters.
func (s *RegistrationStats) Add(other RegistrationStats) {
	s.Success += other.Success
	s.Failed += other.Failed
}

// Total returns the number of attempted lookups.
func (s RegistrationStats) Total() int {
	return s.Success + s.Failed
}

// IsRegistrationSuccess reports whether a lookup result counts as a hit.
func IsRegistrationSuccess(result string) bool {
	switch result {
	case "", RegistrationNotAvailable, RegistrationTimeout, RegistrationNetworkError, RegistrationError:
		return false
	}
	return true
}

// RunStats holds the run-wide counters. The mutex keeps mutation safe for
// callers that interleave with tabular writes; the run controller itself
// is single-threaded.
type RunStats struct {
	mu           sync.Mutex
	scraped      int
	failed       int
	registration RegistrationStats
	startTime    time.Time
}

// Start records the beginning of the run.
func (r *RunStats) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTime = time.Now()
}

// AddScraped increments the scraped-record counter.
func (r *RunStats) AddScraped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scraped++
}

// AddFailed increments the failed-record counter.
func (r *RunStats) AddFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

// AddRegistration accumulates one page's registration counters.
func (r *RunStats) AddRegistration(stats RegistrationStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registration.Add(stats)
}

// Scraped returns the total scraped-record count.
func (r *RunStats) Scraped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scraped
}

// Failed returns the total failed-record count.
func (r *RunStats) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Registration returns the run-wide registration counters.
func (r *RunStats) Registration() RegistrationStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registration
}

// Elapsed returns the time since the run started.
func (r *RunStats) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startTime.IsZero() {
		return 0
	}
	return time.Since(r.startTime)
}
